package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Netlighter/messenger/internal/http/middleware"
	"github.com/Netlighter/messenger/internal/http/response"
	"github.com/Netlighter/messenger/internal/repository"
	"github.com/Netlighter/messenger/internal/service"
	"github.com/Netlighter/messenger/internal/validation"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionService
}

func NewAuthHandler(auth *service.AuthService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

type registerRequest struct {
	Nickname string  `json:"nickname" validate:"required,min=3"`
	Password string  `json:"password" validate:"required,min=6"`
	Avatar   *string `json:"avatar"`
}

type loginRequest struct {
	Nickname string `json:"nickname" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "malformed request body")
		return
	}
	req.Nickname = validation.Nickname(req.Nickname)
	if err := validate.Struct(req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "nickname >=3 and password >=6 required")
		return
	}
	token, err := h.auth.Register(req.Nickname, req.Password, req.Avatar)
	if err != nil {
		if errors.Is(err, repository.ErrNicknameTaken) {
			response.Error(w, r, http.StatusConflict, "CONFLICT", "nickname already exists")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "registration failed")
		return
	}
	response.JSON(w, r, http.StatusOK, tokenResponse{Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "malformed request body")
		return
	}
	req.Nickname = validation.Nickname(req.Nickname)
	if err := validate.Struct(req); err != nil {
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
		return
	}
	token, err := h.auth.Login(req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed")
		return
	}
	response.JSON(w, r, http.StatusOK, tokenResponse{Token: token})
}

// Logout always succeeds. Revoking an absent or already revoked token
// is a no-op.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(middleware.BearerToken(r)); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "logout failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
