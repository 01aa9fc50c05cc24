package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/http/middleware"
	"github.com/Netlighter/messenger/internal/http/response"
	"github.com/Netlighter/messenger/internal/service"
	"github.com/Netlighter/messenger/internal/validation"
)

type ChatHandler struct {
	auth     *service.AuthService
	presence *service.PresenceService
	messages *service.MessageService
}

func NewChatHandler(auth *service.AuthService, presence *service.PresenceService, messages *service.MessageService) *ChatHandler {
	return &ChatHandler{auth: auth, presence: presence, messages: messages}
}

type stateResponse struct {
	Me       *domain.UserView       `json:"me"`
	Users    []service.PresenceView `json:"users"`
	Messages []domain.MessageView   `json:"messages"`
}

type avatarRequest struct {
	Avatar string `json:"avatar"`
}

type messageRequest struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
}

func (h *ChatHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

// State is the single polling endpoint: the caller's view, everyone's
// presence, and the recent history in one round trip.
func (h *ChatHandler) State(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	users, err := h.presence.OnlineUsers()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "state unavailable")
		return
	}
	messages, err := h.messages.Recent()
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "state unavailable")
		return
	}
	response.JSON(w, r, http.StatusOK, stateResponse{Me: user, Users: users, Messages: messages})
}

func (h *ChatHandler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	var req avatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "malformed request body")
		return
	}
	if err := h.auth.SetAvatar(user.ID, req.Avatar); err != nil {
		if errors.Is(err, validation.ErrInvalidImage) {
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid avatar")
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "avatar update failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "avatar": req.Avatar})
}

func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", "malformed request body")
		return
	}
	if err := h.messages.Post(user.ID, req.Text, req.Attachments); err != nil {
		switch {
		case errors.Is(err, validation.ErrInvalidAttachments):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", "invalid attachments")
		case errors.Is(err, service.ErrEmptyMessage):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", "empty message")
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "message post failed")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
