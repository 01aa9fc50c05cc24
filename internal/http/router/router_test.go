package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Netlighter/messenger/internal/http/handler"
	"github.com/Netlighter/messenger/internal/repository"
	"github.com/Netlighter/messenger/internal/service"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	sessions := service.NewSessionService(sessionRepo, "test-pepper", 7*24*time.Hour)
	auth := service.NewAuthService(userRepo, sessions)
	presence := service.NewPresenceService(userRepo, 180*time.Second)
	messages := service.NewMessageService(messageRepo)

	return NewRouter(Dependencies{
		AuthHandler:      handler.NewAuthHandler(auth, sessions),
		ChatHandler:      handler.NewChatHandler(auth, presence, messages),
		Sessions:         sessions,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		DB:               db,
		CORSOrigins:      []string{"*"},
		AuthRateLimitRPM: 1000,
		APIRateLimitRPM:  10000,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelopeData struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelopeData {
	t.Helper()
	var env envelopeData
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func registerAndToken(t *testing.T, h http.Handler, nickname string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/register", "", map[string]string{
		"nickname": nickname,
		"password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status %d: %s", nickname, rec.Code, rec.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if data.Token == "" {
		t.Fatal("empty token")
	}
	return data.Token
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(t)

	for _, path := range []string{"/api/me", "/api/state"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: status %d", path, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
			t.Fatalf("%s: wrong error envelope: %s", path, rec.Body.String())
		}
	}

	rec := doJSON(t, h, http.MethodPost, "/api/message", "garbage-token", map[string]any{"text": "hi"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("message with bad token: status %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newTestRouter(t)

	rec := doJSON(t, h, http.MethodPost, "/api/register", "", map[string]string{
		"nickname": "ab",
		"password": "secret1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short nickname: status %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/register", "", map[string]string{
		"nickname": "alice",
		"password": "12345",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: status %d", rec.Code)
	}

	// a nickname that trims below the minimum is rejected too
	rec = doJSON(t, h, http.MethodPost, "/api/register", "", map[string]string{
		"nickname": "  a  ",
		"password": "secret1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("whitespace nickname: status %d", rec.Code)
	}
}

func TestRegisterConflictStatus(t *testing.T) {
	h := newTestRouter(t)
	registerAndToken(t, h, "alice")

	rec := doJSON(t, h, http.MethodPost, "/api/register", "", map[string]string{
		"nickname": "alice",
		"password": "secret2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Fatalf("wrong error code: %s", rec.Body.String())
	}
}

func TestMeAndStateRoundTrip(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndToken(t, h, "alice")

	rec := doJSON(t, h, http.MethodGet, "/api/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	var me struct {
		ID       uint   `json:"id"`
		Nickname string `json:"nickname"`
	}
	env := decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Nickname != "alice" || me.ID == 0 {
		t.Fatalf("unexpected me payload: %+v", me)
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/message", token, map[string]any{"text": "hello"}); rec.Code != http.StatusOK {
		t.Fatalf("post message: status %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/state", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state: status %d", rec.Code)
	}
	var state struct {
		Me    json.RawMessage `json:"me"`
		Users []struct {
			Nickname string `json:"nickname"`
			Online   bool   `json:"online"`
		} `json:"users"`
		Messages []struct {
			Text     string `json:"text"`
			Nickname string `json:"nickname"`
		} `json:"messages"`
	}
	env = decodeEnvelope(t, rec)
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.Users) != 1 || !state.Users[0].Online {
		t.Fatalf("expected one online user: %+v", state.Users)
	}
	if len(state.Messages) != 1 || state.Messages[0].Text != "hello" || state.Messages[0].Nickname != "alice" {
		t.Fatalf("unexpected messages: %+v", state.Messages)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	h := newTestRouter(t)
	token := registerAndToken(t, h, "alice")

	for i := 0; i < 2; i++ {
		rec := doJSON(t, h, http.MethodPost, "/api/logout", token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("logout attempt %d: status %d", i+1, rec.Code)
		}
	}
	// and with no token at all
	if rec := doJSON(t, h, http.MethodPost, "/api/logout", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("tokenless logout: status %d", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token survived logout: status %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t)

	if rec := doJSON(t, h, http.MethodGet, "/health/live", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("live: status %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: status %d", rec.Code)
	}
}
