package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/observability"
	"github.com/Netlighter/messenger/internal/repository"
	"github.com/Netlighter/messenger/internal/security"
)

// SessionService owns the bearer-token lifecycle: Active until
// expires_at, then treated identically to absent; explicit revoke is
// terminal. There are no other states, and a token never comes back.
type SessionService struct {
	sessions repository.SessionRepository
	pepper   string
	ttl      time.Duration
}

func NewSessionService(sessions repository.SessionRepository, pepper string, ttl time.Duration) *SessionService {
	return &SessionService{sessions: sessions, pepper: pepper, ttl: ttl}
}

// Issue mints a fresh token for the user and stores its digest.
func (s *SessionService) Issue(userID uint) (string, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	if err := s.sessions.Create(&domain.Session{
		UserID:      userID,
		TokenDigest: security.DigestToken(token, s.pepper),
		ExpiresAt:   now.Add(s.ttl),
		LastSeen:    now,
	}); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to its user's public view. Every
// call first purges expired sessions (lazy GC, no sweeper goroutine)
// and, on success, slides the session's expiry forward as a side
// effect. Absent, unknown and expired tokens all come back as
// ErrUnauthenticated.
func (s *SessionService) Authenticate(token string) (*domain.UserView, error) {
	if token == "" {
		observability.RecordSessionAuthentication("missing")
		return nil, ErrUnauthenticated
	}
	digest := security.DigestToken(token, s.pepper)
	user, err := s.sessions.ResolveAndRenew(digest, time.Now(), s.ttl)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			observability.RecordSessionAuthentication("invalid")
			return nil, ErrUnauthenticated
		}
		observability.RecordSessionAuthentication("error")
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	observability.RecordSessionAuthentication("valid")
	view := user.View()
	return &view, nil
}

// Revoke deletes the session. Revoking an unknown or already revoked
// token is a no-op success.
func (s *SessionService) Revoke(token string) error {
	if token == "" {
		observability.RecordAuthLogout("missing")
		return nil
	}
	if err := s.sessions.DeleteByDigest(security.DigestToken(token, s.pepper)); err != nil {
		observability.RecordAuthLogout("error")
		return fmt.Errorf("delete session: %w", err)
	}
	observability.RecordAuthLogout("success")
	return nil
}

// TTL exposes the configured session lifetime.
func (s *SessionService) TTL() time.Duration { return s.ttl }
