package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/observability"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(s *domain.Session) error
	ResolveAndRenew(digest string, now time.Time, ttl time.Duration) (*domain.User, error)
	DeleteByDigest(digest string) error
	PurgeExpired(now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(s *domain.Session) error {
	err := r.db.Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "create", "success")
	return nil
}

// ResolveAndRenew is the authenticate hot path. In one transaction it
// purges every expired session, resolves the token digest to its owning
// user, and slides the session forward (last_seen = now, expires_at =
// now + ttl). An expired token is gone before lookup, so it can never
// authenticate again. Concurrent renewals of the same token are
// idempotent overwrites; last writer wins with a non-decreasing clock.
func (r *GormSessionRepository) ResolveAndRenew(digest string, now time.Time, ttl time.Duration) (*domain.User, error) {
	var user domain.User
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at < ?", now).Delete(&domain.Session{}).Error; err != nil {
			return err
		}
		var s domain.Session
		if err := tx.Where("token_digest = ?", digest).First(&s).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		if err := tx.Model(&domain.Session{}).
			Where("token_digest = ?", digest).
			Updates(map[string]any{"last_seen": now, "expires_at": now.Add(ttl)}).Error; err != nil {
			return err
		}
		return tx.First(&user, s.UserID).Error
	})
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "session", "resolve_and_renew", "not_found")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "session", "resolve_and_renew", "error")
		}
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "resolve_and_renew", "success")
	return &user, nil
}

// DeleteByDigest removes a session row. Deleting an unknown digest is a
// no-op success, which makes logout idempotent.
func (r *GormSessionRepository) DeleteByDigest(digest string) error {
	err := r.db.Where("token_digest = ?", digest).Delete(&domain.Session{}).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_digest", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "delete_by_digest", "success")
	return nil
}

func (r *GormSessionRepository) PurgeExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at < ?", now).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(context.Background(), "session", "purge_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(context.Background(), "session", "purge_expired", "success")
	return res.RowsAffected, nil
}
