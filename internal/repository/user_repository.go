package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Netlighter/messenger/internal/domain"
	"github.com/Netlighter/messenger/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrNicknameTaken = errors.New("nickname already exists")
)

// PresenceRow is one row of the presence join: a user plus whether any
// of their sessions is both fresh and unexpired. Decoded once here, at
// the store boundary.
type PresenceRow struct {
	Nickname string
	Avatar   *string
	Online   int
}

type UserRepository interface {
	CreateWithSession(user *domain.User, session *domain.Session) error
	FindByID(id uint) (*domain.User, error)
	FindByNickname(nickname string) (*domain.User, error)
	UpdateAvatar(userID uint, avatar string) error
	ListPresence(onlineSince, now time.Time) ([]PresenceRow, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

// CreateWithSession inserts a user and their first session atomically.
// Registration either fully succeeds or leaves no rows behind; a
// nickname collision (compared case-insensitively) surfaces as
// ErrNicknameTaken.
func (r *GormUserRepository) CreateWithSession(user *domain.User, session *domain.Session) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).
			Where("LOWER(nickname) = LOWER(?)", user.Nickname).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrNicknameTaken
		}
		if err := tx.Create(user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrNicknameTaken
			}
			return err
		}
		session.UserID = user.ID
		return tx.Create(session).Error
	})
	if err != nil {
		if errors.Is(err, ErrNicknameTaken) {
			observability.RecordRepositoryOperation(context.Background(), "user", "create_with_session", "conflict")
		} else {
			observability.RecordRepositoryOperation(context.Background(), "user", "create_with_session", "error")
		}
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "create_with_session", "success")
	return nil
}

func (r *GormUserRepository) FindByID(id uint) (*domain.User, error) {
	var u domain.User
	err := r.db.First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByNickname(nickname string) (*domain.User, error) {
	var u domain.User
	err := r.db.Where("nickname = ?", nickname).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(context.Background(), "user", "find_by_nickname", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(context.Background(), "user", "find_by_nickname", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "find_by_nickname", "success")
	return &u, nil
}

// UpdateAvatar is an idempotent overwrite.
func (r *GormUserRepository) UpdateAvatar(userID uint, avatar string) error {
	err := r.db.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("avatar", avatar).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "update_avatar", "error")
		return err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "update_avatar", "success")
	return nil
}

// ListPresence joins every user against their sessions and flags the
// ones with at least one session seen since onlineSince and not yet
// expired. Ordering is online-first, then nickname case-insensitively,
// a total order that is stable across polls.
func (r *GormUserRepository) ListPresence(onlineSince, now time.Time) ([]PresenceRow, error) {
	var rows []PresenceRow
	err := r.db.Raw(`
		SELECT
			u.nickname AS nickname,
			u.avatar AS avatar,
			MAX(CASE WHEN s.last_seen >= ? AND s.expires_at >= ? THEN 1 ELSE 0 END) AS online
		FROM users u
		LEFT JOIN sessions s ON s.user_id = u.id
		GROUP BY u.id, u.nickname, u.avatar
		ORDER BY online DESC, LOWER(u.nickname) ASC`,
		onlineSince, now,
	).Scan(&rows).Error
	if err != nil {
		observability.RecordRepositoryOperation(context.Background(), "user", "list_presence", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(context.Background(), "user", "list_presence", "success")
	return rows, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
