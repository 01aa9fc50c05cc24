package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Netlighter/messenger/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testPepper = "test-pepper"
	testTTL    = 7 * 24 * time.Hour
	testWindow = 180 * time.Second

	gifDataURL = "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"
)

type fixture struct {
	db       *gorm.DB
	auth     *AuthService
	sessions *SessionService
	presence *PresenceService
	messages *MessageService
}

func newFixture(t *testing.T) *fixture {
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

	sessions := NewSessionService(sessionRepo, testPepper, testTTL)
	return &fixture{
		db:       db,
		auth:     NewAuthService(userRepo, sessions),
		sessions: sessions,
		presence: NewPresenceService(userRepo, testWindow),
		messages: NewMessageService(messageRepo),
	}
}
