package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Netlighter/messenger/internal/config"
	"github.com/Netlighter/messenger/internal/http/handler"
	"github.com/Netlighter/messenger/internal/http/router"
	"github.com/Netlighter/messenger/internal/observability"
	"github.com/Netlighter/messenger/internal/repository"
	"github.com/Netlighter/messenger/internal/service"

	"gorm.io/gorm"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	DB            *gorm.DB
	Observability *observability.Runtime
}

// Build opens the store, runs migrations, and wires repositories,
// services, handlers and the HTTP server together.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	sessionSvc := service.NewSessionService(sessionRepo, cfg.TokenPepper, cfg.SessionTTL)
	authSvc := service.NewAuthService(userRepo, sessionSvc)
	presenceSvc := service.NewPresenceService(userRepo, cfg.OnlineWindow)
	messageSvc := service.NewMessageService(messageRepo)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, sessionSvc),
		ChatHandler:      handler.NewChatHandler(authSvc, presenceSvc, messageSvc),
		Sessions:         sessionSvc,
		Logger:           logger,
		DB:               db,
		CORSOrigins:      cfg.CORSOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		PublicDir:        cfg.PublicDir,
		EnableOTelHTTP:   cfg.OTELTracesEnabled,
	})

	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        &http.Server{Addr: cfg.HTTPAddr, Handler: h},
		DB:            db,
		Observability: runtime,
	}, nil
}
