package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/Netlighter/messenger/internal/http/handler"
	"github.com/Netlighter/messenger/internal/http/middleware"
	"github.com/Netlighter/messenger/internal/http/response"
	"github.com/Netlighter/messenger/internal/service"
)

// apiBodyLimit must admit a full attachment set: six 2 MiB images plus
// base64 inflation and JSON overhead.
const apiBodyLimit = 32 << 20

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	ChatHandler      *handler.ChatHandler
	Sessions         *service.SessionService
	Logger           *slog.Logger
	DB               *gorm.DB
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	PublicDir        string
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestLogger(dep.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   dep.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authLimiter := middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	apiLimiter := middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware()
	authenticated := middleware.AuthMiddleware(dep.Sessions)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.DB != nil {
			sqlDB, err := dep.DB.DB()
			if err != nil || sqlDB.PingContext(r.Context()) != nil {
				response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "store is not ready")
				return
			}
		}
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BodyLimit(apiBodyLimit))
		r.Use(apiLimiter)

		r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
		r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
		r.Post("/logout", dep.AuthHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/me", dep.ChatHandler.Me)
			r.Get("/state", dep.ChatHandler.State)
			r.Post("/avatar", dep.ChatHandler.SetAvatar)
			r.Post("/message", dep.ChatHandler.PostMessage)
		})
	})

	if dep.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dep.PublicDir)))
	}

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
