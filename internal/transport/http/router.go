// http собирает HTTP-роутер auth-сервиса: middleware-цепочку,
// публичные auth-маршруты и защищённые admin-маршруты.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savemate/auth-service/internal/service"
	"github.com/savemate/auth-service/internal/transport/http/handlers"
	"github.com/savemate/auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // RPS/latency/in-flight
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	// Публичные auth-маршруты.
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh", h.RefreshToken)

	// Требуют валидного access-токена.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(svc))
		r.Get("/auth/me", h.Me)
	})

	// Админ-операции.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(svc), middleware.RequireAdmin())
		r.Post("/users/{id}/deactivate", h.DeactivateUser)
		r.Post("/users/{id}/activate", h.ActivateUser)
	})
}
