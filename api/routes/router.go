package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custconnect/custconnect-backend/api/controllers"
	"github.com/custconnect/custconnect-backend/api/middleware"
	"github.com/custconnect/custconnect-backend/internal/auth"
	"github.com/custconnect/custconnect-backend/internal/messages"
	"github.com/custconnect/custconnect-backend/internal/notifications"
	"github.com/custconnect/custconnect-backend/internal/realtime"
	"github.com/custconnect/custconnect-backend/pkg/auth/session"
	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/roles"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	SessionChecker session.AccessSessionChecker
	RateLimiter    middleware.RateLimiter

	AuthService          auth.Service
	NotificationsService notifications.Service
	MessagesService      messages.Service
	Hub                  *realtime.Hub

	// HealthDeps maps a dependency name to its pinger for the readiness
	// endpoint.
	HealthDeps map[string]controllers.Pinger
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Realtime.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.HealthDeps))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).
			Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).
			Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.Post("/verify", controllers.AuthVerify(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).
			Post("/resend-code", controllers.AuthResendCode(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.SessionChecker, logg))

		r.Get("/auth/me", controllers.AuthMe(deps.AuthService, logg))
		r.Post("/auth/logout", controllers.AuthLogout(deps.AuthService, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.NotificationsList(deps.NotificationsService, logg))
			r.Put("/read-all", controllers.NotificationsMarkAllRead(deps.NotificationsService, logg))
			r.Put("/{notificationId}/read", controllers.NotificationMarkRead(deps.NotificationsService, logg))
			r.Delete("/{notificationId}", controllers.NotificationDelete(deps.NotificationsService, logg))
			r.With(middleware.RequireClassification(logg, roles.ClassAdmin, roles.ClassVendor)).
				Post("/broadcast", controllers.NotificationsBroadcast(deps.NotificationsService, logg))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/", controllers.MessagesSend(deps.MessagesService, logg))
			r.Get("/{userId}", controllers.MessagesConversation(deps.MessagesService, logg))
		})

		r.Route("/academics", func(r chi.Router) {
			r.Post("/gpa", controllers.AcademicsGPA(logg))
			r.Post("/cgpa", controllers.AcademicsCGPA(logg))
		})

	})

	// Websocket dials cannot always carry headers, so /ws resolves its own
	// token (header or query) instead of going through the auth middleware.
	r.Get("/api/v1/ws", controllers.RealtimeWS(deps.Hub, cfg.JWT, deps.SessionChecker, logg))

	return r
}
