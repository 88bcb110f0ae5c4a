package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/custconnect/custconnect-backend/api/controllers"
	"github.com/custconnect/custconnect-backend/api/routes"
	"github.com/custconnect/custconnect-backend/internal/auth"
	"github.com/custconnect/custconnect-backend/internal/messages"
	"github.com/custconnect/custconnect-backend/internal/notifications"
	"github.com/custconnect/custconnect-backend/internal/realtime"
	"github.com/custconnect/custconnect-backend/internal/users"
	"github.com/custconnect/custconnect-backend/pkg/auth/session"
	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/custconnect/custconnect-backend/pkg/db"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/mail"
	"github.com/custconnect/custconnect-backend/pkg/metrics"
	"github.com/custconnect/custconnect-backend/pkg/migrate"
	"github.com/custconnect/custconnect-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	mailer := mail.NewSender(cfg.Mail, logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:         userRepo,
		VerificationRepo: auth.NewVerificationRepository(dbClient.DB()),
		SessionManager:   sessionManager,
		Mailer:           mailer,
		Logger:           logg,
		JWTConfig:        cfg.JWT,
		PasswordConfig:   cfg.Password,
		MailConfig:       cfg.Mail,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	realtimeMetrics := metrics.NewRealtimeMetrics(prometheus.DefaultRegisterer)
	hub := realtime.NewHub(cfg.Realtime, logg, realtimeMetrics, redisClient, redisClient)

	notificationsService, err := notifications.NewService(
		notifications.NewRepository(dbClient.DB()),
		userRepo,
		hub,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	messagesService, err := messages.NewService(
		messages.NewRepository(dbClient.DB()),
		userRepo,
		notificationsService,
		hub,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create messages service", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.Realtime.DisableFanout {
		go runFanoutSubscriber(runCtx, cfg, logg, redisClient, hub)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:               cfg,
			Logger:               logg,
			SessionChecker:       sessionManager,
			RateLimiter:          redisClient,
			AuthService:          authService,
			NotificationsService: notificationsService,
			MessagesService:      messagesService,
			Hub:                  hub,
			HealthDeps: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	go func() {
		<-runCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Realtime.ShutdownTimeout)
		defer cancel()
		hub.Shutdown(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func runFanoutSubscriber(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, hub *realtime.Hub) {
	sub, err := redisClient.Subscribe(ctx, cfg.Realtime.PubSubChannel)
	if err != nil {
		logg.Error(ctx, "failed to subscribe to realtime channel", err)
		return
	}
	defer sub.Close()

	logg.Info(logg.WithField(ctx, "channel", cfg.Realtime.PubSubChannel), "realtime fan-out subscriber running")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			hub.HandleFanout([]byte(msg.Payload))
		}
	}
}
