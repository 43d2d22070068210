package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/time/rate"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/external"
	"github.com/goliatone/go-accounts/external/google"
)

func main() {
	cfg, err := accounts.LoadConfigFromEnv()
	if err != nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	logger := accounts.NewZerologLogger(level, cfg.LogPretty)
	if parseErr != nil {
		logger.Warn("invalid log level, defaulting to info", "configured", cfg.LogLevel)
	}
	logger.Info("starting accounts server", "addr", cfg.ListenAddr)

	sqlDB, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := accounts.RunMigrations(ctx, sqlDB); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	identities := accounts.NewIdentitiesRepository(db)
	sessionStore := accounts.NewSessionsRepository(db)

	registry := prometheus.NewRegistry()
	metrics := accounts.NewCollector(registry)

	sessions := accounts.NewSessionManager(sessionStore, identities,
		accounts.WithSessionTTL(cfg.SessionTTL),
		accounts.WithSessionLogger(logger),
	)

	verifier := accounts.NewVerifier(identities).WithLogger(logger)
	registrar := accounts.NewRegistrar(identities).WithLogger(logger)

	controller := accounts.NewController(verifier, registrar, sessions,
		accounts.WithControllerLogger(logger),
		accounts.WithControllerMetrics(metrics),
		accounts.WithCookieName(cfg.CookieName),
		accounts.WithCookieSecure(cfg.CookieSecure),
	)

	limiter := accounts.NewRateLimiter(accounts.RateLimiterConfig{
		Rate:            rate.Limit(float64(cfg.LoginRatePerMinute) / 60.0),
		Burst:           cfg.LoginRateBurst,
		CleanupInterval: 5 * time.Minute,
	})
	defer limiter.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "accounts",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	controller.RegisterRoutes(app, limiter.Middleware())

	resolver := external.NewResolver(identities,
		external.WithResolverLogger(logger),
		external.WithResolverMetrics(metrics),
	)

	authOpts := []external.AuthenticatorOption{
		external.WithAuthenticatorLogger(logger),
	}
	if cfg.GoogleClientID != "" {
		authOpts = append(authOpts, external.WithProvider(google.New(google.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			CallbackURL:  cfg.GoogleCallbackURL,
		})))
	} else {
		logger.Warn("no google client configured, external auth has no providers")
	}

	authenticator := external.NewAuthenticator(resolver, authOpts...)

	externalController := external.NewHTTPController(authenticator, sessions, external.HTTPConfig{
		CookieName:      cfg.CookieName,
		CookieSecure:    cfg.CookieSecure,
		SuccessRedirect: cfg.BaseURL,
	}).WithLogger(logger)
	externalController.RegisterRoutes(app)

	app.Get("/metrics", adaptor.HTTPHandler(accounts.MetricsHandler(registry)))
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := sqlDB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	sweeper := accounts.NewSessionSweeper(sessionStore, cfg.SweepInterval, logger)
	go sweeper.Start(ctx)
	defer sweeper.Stop()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
