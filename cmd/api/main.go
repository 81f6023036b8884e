package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"voxscribe/internal/adapter/repo"
	"voxscribe/internal/billing"
	"voxscribe/internal/events"
	"voxscribe/internal/http/handlers"
	httpapi "voxscribe/internal/http/httpapi"
	"voxscribe/internal/identity"
	"voxscribe/internal/infra"
	"voxscribe/internal/infra/geoip"
	"voxscribe/internal/infra/google"
	"voxscribe/internal/metrics"
	"voxscribe/internal/middleware"
	"voxscribe/internal/profile"
	"voxscribe/internal/providers/payments"
	"voxscribe/internal/providers/transcription"
	"voxscribe/internal/storage"
	"voxscribe/internal/transcribe"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(infra.LogOptions{Env: cfg.AppEnv, Level: cfg.LogLevel, Component: "api"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.RunMigrations {
		if err := infra.RunMigrations(ctx, cfg, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()
	runner := infra.NewSQLRunner(dbpool, logger)

	users := repo.NewUserRepository(runner)
	transcriptions := repo.NewTranscriptionRepository(runner)
	purchases := repo.NewPurchaseRepository(runner)
	resets := repo.NewPasswordResetRepository(runner)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.NewMetrics(reg)

	blobs, err := storage.NewBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise blob storage")
	}
	var staticDir string
	if fs, ok := blobs.(*storage.FileStore); ok {
		staticDir = fs.BasePath()
	}

	broker := events.NewPGBroker(events.NewLocalBroker(0), runner, dbpool, logger)
	go func() {
		_ = broker.Run(ctx)
	}()

	tokens := identity.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.ServiceTokenTTL)
	identitySvc := identity.NewService(identity.Options{
		Users:          users,
		Resets:         resets,
		Tokens:         tokens,
		Google:         google.NewVerifier(cfg.GoogleIssuer, cfg.GoogleClientID),
		Mailer:         identity.NewMailer(cfg, logger),
		Logger:         logger,
		StartingTokens: cfg.StartingTokens,
		AppBaseURL:     cfg.AppBaseURL,
	})

	gateway := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if !gateway.Configured() {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set; purchases will fail")
	}

	app := &handlers.App{
		Identity: identitySvc,
		Profiles: profile.NewService(profile.Options{Users: users, Events: broker, Logger: logger}),
		Transcriptions: transcribe.NewService(transcribe.Options{
			Users:          users,
			Transcriptions: transcriptions,
			Store:          blobs,
			Transcriber: transcription.NewClient(transcription.Options{
				BaseURL: cfg.TranscribeURL,
				Timeout: cfg.TranscribeTimeout,
				Logger:  &logger,
			}),
			Tokens:  tokens,
			Events:  broker,
			Metrics: appMetrics,
			Logger:  logger,
		}),
		Billing: billing.NewService(billing.Options{
			Purchases:  purchases,
			Gateway:    gateway,
			Events:     broker,
			Metrics:    appMetrics,
			Logger:     logger,
			Currency:   cfg.PaymentCurrency,
			AppBaseURL: cfg.AppBaseURL,
		}),
		Tokens:         tokens,
		Events:         broker,
		DB:             dbpool,
		Metrics:        appMetrics,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Closing:        ctx.Done(),
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	router := httpapi.NewRouter(httpapi.Options{
		App:             app,
		Sessions:        tokens,
		Metrics:         appMetrics,
		Gatherer:        reg,
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   lookup,
		StaticDir:       staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)
	if err := server.Listen(); err != nil {
		logger.Fatal().Err(err).Str("addr", server.Addr()).Msg("listen failed")
	}
	logger.Info().Str("addr", server.Addr()).Msg("API listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
