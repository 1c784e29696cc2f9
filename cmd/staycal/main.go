package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staycal/internal/app/commands"
	adminapp "staycal/internal/app/handlers/admin"
	bookingapp "staycal/internal/app/handlers/booking"
	widgetsapp "staycal/internal/app/handlers/widgets"
	"staycal/internal/app/middleware"
	appoutbox "staycal/internal/app/outbox"
	"staycal/internal/app/queries"
	"staycal/internal/app/services/auth"
	"staycal/internal/app/widget"
	"staycal/internal/clock"
	domainauth "staycal/internal/domain/auth"
	"staycal/internal/domain/booking"
	"staycal/internal/infra/backends"
	"staycal/internal/infra/broker/kafka"
	"staycal/internal/infra/config"
	"staycal/internal/infra/db/mongo"
	"staycal/internal/infra/grpchealth"
	ginserver "staycal/internal/infra/http/gin"
	"staycal/internal/infra/obs"
	infraoutbox "staycal/internal/infra/outbox"
	"staycal/internal/infra/security"
	"staycal/internal/infra/storage/memory"
	"staycal/internal/infra/storage/redis"
	"staycal/internal/infra/storage/s3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("staycal stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	app, err := buildApplication(ctx, cfg, logger)
	defer app.close(logger)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	go app.registry.Run(ctx, cfg.SweepInterval)
	go app.purgeAdminSessions(ctx, cfg.SweepInterval, logger)
	go func() {
		if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	}()

	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen on %s: %w", cfg.GRPCAddr, err)
	}
	healthSrv := grpchealth.New(app.health, 10*time.Second, logger)
	go func() {
		logger.Info("gRPC health server starting", "addr", cfg.GRPCAddr)
		if err := healthSrv.Serve(ctx, grpcLis); err != nil {
			logger.Error("grpc health server failed", "error", err)
		}
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "backend", cfg.Backend, "property", cfg.Property)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}

type application struct {
	handlers ginserver.Handlers
	health   obs.HealthHandlers
	registry *widget.Registry
	auth     *auth.Service
	worker   *infraoutbox.Worker
	closers  []func(ctx context.Context) error
}

// buildApplication wires every component. The returned application is never
// nil, so its closers run even when wiring fails part way.
func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}
	clk := clock.NewSystem(cfg.Location)
	checks := map[string]obs.Check{}

	policy, err := booking.NewPolicy(cfg.MinimumNights, cfg.AdvanceNoticeDays)
	if err != nil {
		return app, err
	}

	opened, err := backends.Open(ctx, cfg, clk, logger)
	if err != nil {
		return app, err
	}
	app.closers = append(app.closers, opened.Close)
	if opened.Ping != nil {
		checks["backend"] = opened.Ping
	}

	// Outbox and idempotency records live in MongoDB when it is configured.
	var (
		outboxAdd   appoutbox.Outbox
		outboxStore infraoutbox.Store
		idStore     middleware.IdempotencyStore
	)
	if cfg.MongoURI != "" {
		client, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDB, cfg.BackendTimeout)
		if err != nil {
			return app, fmt.Errorf("mongo outbox: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		checks["mongo"] = client.Ping
		store, err := infraoutbox.NewMongoStore(ctx, client.DB)
		if err != nil {
			return app, fmt.Errorf("mongo outbox: %w", err)
		}
		outboxAdd, outboxStore = store, store
		if idStore, err = mongo.NewIdempotencyStore(ctx, client.DB); err != nil {
			return app, fmt.Errorf("mongo idempotency: %w", err)
		}
	} else {
		store := memory.NewOutbox()
		outboxAdd, outboxStore = store, store
		idStore = memory.NewIdempotencyStore(clk.Now)
	}

	var producer infraoutbox.Producer = infraoutbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewProducer(cfg.KafkaBrokers, "staycal")
		if err != nil {
			return app, fmt.Errorf("kafka producer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return kp.Close() })
		producer = kp
	}
	app.worker = &infraoutbox.Worker{
		Store:       outboxStore,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	sessions, err := app.newSessionStore(ctx, cfg, checks)
	if err != nil {
		return app, err
	}
	hasher := security.BcryptHasher{}
	secretHash, err := hasher.ResolveSecretHash(cfg.AdminPasswordHash, cfg.AdminPassword)
	if err != nil {
		return app, fmt.Errorf("admin secret: %w", err)
	}
	app.auth = &auth.Service{
		SecretHash: secretHash,
		Sessions:   sessions,
		Passwords:  hasher,
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.AdminSessionTTL,
		Now:        clk.Now,
		Logger:     logger,
	}

	var publisher adminapp.Publisher
	if cfg.S3Bucket != "" {
		p, err := s3.NewPublisher(s3.Options{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}, logger)
		if err != nil {
			return app, err
		}
		checks["s3"] = p.Ping
		publisher = p
	}

	app.registry, err = widget.NewRegistry(widget.Config{
		Property:    cfg.Property,
		Policy:      policy,
		Backend:     opened.Backend,
		Clock:       clk,
		Logger:      logger,
		IdleTTL:     cfg.SessionIdleTTL,
		MaxSessions: cfg.MaxSessions,
	})
	if err != nil {
		return app, err
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	widgetHandlers := &widgetsapp.Handlers{Registry: app.registry, Outbox: outboxAdd, Encoder: encoder}
	widgetsapp.RegisterCommands(commandBus, widgetHandlers)
	adminapp.Register(commandBus,
		&adminapp.LoginHandler{Auth: app.auth},
		&adminapp.LogoutHandler{Auth: app.auth},
		&adminapp.PublishHandler{Backend: opened.Backend, Publisher: publisher, ObjectKey: cfg.S3ObjectKey, Logger: logger},
	)
	bookingapp.Register(commandBus, &bookingapp.RequestBookingHandler{
		Backend:  opened.Backend,
		Policy:   policy,
		Property: cfg.Property,
		Clock:    clk,
		Outbox:   outboxAdd,
		Encoder:  encoder,
		Logger:   logger,
	})

	queryBus := queries.NewInMemoryBus()
	widgetsapp.RegisterQueries(queryBus, widgetHandlers)

	validator := middleware.NewStructValidator()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.AdminGate(auth.IsAdmin),
		middleware.Validation(validator),
		middleware.Idempotency(idStore, nil, clk.Now),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAdminGate(auth.IsAdmin),
		middleware.QueryValidation(validator),
	)

	app.health = obs.HealthHandlers{Checks: checks, Timeout: 2 * time.Second}
	app.handlers = ginserver.Handlers{
		Widget: ginserver.WidgetHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Admin: ginserver.AdminHandler{
			Commands: commandBusWithMiddleware,
		},
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
		},
		AuthMiddleware: ginserver.AuthMiddleware{Service: app.auth, Logger: logger}.Handle,
	}
	return app, nil
}

func (a *application) newSessionStore(ctx context.Context, cfg config.Config, checks map[string]obs.Check) (domainauth.SessionStore, error) {
	if cfg.AdminSessionStore != "redis" {
		return memory.NewSessionStore(), nil
	}
	client, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Timeout:  cfg.BackendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis session store: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	checks["redis_sessions"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return redis.NewSessionStore(client, ""), nil
}

func (a *application) purgeAdminSessions(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := a.auth.PurgeExpired(ctx); err != nil {
				logger.Warn("admin session purge failed", "error", err)
			} else if n > 0 {
				logger.Debug("admin sessions purged", "count", n)
			}
		}
	}
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown hook failed", "error", err)
		}
	}
}
