package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salonbook/internal/api"
	"salonbook/internal/config"
	"salonbook/internal/database"
	"salonbook/internal/domain"
	"salonbook/internal/events"
	"salonbook/internal/logging"
	"salonbook/internal/metrics"
	"salonbook/internal/notify"
	"salonbook/internal/repository"
	"salonbook/internal/salonapi"
	"salonbook/internal/service"
	"salonbook/internal/slots"
	"salonbook/internal/submission"
	"salonbook/internal/validation"
	"salonbook/internal/worker"
	"salonbook/internal/workflow"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}
	sessions, memoryRepo := initSessionRepository(cfg, redisClient, &logger)
	go sweepSessions(ctx, memoryRepo)

	upstream := salonapi.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.Timeout)
	if redisClient != nil {
		upstream.UseRedisCache(redisClient, cfg.Upstream.CacheTTL)
	}

	alertWorker := worker.NewAlertWorker(db, initNotifier(cfg, &logger), worker.RetryPolicy{}, &logger)
	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, alertWorker, &logger)

	sessionService, adminService, err := buildServices(cfg, sessions, upstream, db, eventBus, &logger)
	if err != nil {
		return err
	}
	defer sessionService.Close()

	httpServer := api.NewHTTPServer(cfg.API, sessionService, adminService, &logger)
	httpServer.AddHealthCheck("database", db.PingContext)
	if redisClient != nil {
		httpServer.AddHealthCheck("redis", func(ctx context.Context) error {
			return repository.Ping(ctx, redisClient)
		})
	}

	go alertWorker.Start(ctx)
	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, sessions start on the memory store")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

// initSessionRepository prefers redis and falls back to process memory.
func initSessionRepository(cfg *config.Config, client *redis.Client, logger *zerolog.Logger) (domain.SessionRepository, *repository.MemorySessionRepository) {
	memory := repository.NewMemorySessionRepository(cfg.Session.TTL)
	if client == nil {
		return memory, memory
	}
	primary := repository.NewRedisSessionRepository(client, cfg.Session.TTL)
	return repository.NewFailoverSessionRepository(primary, memory, logger), memory
}

func sweepSessions(ctx context.Context, repo *repository.MemorySessionRepository) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			repo.Sweep()
		}
	}
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) worker.Notifier {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.ManagerChatIDs) == 0 {
		logger.Warn().Msg("telegram not configured, manager alerts go to the log")
		return notify.NewLogNotifier(logger)
	}
	bot, err := notify.NewBot(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, manager alerts go to the log")
		return notify.NewLogNotifier(logger)
	}
	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.ManagerChatIDs)).Msg("telegram notifier ready")
	return notify.NewTelegramNotifier(bot, cfg.Telegram.ManagerChatIDs, logger)
}

func buildServices(
	cfg *config.Config,
	repo domain.SessionRepository,
	upstream *salonapi.Client,
	db *database.DB,
	eventBus *events.EventBus,
	logger *zerolog.Logger,
) (*service.SessionService, *service.AdminService, error) {
	loc := cfg.Location()
	engine, err := slots.NewEngine(cfg.WorkingHours(), loc)
	if err != nil {
		logger.Error().Err(err).Msg("init slot engine")
		return nil, nil, err
	}

	validator := validation.NewFormValidator(loc, time.Now)
	wf := workflow.New(validator)
	phone := workflow.NewPhoneFlow(workflow.PhoneConfig{
		OTPLength:       cfg.Verification.OTPLength,
		OTPTTL:          cfg.Verification.OTPTTL,
		ResendCooldown:  cfg.Verification.ResendCooldown,
		AutoSubmitDelay: cfg.Verification.AutoSubmitDelay,
	})

	submitter := submission.NewController(upstream, validator, submission.Config{
		Retry: worker.RetryPolicy{
			MaxRetries:    cfg.Submission.MaxRetries,
			InitialDelay:  cfg.Submission.BaseDelay,
			MaxDelay:      cfg.Submission.MaxDelay,
			BackoffFactor: cfg.Submission.BackoffFactor,
		},
		RequestTimeout: cfg.Submission.RequestTimeout,
		RateLimitDelay: cfg.Submission.RateLimitDelay,
		UnknownRetries: 1,
	}, logger).WithRecorder(db).WithEvents(eventBus)

	loader := service.NewSlotLoader(upstream, engine, logger)

	sessions := service.NewSessionService(repo, upstream, wf, phone, loader, submitter, eventBus, service.SessionConfig{
		MonthsCount:   cfg.Schedule.MonthsCount,
		OTPSendLimit:  cfg.Verification.SendLimit,
		OTPSendWindow: cfg.Verification.SendWindow,
		Contact: submission.ContactConfig{
			WhatsAppNumber:  cfg.Contact.WhatsAppNumber,
			MessageTemplate: cfg.Contact.MessageTemplate,
		},
	}, logger)

	admin := service.NewAdminService(upstream, loader, db, cfg.Schedule.RefreshInterval, logger).
		WithArchive(cfg.Exports.Path)

	return sessions, admin, nil
}

func subscribeBookingEvents(bus *events.EventBus, alerts *worker.AlertWorker, logger *zerolog.Logger) {
	l := logger.With().Str("component", "events").Logger()

	bus.SubscribeAll(func(event *events.Event) error {
		var payload events.BookingEventPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		l.Info().
			Str("event", event.Type).
			Str("session_id", payload.SessionID).
			Str("phone", payload.CustomerPhone).
			Str("date", payload.Date).
			Str("time", payload.Time).
			Str("error_kind", payload.ErrorKind).
			Msg("booking event")
		return nil
	}, events.EventOTPSent, events.EventPhoneVerified, events.EventBookingSubmitted, events.EventBookingSubmissionFailed)

	// The failure is already queued in sqlite; wake the worker so managers hear now.
	bus.Subscribe(events.EventBookingSubmissionFailed, func(*events.Event) error {
		alerts.Wake()
		return nil
	})
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
