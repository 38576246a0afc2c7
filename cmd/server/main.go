package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/finovo/bankcore/internal/adapter/assistant/gemini"
	"github.com/finovo/bankcore/internal/adapter/gateway/razorpay"
	httpAdapter "github.com/finovo/bankcore/internal/adapter/http"
	"github.com/finovo/bankcore/internal/adapter/http/handler"
	"github.com/finovo/bankcore/internal/adapter/http/middleware"
	"github.com/finovo/bankcore/internal/adapter/market"
	postgresRepo "github.com/finovo/bankcore/internal/adapter/repository/postgres"
	redisRepo "github.com/finovo/bankcore/internal/adapter/repository/redis"
	"github.com/finovo/bankcore/internal/infrastructure/auth"
	"github.com/finovo/bankcore/internal/infrastructure/config"
	"github.com/finovo/bankcore/internal/infrastructure/eventpublisher"
	"github.com/finovo/bankcore/internal/infrastructure/logger"
	"github.com/finovo/bankcore/internal/infrastructure/metrics"
	"github.com/finovo/bankcore/internal/infrastructure/postgres"
	"github.com/finovo/bankcore/internal/infrastructure/redis"
	"github.com/finovo/bankcore/internal/infrastructure/worker"
	"github.com/finovo/bankcore/internal/usecase"
)

const rateLimiterIdle = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := validateConfig(cfg); err != nil {
		return err
	}

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		PingTimeout:    cfg.DatabaseTimeout,
		ConnectRetries: cfg.DatabaseConnectRetries,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, redis.Options{
		URL:            cfg.RedisURL,
		PoolSize:       cfg.RedisPoolSize,
		ConnectRetries: cfg.RedisConnectRetries,
	}, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize repositories
	idGen := postgresRepo.NewULIDGenerator()
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout))
	accountRepo := postgresRepo.NewAccountRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	beneficiaryRepo := postgresRepo.NewBeneficiaryRepository(pool)
	portfolioRepo := postgresRepo.NewPortfolioRepository(pool)
	orderRepo := postgresRepo.NewOrderRepository(pool)
	chatRepo := postgresRepo.NewChatRepository(pool)

	store := usecase.LedgerStore{
		TxManager:    txManager,
		Retrier:      postgresRepo.NewRetrier(log).WithMetrics(m.DBRetries),
		Accounts:     accountRepo,
		Transactions: txnRepo,
		Entries:      entryRepo,
		Payments:     paymentRepo,
		Outbox:       outboxRepo,
		Audit:        auditRepo,
		IDGen:        idGen,
		Metrics:      m,
	}

	// Optional backends stay untyped nil so the use cases see them as absent.
	var gateway usecase.PaymentGateway
	if cfg.GatewayEnabled() {
		gateway = razorpay.NewClient(razorpay.Config{KeyID: cfg.RazorpayKeyID, KeySecret: cfg.RazorpayKeySecret}, log)
	} else {
		log.Warn().Msg("payment gateway credentials not set, checkout disabled")
	}

	var completer usecase.Completer
	if cfg.AssistantEnabled() {
		c, err := gemini.NewCompleter(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel}, log)
		if err != nil {
			return err
		}
		completer = c
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, assistant disabled")
	}

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(store)
	ledgerUC := usecase.NewLedgerUseCase(store, beneficiaryRepo)
	paymentUC := usecase.NewPaymentUseCase(store, log)
	settlementUC := usecase.NewSettlementUseCase(store, log)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, postgresRepo.NewLedgerRepository(pool))
	entryUC := usecase.NewEntryUseCase(accountRepo, txnRepo, entryRepo)
	beneficiaryUC := usecase.NewBeneficiaryUseCase(beneficiaryRepo, idGen)
	investmentUC := usecase.NewInvestmentUseCase(txManager, portfolioRepo, market.NewCatalog(), redisRepo.NewCache(redisClient, "market"), cfg.MarketCacheTTL, idGen, log)
	checkoutUC := usecase.NewCheckoutUseCase(store, orderRepo, gateway, usecase.CheckoutSecrets{
		KeySecret:     cfg.RazorpayKeySecret,
		WebhookSecret: cfg.RazorpayWebhookSecret,
	}, log)
	assistantUC := usecase.NewAssistantUseCase(completer, chatRepo, accountRepo, m, log).
		WithHelp(postgresRepo.NewHelpRepository(pool))
	userUC := usecase.NewUserUseCase(userRepo, auditRepo, idGen)
	adminUC := usecase.NewAdminUseCase(postgresRepo.NewStatsRepository(pool), userUC, auditRepo, idGen)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	var verifier middleware.TokenVerifier
	if cfg.AuthEnabled {
		verifier = jwtManager
	} else {
		log.Warn().Msg("authentication disabled, trusting identity headers")
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:             log,
		Metrics:            m,
		Gatherer:           registry,
		TokenVerifier:      verifier,
		RateLimiter:        rateLimiter,
		CORSOrigins:        cfg.CORSOrigins,
		IdempotencyStore:   redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:     cfg.IdempotencyTTL,
		AuthHandler:        handler.NewAuthHandler(userUC, jwtManager),
		AccountHandler:     handler.NewAccountHandler(accountUC, ledgerUC),
		TransferHandler:    handler.NewTransferHandler(ledgerUC),
		EntryHandler:       handler.NewEntryHandler(entryUC),
		PaymentHandler:     handler.NewPaymentHandler(paymentUC),
		BeneficiaryHandler: handler.NewBeneficiaryHandler(beneficiaryUC),
		InvestmentHandler:  handler.NewInvestmentHandler(investmentUC),
		CheckoutHandler:    handler.NewCheckoutHandler(checkoutUC, cfg.RazorpayKeyID),
		AssistantHandler:   handler.NewAssistantHandler(assistantUC),
		AdminHandler:       handler.NewAdminHandler(adminUC),
		LedgerHandler:      handler.NewLedgerHandler(settlementUC, reconciliationUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})),
	})

	sink, err := newOutboxSink(cfg.OutboxSink, redisClient, log)
	if err != nil {
		return err
	}

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  sink,
		Metrics:    m,
		Logger:     log,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	runner := worker.NewRunner(log, m,
		worker.Job{
			Name:     "settlement_expiry",
			Interval: cfg.SettlementInterval,
			Run: func(ctx context.Context) error {
				n, err := settlementUC.ExpireStalePending(ctx, cfg.SettlementPendingTimeout)
				if n > 0 {
					log.Info().Int("expired", n).Msg("stale pending transactions failed")
				}
				return err
			},
		},
		worker.Job{
			Name:     "scheduled_payments",
			Interval: cfg.SchedulerInterval,
			Run: func(ctx context.Context) error {
				res, err := paymentUC.ExecuteDuePayments(ctx, time.Now().UTC())
				if res.Executed+res.Failed > 0 {
					log.Info().
						Int("executed", res.Executed).
						Int("failed", res.Failed).
						Int("rescheduled", res.Scheduled).
						Msg("scheduled payments run")
				}
				return err
			},
		},
		worker.Job{
			Name:     "outbox_publisher",
			Interval: publisher.Interval(),
			Run:      publisher.RunOnce,
		},
		worker.Job{
			Name:     "rate_limiter_cleanup",
			Interval: rateLimiterIdle,
			Run: func(context.Context) error {
				rateLimiter.CleanupLimiters(rateLimiterIdle)
				return nil
			},
		},
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return runner.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// validateConfig rejects settings that would only fail after the server has
// connected to its backends.
func validateConfig(cfg *config.Config) error {
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	if _, err := newOutboxSink(cfg.OutboxSink, nil, zerolog.Nop()); err != nil {
		return err
	}
	if cfg.RazorpayKeyID != "" && cfg.RazorpayWebhookSecret == "" {
		return errors.New("RAZORPAY_WEBHOOK_SECRET is required when the payment gateway is configured")
	}
	return nil
}

func newOutboxSink(kind string, client goredis.UniversalClient, log zerolog.Logger) (eventpublisher.Publisher, error) {
	switch kind {
	case "log":
		return eventpublisher.NewLogPublisher(log.With().Str("component", "outbox").Logger()), nil
	case "redis":
		return eventpublisher.NewRedisPublisher(client), nil
	}
	return nil, fmt.Errorf("unknown OUTBOX_SINK %q", kind)
}
