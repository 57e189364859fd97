package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"traiteur_devis/internal/adapter/http/handlers"
	"traiteur_devis/internal/adapter/http/middleware"
	"traiteur_devis/internal/adapter/http/routes"
	"traiteur_devis/internal/adapter/persistence/memory"
	"traiteur_devis/internal/adapter/persistence/repository"
	"traiteur_devis/internal/domain/pricing"
	"traiteur_devis/internal/infrastructure/cache"
	"traiteur_devis/internal/infrastructure/config"
	"traiteur_devis/internal/infrastructure/database"
	"traiteur_devis/internal/infrastructure/llm"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/infrastructure/mail"
	"traiteur_devis/internal/infrastructure/metrics"
	"traiteur_devis/internal/infrastructure/payments"
	"traiteur_devis/internal/infrastructure/pdf"
	"traiteur_devis/internal/infrastructure/storage"
	"traiteur_devis/internal/usecase"
	"traiteur_devis/internal/usecase/interfaces"
	"traiteur_devis/internal/usecase/notification"
)

// @title           Traiteur Devis API
// @version         1.0
// @description     Quote requests, budget pricing and review, PDF delivery and deposits.

// @BasePath  /v1

const shutdownTimeout = 15 * time.Second

type repositories struct {
	orders   interfaces.IOrderRepository
	budgets  interfaces.IBudgetRepository
	deposits interfaces.IDepositRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, err := buildRouter(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to wire the application")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to startup the application")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}

func buildRouter(ctx context.Context, cfg config.Config, log *logrus.Logger) (http.Handler, error) {
	awsCfg, err := database.NewAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	repos, err := buildRepositories(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rules := pricing.DefaultRules()
	if cfg.Pricing.RulesFile != "" {
		if rules, err = pricing.LoadRules(cfg.Pricing.RulesFile); err != nil {
			return nil, err
		}
	}
	calculators := []pricing.Calculator{metrics.InstrumentCalculator(pricing.NewRuleCalculator(rules))}
	if cfg.Gemini.APIKey != "" {
		gemini, err := llm.NewGeminiClient(cfg.Gemini, &http.Client{}, log)
		if err != nil {
			return nil, err
		}
		assistant := pricing.NewAssistantCalculator(gemini, rules, pricing.WithTimeout(cfg.Gemini.Timeout))
		calculators = append(calculators, metrics.InstrumentCalculator(assistant))
	} else {
		log.Info("GEMINI_API_KEY not set, assistant pricing disabled")
	}
	defaultStrategy, err := pricing.ParseStrategy(cfg.Pricing.Strategy)
	if err != nil {
		return nil, err
	}

	var docStorage interfaces.IDocumentStorage
	s3Storage, err := storage.NewS3Storage(storage.NewS3Client(awsCfg, cfg.S3), cfg.S3, log)
	if err != nil {
		log.WithError(err).Warn("pdf storage not configured")
	} else {
		docStorage = s3Storage
	}

	mailer := metrics.InstrumentMailer(mail.NewResendMailer(cfg.Mail, &http.Client{Timeout: 15 * time.Second}, log))
	composer := notification.NewComposer(cfg.Mail.CompanyName, cfg.Mail.AdminEmail)

	var gateway interfaces.IPaymentGateway
	mpGateway, err := payments.NewMercadoPagoGateway(cfg.Payments, log)
	if err != nil {
		log.WithError(err).Warn("Mercado Pago gateway not configured")
	} else {
		gateway = mpGateway
	}

	orderUseCase := usecase.NewOrderUseCase(repos.orders, mailer, composer, log)
	budgetUseCase := usecase.NewBudgetUseCase(usecase.BudgetDeps{
		Budgets:         repos.budgets,
		Orders:          repos.orders,
		Calculators:     calculators,
		DefaultStrategy: defaultStrategy,
		Renderer:        pdf.NewRenderer(cfg.Mail.CompanyName),
		Storage:         docStorage,
		Mailer:          mailer,
		Composer:        composer,
		Log:             log,
	})
	depositUseCase := usecase.NewDepositUseCase(repos.deposits, repos.budgets, gateway, usecase.DepositSettings{
		Rate:            cfg.Payments.DepositRate,
		Sandbox:         cfg.Payments.Sandbox(),
		TestPayerEmail:  cfg.Payments.TestPayerEmail,
		TestPayerUserID: cfg.Payments.TestPayerUserID,
	}, log)

	limiter := middleware.NewRateLimiter(cfg.Limits.OrdersPerSecond, cfg.Limits.OrdersBurst, log)
	limiter.StartCleanup(time.Minute, ctx.Done())

	deps := routes.Deps{
		Orders:         handlers.NewOrderHandler(orderUseCase, log),
		Budgets:        handlers.NewBudgetHandler(budgetUseCase, log),
		Deposits:       handlers.NewDepositHandler(depositUseCase, cfg.Payments.Mock, log),
		OrderLimiter:   limiter,
		AllowedOrigins: cfg.AllowedOrigins(),
		Log:            log,
	}
	if cfg.Redis.Addr != "" {
		rdb := cache.NewRedisClient(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, idempotency keys will be ignored until it recovers")
		}
		cancel()
		deps.Idempotency = cache.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
	}

	return routes.NewRouter(deps), nil
}

func buildRepositories(ctx context.Context, cfg config.Config, log *logrus.Logger) (repositories, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("using in-memory storage, data is lost on restart")
		return repositories{
			orders:   memory.NewOrderRepository(),
			budgets:  memory.NewBudgetRepository(),
			deposits: memory.NewDepositRepository(),
		}, nil
	}

	ddb, err := database.ConnectDynamoDB(ctx, cfg.AWS)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		orders:   repository.NewOrderDynamoRepository(ddb, cfg.Tables.Orders),
		budgets:  repository.NewBudgetDynamoRepository(ddb, cfg.Tables.Budgets),
		deposits: repository.NewDepositDynamoRepository(ddb, cfg.Tables.Deposits),
	}, nil
}
