package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/dispatcher"
	"github.com/expenseflow/expenseflow/internal/application/port"
	"github.com/expenseflow/expenseflow/internal/application/service"
	"github.com/expenseflow/expenseflow/internal/config"
	"github.com/expenseflow/expenseflow/internal/infrastructure/auth"
	"github.com/expenseflow/expenseflow/internal/infrastructure/export"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/exchangerate"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/lark"
	"github.com/expenseflow/expenseflow/internal/infrastructure/external/openai"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/repository"
	"github.com/expenseflow/expenseflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/expenseflow/expenseflow/internal/interfaces/http"
	"github.com/expenseflow/expenseflow/internal/receipt"
	"github.com/expenseflow/expenseflow/pkg/database"
	"github.com/expenseflow/expenseflow/pkg/utils"
)

// kvLogger adapts zap's sugared logger to the key/value Logger interface
// the application layer expects.
type kvLogger struct {
	s *zap.SugaredLogger
}

func (l kvLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l kvLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func main() {
	// Optional .env for local development; ignore absence.
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting ExpenseFlow",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		logger.Fatal("Failed to create upload directory", zap.Error(err))
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	// Repositories
	companyRepo := repository.NewCompanyRepository(sqlDB, logger)
	userRepo := repository.NewUserRepository(sqlDB, logger)
	ruleRepo := repository.NewRuleRepository(sqlDB, logger)
	expenseRepo := repository.NewExpenseRepository(sqlDB, logger)

	// External adapters
	currencyClient := exchangerate.NewClient(logger,
		exchangerate.WithRatesBaseURL(cfg.Currency.RatesBaseURL),
		exchangerate.WithCountriesBaseURL(cfg.Currency.CountriesBaseURL),
	)

	var scanner port.ReceiptScanner
	if cfg.OpenAI.APIKey != "" {
		scanner = openai.NewScanner(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Temperature, logger)
	} else {
		logger.Info("OpenAI key not configured, using keyword receipt extraction")
		scanner = receipt.NewKeywordExtractor()
	}

	var notifier port.Notifier
	if cfg.Lark.AppID != "" && cfg.Lark.AppSecret != "" {
		notifier = lark.NewNotifier(lark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
		}, logger)
	} else {
		logger.Info("Lark credentials not configured, approval notifications disabled")
		notifier = lark.NopNotifier{}
	}

	tokens := auth.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	svcLogger := kvLogger{s: logger.Sugar()}

	// Event dispatcher and subscribers
	events := dispatcher.New(svcLogger)
	defer events.Close()

	notificationService := service.NewNotificationService(expenseRepo, userRepo, notifier, svcLogger)
	notificationService.Register(events)

	// Application services
	authService := service.NewAuthService(userRepo, companyRepo, db, currencyClient, tokens, svcLogger)
	expenseService := service.NewExpenseService(expenseRepo, ruleRepo, userRepo, companyRepo, db, currencyClient, events, svcLogger)
	ruleService := service.NewRuleService(ruleRepo, userRepo, svcLogger)
	userService := service.NewUserService(userRepo, svcLogger)

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpserver.Deps{
		AuthService:    authService,
		ExpenseService: expenseService,
		RuleService:    ruleService,
		UserService:    userService,
		Tokens:         tokens,
		UserRepo:       userRepo,
		CompanyRepo:    companyRepo,
		Converter:      currencyClient,
		Countries:      currencyClient,
		Scanner:        scanner,
		PDFReader:      receipt.NewPDFReader(logger),
		Exporter:       export.NewExcelWriter(logger),
		Upload: httpserver.UploadConfig{
			Dir:          cfg.Upload.Dir,
			MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		},
		Logger: svcLogger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server exited")
}
