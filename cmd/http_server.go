package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/expense-approval/internal"
	"github.com/frahmantamala/expense-approval/internal/approval"
	approvalPostgres "github.com/frahmantamala/expense-approval/internal/approval/postgres"
	"github.com/frahmantamala/expense-approval/internal/approvalrule"
	rulePostgres "github.com/frahmantamala/expense-approval/internal/approvalrule/postgres"
	"github.com/frahmantamala/expense-approval/internal/auth"
	authPostgres "github.com/frahmantamala/expense-approval/internal/auth/postgres"
	"github.com/frahmantamala/expense-approval/internal/category"
	categoryPostgres "github.com/frahmantamala/expense-approval/internal/category/postgres"
	"github.com/frahmantamala/expense-approval/internal/company"
	companyPostgres "github.com/frahmantamala/expense-approval/internal/company/postgres"
	"github.com/frahmantamala/expense-approval/internal/core/database"
	"github.com/frahmantamala/expense-approval/internal/core/events"
	"github.com/frahmantamala/expense-approval/internal/currency"
	"github.com/frahmantamala/expense-approval/internal/expense"
	expensePostgres "github.com/frahmantamala/expense-approval/internal/expense/postgres"
	"github.com/frahmantamala/expense-approval/internal/notification"
	"github.com/frahmantamala/expense-approval/internal/report"
	reportPostgres "github.com/frahmantamala/expense-approval/internal/report/postgres"
	"github.com/frahmantamala/expense-approval/internal/transport"
	"github.com/frahmantamala/expense-approval/internal/transport/rest"
	"github.com/frahmantamala/expense-approval/internal/transport/swagger"
	"github.com/frahmantamala/expense-approval/internal/user"
	userPostgres "github.com/frahmantamala/expense-approval/internal/user/postgres"
	"github.com/frahmantamala/expense-approval/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const openAPIPath = "api/openapi.yml"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *gorm.DB
	SQL        *sql.DB
	Redis      *redis.Client
	Bus        *events.EventBus
	Dispatcher *notification.Dispatcher
	Router     *chi.Mux
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.close()
			os.Exit(1)
		}
	}

	deps.close()
	deps.Logger.Info("Server stopped")
}

// close drains in-flight event handlers before closing the stores.
func (d *Dependencies) close() {
	d.Bus.Wait()
	if d.Dispatcher != nil {
		d.Dispatcher.Shutdown()
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.SQL.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(cfg)
	lg := logger.LoggerWrapper()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	readDB, err := database.ReadModel(db, "pgx")
	if err != nil {
		return nil, err
	}

	rdb, err := database.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		lg.Warn("redis unavailable, exchange rates will not be cached", "error", err)
		rdb = nil
	}

	spec, err := swagger.Load(ctx, openAPIPath)
	if err != nil {
		lg.Warn("openapi document not served", "path", openAPIPath, "error", err)
		spec = nil
	}

	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		SQL:    sqlDB,
		Redis:  rdb,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
		Logger: lg,
	}

	if cfg.Notification.WebhookURL != "" {
		deps.Dispatcher = notification.NewDispatcher(cfg.Notification, lg)
		deps.Dispatcher.Register(deps.Bus)
	}

	rest.RegisterAllRoutes(deps.Router, buildHandlers(deps, readDB), rest.Options{
		DB:             sqlDB,
		Redis:          rdb,
		Spec:           spec,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return deps, nil
}

func buildHandlers(deps *Dependencies, sqlxDB *sqlx.DB) rest.Handlers {
	cfg, db, lg := deps.Config, deps.DB, deps.Logger
	txm := database.NewTxManager(db, lg)
	base := transport.NewBaseHandler(lg)

	users := userPostgres.NewUserRepository(db)
	companySvc := company.NewService(companyPostgres.NewCompanyRepository(db), users, txm, lg)

	tokens := auth.NewJWTTokenGenerator(cfg.Security)
	authSvc := auth.NewService(authPostgres.NewCredentialRepository(sqlxDB), companySvc, tokens, cfg.Security, lg)

	userSvc := user.NewService(users, authSvc, lg)
	categorySvc := category.NewService(categoryPostgres.NewCategoryRepository(db), lg)
	ruleSvc := approvalrule.NewService(rulePostgres.NewRuleRepository(db), companySvc, userSvc, categorySvc, txm, lg)

	var rates currency.RateProvider = currency.NewClient(cfg.Currency, lg)
	if deps.Redis != nil {
		rates = currency.NewCachedProvider(rates, currency.NewRedisCache(deps.Redis), cfg.Currency.CacheTTL, lg)
	}

	normalizer := currency.NewNormalizer(rates, lg)

	expenses := expensePostgres.NewExpenseRepository(db)
	approvalSvc := approval.NewService(approval.Dependencies{
		Approvals: approvalPostgres.NewApprovalRepository(db),
		Expenses:  expenses,
		Rules:     ruleSvc,
		Companies: companySvc,
		Converter: normalizer,
		Inbox:     approvalPostgres.NewInboxReader(sqlxDB),
		Audit:     approval.NewAuditTrail(approvalPostgres.NewAuditRepository(db), lg),
		Publisher: deps.Bus,
		Tx:        txm,
		Logger:    lg,
	})
	expenseSvc := expense.NewService(expenses, categorySvc, approvalSvc, lg)
	reportSvc := report.NewService(reportPostgres.NewReportRepository(sqlxDB), lg)

	return rest.Handlers{
		Auth:         auth.NewHandler(base, authSvc),
		RBAC:         auth.NewRBACAuthorization(base, lg),
		Company:      company.NewHandler(base, companySvc),
		User:         user.NewHandler(base, userSvc),
		Category:     category.NewHandler(base, categorySvc),
		Expense:      expense.NewHandler(base, expenseSvc),
		ApprovalRule: approvalrule.NewHandler(base, ruleSvc),
		Approval:     approval.NewHandler(base, approvalSvc),
		Report:       report.NewHandler(base, reportSvc),
		Currency:     currency.NewHandler(base, normalizer),
	}
}
