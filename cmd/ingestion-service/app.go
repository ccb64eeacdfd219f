package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/regwatch/regwatch/internal/alerts"
	"github.com/regwatch/regwatch/internal/catalog"
	"github.com/regwatch/regwatch/internal/config"
	"github.com/regwatch/regwatch/internal/connector"
	"github.com/regwatch/regwatch/internal/constants"
	"github.com/regwatch/regwatch/internal/history"
	"github.com/regwatch/regwatch/internal/httpapi"
	"github.com/regwatch/regwatch/internal/ingestion"
	"github.com/regwatch/regwatch/internal/logger"
	"github.com/regwatch/regwatch/internal/storage"
	"github.com/regwatch/regwatch/pkg/bootstrap"
	"github.com/regwatch/regwatch/pkg/cel"
	"github.com/regwatch/regwatch/pkg/circuitbreaker"
	"github.com/regwatch/regwatch/pkg/health"
	"github.com/regwatch/regwatch/pkg/metrics"
	"github.com/regwatch/regwatch/pkg/middleware"
	"github.com/regwatch/regwatch/pkg/ratelimit"
	"github.com/regwatch/regwatch/pkg/tracing"
)

const migrationsPath = "migrations/postgres"

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	gateway     *storage.Gateway

	server         *http.Server
	router         *gin.Engine
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "ingestion-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabase(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.config.Database.RunMigrations {
		if err := bootstrap.RunMigrations(db, migrationsPath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.logger.Info("Database migrations applied")
	}

	gateway := storage.NewGateway(db, a.logger)
	if a.config.CircuitBreaker.Enabled {
		cbCfg := circuitbreaker.DefaultConfig("postgres")
		cbCfg.MaxRequests = a.config.CircuitBreaker.MaxRequests
		if a.config.CircuitBreaker.Interval > 0 {
			cbCfg.Interval = a.config.CircuitBreaker.Interval
		}
		if a.config.CircuitBreaker.Timeout > 0 {
			cbCfg.Timeout = a.config.CircuitBreaker.Timeout
		}
		gateway = gateway.WithCircuitBreaker(circuitbreaker.NewWrapper(cbCfg))
		a.logger.Info("Circuit breaker enabled for storage gateway")
	}
	a.gateway = gateway

	return nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("ingestion-service"))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	if a.config.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.RateLimit.RPS,
			Burst:           a.config.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.RateLimit.MaxAge) * time.Second,
		}
		router.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.Infow("Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	celEvaluator, err := cel.NewEvaluator()
	if err != nil {
		return fmt.Errorf("failed to init CEL evaluator: %w", err)
	}

	alertsRepo := alerts.NewRepository()
	ruleCache := alerts.NewRuleCache()
	alertsService := alerts.NewService(a.gateway, alertsRepo, ruleCache, celEvaluator, a.logger)

	ingestionRepo := ingestion.NewRepository()
	engine := ingestion.NewEngine(a.gateway, ingestionRepo, alertsService, a.logger)

	historyReader := history.NewReader(a.gateway)
	catalogReader := catalog.NewReader(a.gateway)

	fileConnector := connector.NewFileSource(a.config.Connector.BulkPath, a.config.Connector.RecentPath)

	redactDetail := !a.config.IsDevelopment()

	handlers := httpapi.Handlers{
		Ingest:  httpapi.NewIngestHandler(engine, fileConnector, a.logger, redactDetail),
		Alerts:  httpapi.NewAlertsHandler(alertsService, historyReader, a.logger, redactDetail),
		History: httpapi.NewHistoryHandler(historyReader, a.logger, redactDetail),
		Records: httpapi.NewRecordsHandler(catalogReader, a.logger, redactDetail),
	}

	metrics.RegisterIngestionMetrics()
	metrics.RegisterAlertMetrics()
	metrics.RegisterStorageMetrics()
	metrics.RegisterHTTPMetrics()
	if a.config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))

	httpapi.NewRouter(router, handlers, healthRegistry)

	a.router = router
	return nil
}

func (a *App) initServer() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeoutSeconds,
		WriteTimeout: a.config.Server.WriteTimeoutSeconds,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return a.Shutdown(ctx)
	case err := <-errChan:
		return err
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.gateway != nil {
		if err := a.gateway.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("storage gateway shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(ctx, a.db)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
