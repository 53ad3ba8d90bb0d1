package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/lib/pq" // PostgreSQL driver

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/logger"
	"postrelay/internal/management"
	"postrelay/internal/postback"
	"postrelay/internal/profile"
	"postrelay/internal/routing"
	"postrelay/pkg/bootstrap"
	"postrelay/pkg/health"
	"postrelay/pkg/metrics"
	"postrelay/pkg/middleware"
	"postrelay/pkg/migrations"
	"postrelay/pkg/ratelimit"
	"postrelay/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	rateLimiter    *ratelimit.Middleware
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

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "management-service")
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
		sourcePath := a.config.Database.MigrationsPath
		if sourcePath == "" {
			sourcePath = "file://migrations/postgres"
		}
		if err := migrations.RunPostgres(db, sourcePath); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.logger.InfowCtx(ctx, "Database migrations applied")
	}

	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("management-service"))
	}

	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.RequestID())

	if a.config.Management.RateLimit.Enabled {
		a.rateLimiter = ratelimit.NewMiddleware(ratelimit.Config{
			Enabled:           true,
			RequestsPerSecond: a.config.Management.RateLimit.RPS,
			Burst:             a.config.Management.RateLimit.Burst,
		})
		router.Use(a.rateLimiter.Handler())
		a.logger.InfowCtx(ctx, "Rate limiting enabled",
			"rps", a.config.Management.RateLimit.RPS,
			"burst", a.config.Management.RateLimit.Burst,
		)
	}

	profileRepo := profile.NewRepository(a.db)
	routeRepo := routing.NewRepository(a.db)
	eventStore := postback.NewEventStore(a.db)

	svc := management.NewService(profileRepo, routeRepo, eventStore, a.config.Ingest, a.logger)
	handler := management.NewHandler(svc, a.logger)
	handler.RegisterRoutes(router)

	metrics.RegisterManagementMetrics()

	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewPostgresChecker(a.db))

	router.GET("/health/live", healthRegistry.LivenessHandler())
	router.GET("/health/ready", healthRegistry.ReadinessHandler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

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

	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(ctx, nil, a.db, nil)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
