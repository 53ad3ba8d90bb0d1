package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/lib/pq" // PostgreSQL driver

	"postrelay/internal/config"
	"postrelay/internal/constants"
	"postrelay/internal/dedup"
	"postrelay/internal/delivery"
	"postrelay/internal/logger"
	"postrelay/internal/postback"
	"postrelay/internal/profile"
	"postrelay/internal/ratelimit"
	"postrelay/internal/routing"
	"postrelay/internal/stream"
	"postrelay/pkg/bootstrap"
	"postrelay/pkg/health"
	"postrelay/pkg/metrics"
	"postrelay/pkg/middleware"
	"postrelay/pkg/migrations"
	"postrelay/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	dbConnector    *bootstrap.DatabaseConnector
	db             *sql.DB
	redisClient    *redis.Client
	mongoClient    *mongo.Client
	dedupService   *dedup.Service
	limiter        *ratelimit.Limiter
	publisher      *stream.KafkaPublisher
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
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	if err := a.initServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	tp, err := tracing.Init(a.config.Tracing, "ingest-service")
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
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

	if a.config.Deduplication.Backend != "memory" {
		redisClient, err := a.dbConnector.InitRedis(ctx)
		if err != nil {
			return err
		}
		a.redisClient = redisClient
	}

	if a.config.Database.MongoDB.URI != "" {
		mongoClient, err := a.dbConnector.InitMongoDB(ctx)
		if err != nil {
			a.logger.WarnwCtx(ctx, "MongoDB connection failed, raw payload archiving disabled", "error", err)
		} else {
			a.mongoClient = mongoClient
		}
	}

	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware("ingest-service"))
	}

	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.RequestID())

	profileRepo := profile.NewRepository(a.db)
	routeRepo := routing.NewRepository(a.db)
	eventStore := postback.NewEventStore(a.db)

	a.dedupService = a.buildDedupService(ctx)
	a.limiter = ratelimit.NewLimiter(a.config.Ingest.DefaultRateLimitRPS)

	sink := delivery.NewTelegramSink(a.config.Delivery)
	adapter := delivery.NewAdapter(sink, a.config.CircuitBreaker)

	opts := postback.PipelineOptions{
		Dedup:     a.dedupService,
		Limiter:   a.limiter,
		Routes:    routeRepo,
		Events:    eventStore,
		Deliverer: adapter,
		Logger:    a.logger,
		Config:    a.config.Ingest,
	}

	if a.mongoClient != nil {
		opts.Archiver = postback.NewMongoArchiver(
			a.mongoClient,
			a.config.Database.MongoDB.Database,
			a.config.Database.MongoDB.Collection,
		)
	}

	if a.config.Stream.Enabled {
		a.publisher = stream.NewKafkaPublisher(a.config.Stream.Kafka, a.logger)
		opts.Publisher = a.publisher
		a.logger.InfowCtx(ctx, "Event stream publisher initialized",
			"brokers", a.config.Stream.Kafka.Brokers,
			"topic", a.config.Stream.Kafka.Topic,
		)
	}

	pipeline := postback.NewPipeline(opts)
	handler := postback.NewHandler(profileRepo, pipeline, a.logger)
	handler.RegisterRoutes(router)

	metrics.RegisterIngestMetrics()
	metrics.RegisterCircuitBreakerMetrics()
	if a.config.Stream.Enabled {
		metrics.RegisterStreamMetrics()
	}

	healthRegistry := health.NewRegistry()
	healthRegistry.Register(health.NewPostgresChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}
	if a.mongoClient != nil {
		healthRegistry.Register(health.NewMongoChecker(a.mongoClient))
	}

	router.GET("/health/live", healthRegistry.LivenessHandler())
	router.GET("/health/ready", healthRegistry.ReadinessHandler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) buildDedupService(ctx context.Context) *dedup.Service {
	if a.config.Deduplication.Backend == "memory" {
		a.logger.InfowCtx(ctx, "Using in-memory deduplication cache",
			"max_keys_per_profile", a.config.Deduplication.MaxKeysPerProfile,
		)
		repo := dedup.NewMemoryRepository(a.config.Deduplication.MaxKeysPerProfile)
		return dedup.NewService(repo, a.config.Deduplication, a.logger)
	}

	var repo dedup.Repository = dedup.NewRedisRepository(a.redisClient)
	if a.config.CircuitBreaker.Enabled {
		repo = dedup.NewCircuitBreakerRepository(repo, a.config.CircuitBreaker)
	}
	return dedup.NewService(repo, a.config.Deduplication, a.logger)
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

	if a.dedupService != nil {
		a.dedupService.StopCacheMetricsUpdater()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher close error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db, a.mongoClient)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
