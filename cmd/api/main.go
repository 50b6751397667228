package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/florista/backend/internal/auth"
	"github.com/florista/backend/internal/catalog"
	"github.com/florista/backend/internal/config"
	"github.com/florista/backend/internal/middleware"
	"github.com/florista/backend/internal/notify"
	"github.com/florista/backend/internal/orders"
	"github.com/florista/backend/internal/telemetry"
	"github.com/florista/backend/pkg/logger"
)

func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("starting order backend",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	ctx := context.Background()

	tp, err := telemetry.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		appLogger.Fatal("failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Warn("error shutting down tracer", zap.Error(err))
		}
	}()

	mp, err := telemetry.InitMetrics(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		appLogger.Fatal("failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			appLogger.Warn("error shutting down meter", zap.Error(err))
		}
	}()

	dbPool, err := initDB(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	// Catalog
	catalogStore := catalog.NewPostgresStore(dbPool)
	var catalogCache catalog.Cache
	if cfg.UseCache {
		catalogCache = catalog.NewCache(catalog.RedisOptions{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, appLogger)
	}
	catalogUseCase := catalog.NewUseCase(catalogStore, catalogCache,
		time.Duration(cfg.CacheTTL)*time.Second, appLogger)
	catalogHandler := catalog.NewHandler(catalogUseCase, appLogger)

	// Order engine
	var events orders.EventPublisher
	if cfg.UseKafka {
		events, err = orders.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopicOrders, appLogger)
		if err != nil {
			appLogger.Fatal("failed to create Kafka publisher", zap.Error(err))
		}
		defer events.Close()
	}

	var notifier orders.StatusNotifier
	if cfg.StatusWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.StatusWebhookURL, appLogger)
	}

	ledger := orders.NewPostgresLedger(dbPool)
	tracer := otel.Tracer(cfg.ServiceName)
	orderUseCase := orders.NewUseCase(ledger, events, notifier, tracer, appLogger).
		WithCacheInvalidator(catalogUseCase)
	orderHandler := orders.NewHandler(orderUseCase, appLogger)

	// Router
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, appLogger)
	authMW := middleware.RequireAuth(jwtManager)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())
	r.Use(logger.GinMiddleware(appLogger))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": cfg.ServiceName})
	})

	api := r.Group("/api")
	catalogHandler.RegisterRoutes(api, authMW)
	orderHandler.RegisterRoutes(api, authMW)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		appLogger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
}

func initDB(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			appLogger.Info("connected to database")
			return pool, nil
		}
		appLogger.Info("waiting for database", zap.Int("attempt", i+1))
		time.Sleep(1 * time.Second)
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after 30 attempts")
}
