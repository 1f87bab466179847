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
	"github.com/google/uuid"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/backend/internal/application/alert"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	notificationapp "github.com/storefront/backend/internal/application/notification"
	orderapp "github.com/storefront/backend/internal/application/order"
	reportapp "github.com/storefront/backend/internal/application/report"
	stockapp "github.com/storefront/backend/internal/application/stock"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/mailer"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	otelProvider, err := telemetry.New(ctx, telemetry.Config{
		Enabled:       cfg.Telemetry.Enabled,
		Endpoint:      cfg.Telemetry.Endpoint,
		SamplingRatio: cfg.Telemetry.SamplingRatio,
		ServiceName:   cfg.App.Name,
		Insecure:      cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("init telemetry failed", zap.Error(err))
	}
	log = otelProvider.InstrumentLogger(log)

	gormLog := logger.NewGormLogger(log, gormlogger.Warn)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("connect database failed", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if err := telemetry.RegisterDBTracing(db.DB, cfg.Telemetry.Enabled, log); err != nil {
		log.Fatal("register database tracing failed", zap.Error(err))
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	stockRepo := persistence.NewGormStockRecordRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus carries stock threshold events to the alert handler
	bus := event.NewInMemoryEventBus(log)

	idempotencyStore := cache.NewIdempotencyStore(cfg.Redis, log)

	outbound := mailer.NewLogMailer(cfg.Mail.From, log)
	var mail mailer.Mailer = outbound
	var asyncMail *mailer.AsyncMailer
	if cfg.Mail.Enabled {
		asyncMail = mailer.NewAsyncMailer(outbound, log)
		mail = asyncMail
	}

	// Application services
	checkoutService := checkoutapp.NewService(txScope, productRepo, cartRepo, stockRepo, log)
	checkoutService.SetEventPublisher(bus)
	checkoutService.SetMailer(mail)
	checkoutService.SetIdempotencyStore(idempotencyStore)
	checkoutService.SetRetryPolicy(cfg.Checkout.MaxAttempts, cfg.Checkout.RetryDelay)

	stockService := stockapp.NewService(stockRepo, productRepo, log)
	stockService.SetEventPublisher(bus)

	orderService := orderapp.NewService(orderRepo, log)
	orderService.SetEventPublisher(bus)

	notificationService := notificationapp.NewService(notificationRepo, log)
	reportService := reportapp.NewService(orderRepo, stockRepo, log)

	// Alert pipeline: threshold events become deduplicated notifications.
	// The idempotent wrapper drops redelivered events.
	lowStockHandler := alert.NewLowStockHandler(
		notificationRepo,
		productRepo,
		alert.NewStaticAdminDirectory(parseAdminIDs(cfg.Alert.AdminIDs, log)),
		log,
	).WithMailer(mail)
	bus.Subscribe(event.NewIdempotentHandler(lowStockHandler, idempotencyStore, log))

	if err := bus.Start(ctx); err != nil {
		log.Fatal("start event bus failed", zap.Error(err))
	}

	engine := buildEngine(cfg, log, db)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewCheckoutHandler(checkoutService)).
		Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewStockHandler(stockService)).
		Register(handler.NewNotificationHandler(notificationService)).
		Register(handler.NewReportHandler(reportService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("event bus stop failed", zap.Error(err))
	}
	if asyncMail != nil {
		asyncMail.Wait()
	}
	if err := otelProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// buildEngine assembles the gin engine with the middleware stack and the
// health endpoint. Route registration happens through the router.
func buildEngine(cfg *config.Config, log *zap.Logger, db *persistence.Database) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("set trusted proxies failed", zap.Error(err))
	}

	engine.Use(logger.RequestID())
	for _, h := range middleware.Tracing(cfg.App.Name, cfg.Telemetry.Enabled) {
		engine.Use(h)
	}
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/health", healthHandler(db))

	return engine
}

// healthHandler reports readiness. A failed database ping degrades the
// status so load balancers stop routing here.
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// parseAdminIDs filters the configured recipient list down to valid UUIDs
func parseAdminIDs(raw []string, log *zap.Logger) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			log.Warn("skipping invalid admin id", zap.String("id", s))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
