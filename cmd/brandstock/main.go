package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/odyssey-erp/brandstock/internal/app"
	"github.com/odyssey-erp/brandstock/internal/audit"
	audithttp "github.com/odyssey-erp/brandstock/internal/audit/http"
	"github.com/odyssey-erp/brandstock/internal/inventory"
	"github.com/odyssey-erp/brandstock/internal/masterdata/brands"
	"github.com/odyssey-erp/brandstock/internal/masterdata/categories"
	"github.com/odyssey-erp/brandstock/internal/masterdata/products"
	mdshared "github.com/odyssey-erp/brandstock/internal/masterdata/shared"
	"github.com/odyssey-erp/brandstock/internal/masterdata/stores"
	"github.com/odyssey-erp/brandstock/internal/observability"
	"github.com/odyssey-erp/brandstock/internal/platform/cache"
	"github.com/odyssey-erp/brandstock/internal/platform/db"
	"github.com/odyssey-erp/brandstock/internal/rbac"
	"github.com/odyssey-erp/brandstock/internal/shared"
	"github.com/odyssey-erp/brandstock/internal/users"
	"github.com/odyssey-erp/brandstock/jobs"
)

func main() {
	_ = godotenv.Load() // Load .env file if it exists

	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	metrics := observability.NewMetrics()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB}
	jobsClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	usersService := users.NewService(users.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Actors: usersService, Logger: logger}

	categoryRepo := categories.NewRepository(dbpool)
	stockCache := inventory.NewCache(redisClient, cfg.LowStockCacheTTL)
	stockInvalidation := mdshared.Invalidation{Stock: stockCache, Logger: logger}

	inventoryService := inventory.NewService(inventory.ServiceDeps{
		Repo:        inventory.NewRepository(dbpool),
		Audit:       auditLogger,
		Idempotency: idempotencyStore,
		Cache:       stockCache,
		Integration: jobsClient,
		Metrics:     metrics,
		Logger:      logger,
	}, inventory.ServiceConfig{
		MaxAttempts:  cfg.MovementMaxAttempts,
		RetryBackoff: cfg.MovementRetryBackoff,
	})

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		RBACMiddleware:    rbacMiddleware,
		BrandsHandler:     brands.NewHandler(logger, brands.NewService(brands.NewRepository(dbpool)).WithInvalidation(stockInvalidation), rbacMiddleware),
		StoresHandler:     stores.NewHandler(logger, stores.NewService(stores.NewRepository(dbpool)).WithInvalidation(stockInvalidation), rbacMiddleware),
		CategoriesHandler: categories.NewHandler(logger, categories.NewService(categoryRepo), rbacMiddleware),
		ProductsHandler:   products.NewHandler(logger, products.NewService(products.NewRepository(dbpool), categoryRepo).WithInvalidation(stockInvalidation), rbacMiddleware),
		UsersHandler:      users.NewHandler(logger, usersService, rbacMiddleware),
		InventoryHandler:  inventory.NewHandler(logger, inventoryService, rbacMiddleware),
		AuditHandler:      audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
