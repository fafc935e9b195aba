package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bizmanager/docs"
	"bizmanager/internal/caching"
	"bizmanager/internal/config"
	"bizmanager/internal/handlers"
	"bizmanager/internal/jobs"
	"bizmanager/internal/jobs/background"
	"bizmanager/internal/middleware"
	"bizmanager/internal/observability/tracing"
	"bizmanager/internal/repositories"
	"bizmanager/internal/services"
	"bizmanager/pkg/database"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

const (
	serviceName = "bizmanager"
	version     = "1.0.0"
)

func main() {
	configPath := flag.String("config", "", "path to an optional TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, logger, serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	checks := map[string]handlers.Pinger{"database": pool, "redis": nil, "storage": nil}

	var cache caching.CacheService
	if cfg.RedisEnabled() {
		cache = caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer cache.Close()
		checks["redis"] = cache
	} else {
		logger.Info("redis disabled: identity tokens and permissions will not be cached")
	}

	var images services.ImageStore
	if cfg.MinioEnabled() {
		images, err = services.NewMinioImageStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return fmt.Errorf("init image store: %w", err)
		}
		if err := images.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure image bucket: %w", err)
		}
		checks["storage"] = handlers.PingFunc(images.EnsureBucket)
	} else {
		logger.Info("image storage disabled: MINIO_ENDPOINT is not set")
	}

	jwks, err := middleware.NewJWKS(cfg.JWKSURL())
	if err != nil {
		return fmt.Errorf("load signing keys: %w", err)
	}
	defer jwks.EndBackground()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	businessRepo := repositories.NewBusinessRepo(pool)
	inventoryRepo := repositories.NewInventoryRepo(pool)
	permissionRepo := repositories.NewPermissionRepo(pool)

	// Services
	idp := services.NewIdentityProviderService(services.IdentityProviderConfig{
		BaseURL:      cfg.IdPBaseURL(),
		ClientID:     cfg.IdPClientID,
		ClientSecret: cfg.IdPClientSecret,
		Audience:     cfg.IdPManagementAudience,
	}, cache, logger)
	rbacService := services.NewRBACService(permissionRepo, cache, logger)
	userService := services.NewUserService(userRepo, idp, rbacService, services.RollbackPolicy{
		MaxAttempts:    cfg.RollbackMaxAttempts,
		Delay:          cfg.RollbackDelay,
		AttemptTimeout: cfg.RollbackAttemptTimeout,
		Timeout:        cfg.RollbackTimeout,
	}, logger)
	businessService := services.NewBusinessService(businessRepo, userRepo, logger)
	inventoryService := services.NewInventoryService(inventoryRepo, businessRepo, images, logger)

	// Background jobs
	alerts := jobs.NewInventoryAlertService(inventoryRepo, logger)
	var scheduler *background.JobScheduler
	if cfg.JobsEnabled {
		scheduler, err = background.NewJobScheduler(alerts, background.Config{
			ReorderCheckInterval: cfg.ReorderCheckInterval,
			ExpiryCheckInterval:  cfg.ExpiryCheckInterval,
			ExpiryWindow:         cfg.ExpiryWindow,
		}, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				logger.Warn("scheduler shutdown failed", "error", err)
			}
		}()
	}
	var jobRunner handlers.JobRunner
	if scheduler != nil {
		jobRunner = scheduler
	}

	var limiter middleware.RateLimiter
	if cache != nil {
		limiter = cache
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: allowedOrigins(cfg.ClientOriginURL),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(versionMiddleware.VersionHeader())
	e.Use(versionMiddleware.RejectUnsupported())
	e.Use(middleware.Metrics())
	e.Use(middleware.NewAuditMiddleware(logger).AuditLogger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	docs.SwaggerInfo.Version = version
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	router := &handlers.Router{
		Users:     handlers.NewUserHandlers(userService, businessService),
		Business:  handlers.NewBusinessHandlers(businessService),
		Inventory: handlers.NewInventoryHandlers(inventoryService),
		Health:    handlers.NewHealthHandlers(version, checks),
		Jobs:      handlers.NewJobHandlers(jobRunner, alerts, cfg.ExpiryWindow),
		Auth:      middleware.JWTMiddleware(jwks.Keyfunc, cfg.IdPIssuer(), cfg.IdPAudience),
		RBAC:      middleware.NewRBACMiddleware(rbacService, logger),
		Signup:    middleware.RateLimit(limiter, "signup", cfg.SignupRateLimit, time.Minute, logger),
	}
	router.Register(e)

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "version", version, "port", cfg.Port, "environment", cfg.Environment)
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// allowedOrigins splits CLIENT_ORIGIN_URL on commas. An empty value allows
// no cross-origin callers.
func allowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"null"}
	}
	return origins
}
