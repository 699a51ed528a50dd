package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "tailtown/docs"
	"tailtown/internal/caching"
	"tailtown/internal/common"
	"tailtown/internal/config"
	"tailtown/internal/handlers"
	"tailtown/internal/jobs"
	"tailtown/internal/jobs/background"
	"tailtown/internal/logger"
	"tailtown/internal/middleware"
	"tailtown/internal/repositories"
	"tailtown/internal/services"
	"tailtown/pkg/database"
)

const version = "1.0.0"

//	@title			Tailtown API
//	@version		1.0
//	@description	Multi-tenant pet resort management: customers, pets, reservations, pricing and invoicing.
//	@BasePath		/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			return err
		}
	}

	redisClient := caching.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()
	cacheSvc := caching.NewRedisCacheService(redisClient, log)

	minioSvc, err := services.NewMinioService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		return fmt.Errorf("failed to initialize MinIO: %w", err)
	}
	if err := minioSvc.EnsureBucketExists(ctx); err != nil {
		log.Warn("Object storage bucket unavailable, uploads will fail", zap.String("bucket", cfg.MinioBucket), zap.Error(err))
	}

	// Repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	userRepo := repositories.NewUserRepo(pool)
	customerRepo := repositories.NewCustomerRepo(pool)
	petRepo := repositories.NewPetRepo(pool)
	productRepo := repositories.NewProductRepo(pool)
	announcementRepo := repositories.NewAnnouncementRepo(pool)
	resourceRepo := repositories.NewResourceRepo(pool)
	serviceRepo := repositories.NewServiceRepo(pool)
	reservationRepo := repositories.NewReservationRepo(pool)
	ruleRepo := repositories.NewRuleRepo(pool)
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	reportRepo := repositories.NewReportRepo(pool)

	// Services
	tenantSvc := services.NewTenantService(tenantRepo, cacheSvc, cfg.TenantCacheTTL, log)
	authSvc := services.NewAuthService(userRepo, cacheSvc, cfg.JWTSecret, cfg.JWTAccessTTL, log)
	staffSvc := services.NewStaffService(userRepo)
	customerSvc := services.NewCustomerService(customerRepo)
	petSvc := services.NewPetService(petRepo, customerRepo, minioSvc, log)
	productSvc := services.NewProductService(productRepo)
	announcementSvc := services.NewAnnouncementService(announcementRepo)
	resourceSvc := services.NewResourceService(resourceRepo)
	catalogSvc := services.NewCatalogService(serviceRepo)
	availabilitySvc := services.NewAvailabilityService(resourceRepo, reservationRepo, tenantRepo, serviceRepo, ruleRepo,
		cfg.AlternativeSearchDays, cfg.AlternativeMaxResults, log)
	pricingSvc := services.NewPricingService(ruleRepo, tenantRepo, serviceRepo, resourceRepo, reservationRepo, log)
	invoiceSvc := services.NewInvoiceService(invoiceRepo, reservationRepo, serviceRepo, customerRepo, tenantRepo, minioSvc, log)
	reservationSvc := services.NewReservationService(reservationRepo, customerRepo, petRepo, serviceRepo, tenantRepo, ruleRepo,
		pricingSvc, invoiceSvc, log)
	reportSvc := services.NewReportService(reportRepo, tenantRepo)

	// Imports run on the asynq queue when enabled, inline otherwise.
	var enqueuer services.ImportEnqueuer
	var queueServer *asynq.Server
	if cfg.AsynqEnabled {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		queueClient := asynq.NewClient(redisOpt)
		defer queueClient.Close()
		enqueuer = jobs.NewEnqueuer(queueClient)
		queueServer = jobs.NewServer(redisOpt, cfg.AsynqConcurrency, log)
	}
	importSvc := services.NewImportService(customerRepo, petRepo, resourceRepo, serviceRepo, reservationRepo, tenantRepo,
		cacheSvc, minioSvc, enqueuer, log)
	if queueServer != nil {
		mux := jobs.NewServeMux(jobs.NewImportWorker(importSvc, log))
		if err := queueServer.Start(mux); err != nil {
			return fmt.Errorf("failed to start import worker: %w", err)
		}
		defer queueServer.Shutdown()
	}

	if n, err := tenantSvc.WarmCache(ctx); err != nil {
		log.Warn("Tenant cache warmup failed", zap.Error(err))
	} else {
		log.Info("Tenant cache warmed", zap.Int("tenants", n))
	}

	// Background jobs
	maintenance := jobs.NewMaintenance(tenantRepo, reservationSvc, tenantSvc, cfg.PendingExpiry, log)
	scheduler, err := background.NewJobScheduler(maintenance, background.DefaultIntervals, log)
	if err != nil {
		return err
	}
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	if err := scheduler.AddJob("rate-limiter-cleanup", 10*time.Minute, func() {
		rateLimiter.Cleanup(30 * time.Minute)
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error("Failed to stop job scheduler", zap.Error(err))
		}
	}()

	var jwks *keyfunc.JWKS
	if cfg.JWKSURL != "" {
		jwks, err = keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval: time.Hour,
			RefreshErrorHandler: func(err error) {
				log.Error("JWKS refresh failed", zap.Error(err))
			},
		})
		if err != nil {
			return fmt.Errorf("failed to load JWKS: %w", err)
		}
		defer jwks.EndBackground()
	}

	health := handlers.NewHealthHandlers(version)
	health.Register("database", pool, true)
	health.Register("redis", cacheSvc, true)
	health.Register("storage", handlers.PingFunc(minioSvc.EnsureBucketExists), false)

	e := echo.New()
	e.HideBanner = true
	e.Validator = common.NewRequestValidator()
	e.HTTPErrorHandler = common.NewHTTPErrorHandler(log, logger.FromEcho)

	e.Use(middleware.RequestID(log))
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization,
			middleware.TenantHeader, middleware.RequestIDHeader},
	}))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	handlers.Register(e, &handlers.Handlers{
		Health:        health,
		Auth:          handlers.NewAuthHandlers(authSvc, staffSvc),
		Tenants:       handlers.NewTenantHandlers(tenantSvc),
		Customers:     handlers.NewCustomerHandlers(customerSvc),
		Pets:          handlers.NewPetHandlers(petSvc),
		Staff:         handlers.NewStaffHandlers(staffSvc),
		Products:      handlers.NewProductHandlers(productSvc),
		Announcements: handlers.NewAnnouncementHandlers(announcementSvc),
		Resources:     handlers.NewResourceHandlers(resourceSvc),
		Services:      handlers.NewServiceHandlers(catalogSvc),
		Reservations:  handlers.NewReservationHandlers(reservationSvc),
		Availability:  handlers.NewAvailabilityHandlers(availabilitySvc),
		Pricing:       handlers.NewPricingHandlers(pricingSvc),
		Invoices:      handlers.NewInvoiceHandlers(invoiceSvc),
		Imports:       handlers.NewImportHandlers(importSvc),
		Reports:       handlers.NewReportHandlers(reportSvc),
		Jobs:          handlers.NewJobHandlers(maintenance, scheduler),
	}, handlers.RouteOptions{
		Tenants:           middleware.NewTenantMiddleware(tenantSvc, cfg.BaseDomain),
		RateLimiter:       rateLimiter,
		Tokens:            authSvc,
		JWKS:              jwks,
		Versions:          middleware.NewVersionMiddleware("v1"),
		AdminAPIKey:       cfg.AdminAPIKey,
		ServeCustomers:    cfg.ServesCustomers(),
		ServeReservations: cfg.ServesReservations(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("Tailtown server starting",
			zap.String("version", version),
			zap.String("port", cfg.Port),
			zap.String("mode", cfg.ServiceMode),
			zap.String("environment", cfg.Environment))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
