package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sekolah-records-api/api/swagger"
	"github.com/noah-isme/sekolah-records-api/internal/handler"
	"github.com/noah-isme/sekolah-records-api/internal/repository"
	"github.com/noah-isme/sekolah-records-api/internal/server"
	"github.com/noah-isme/sekolah-records-api/internal/service"
	"github.com/noah-isme/sekolah-records-api/pkg/cache"
	"github.com/noah-isme/sekolah-records-api/pkg/calendar"
	"github.com/noah-isme/sekolah-records-api/pkg/config"
	"github.com/noah-isme/sekolah-records-api/pkg/database"
	"github.com/noah-isme/sekolah-records-api/pkg/jobs"
	"github.com/noah-isme/sekolah-records-api/pkg/logger"
	"github.com/noah-isme/sekolah-records-api/pkg/storage"
)

// @title Sekolah Records API
// @version 1.0.0
// @description Student and staff records with derived age and tenure, photos, exports and a dashboard.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logr.Info("database schema applied")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo.Enabled())
	validate := validator.New()
	calc := calendar.NewCalculator(nil, cfg.Location(), logr)
	exports := service.NewExportService(nil, nil, nil)

	store, err := storage.NewLocalStorage(cfg.Photos.StorageDir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Photos.SignedURLSecret, cfg.Photos.SignedURLTTL)

	var photos *service.PhotoService
	cleanup := jobs.NewQueue(service.PhotoCleanupJob, func(ctx context.Context, job jobs.Job) error {
		return photos.HandleCleanup(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Photos.CleanupWorkers,
		MaxRetries: cfg.Photos.CleanupRetries,
		RetryDelay: cfg.Photos.CleanupRetryDelay,
		Logger:     logr,
	})
	photos = service.NewPhotoService(store, signer, cleanup, metrics, logr, service.PhotoServiceConfig{
		MaxFileSize: cfg.Photos.MaxFileSizeBytes,
		APIPrefix:   cfg.APIPrefix,
	})
	cleanup.Start(ctx)
	defer cleanup.Stop()

	dashboardSvc := service.NewDashboardService(repository.NewDashboardRepository(db), cacheSvc, metrics, cfg.Dashboard.CacheTTL, logr)
	studentSvc := service.NewStudentService(repository.NewStudentRepository(db), photos, calc, exports, dashboardSvc, metrics, validate, logr)
	staffSvc := service.NewStaffService(repository.NewStaffRepository(db), photos, calc, exports, dashboardSvc, metrics, validate, logr)
	authSvc := service.NewAuthService(repository.NewUserRepository(db), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.FullName); err != nil {
		return err
	}

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo.Ping
	}

	router := server.NewRouter(server.RouterConfig{
		APIPrefix:          cfg.APIPrefix,
		AllowedOrigins:     cfg.CORS.AllowedOrigins,
		EnableDocs:         cfg.Env != config.EnvProduction,
		MaxMultipartMemory: cfg.Photos.MaxFileSizeBytes + 1<<20,
	}, server.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Students:  handler.NewStudentHandler(studentSvc),
		Staff:     handler.NewStaffHandler(staffSvc),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Metrics:   handler.NewMetricsHandler(metrics, checks),
	}, authSvc, metrics, logr)

	logr.Info("configuration loaded", zap.String("env", cfg.Env), zap.String("timezone", calc.Location().String()), zap.Time("today", calc.Today()))
	return server.Run(ctx, fmt.Sprintf(":%d", cfg.Port), router, 15*time.Second, logr)
}
