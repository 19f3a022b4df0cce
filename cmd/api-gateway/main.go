package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-registrar-api/api/swagger"
	"github.com/noah-isme/sma-registrar-api/internal/handler"
	"github.com/noah-isme/sma-registrar-api/internal/middleware"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/repository"
	"github.com/noah-isme/sma-registrar-api/internal/service"
	"github.com/noah-isme/sma-registrar-api/pkg/cache"
	"github.com/noah-isme/sma-registrar-api/pkg/config"
	"github.com/noah-isme/sma-registrar-api/pkg/database"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	"github.com/noah-isme/sma-registrar-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-registrar-api/pkg/middleware/requestid"
)

// @title SMA Registrar API
// @version 1.0.0
// @description Enrollment resolution and cross-collection consistency for the school registrar
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

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	backend, err := database.OpenStore(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open document store", "driver", cfg.Store.Driver, "error", err)
	}
	defer backend.Close()
	store := docstore.Instrument(backend.Store, metricsSvc.ObserveStoreOp)

	checks := map[string]handler.ReadinessCheck{"store": backend.Ping}
	var cacheRepo *repository.CacheRepository
	if cfg.Registrar.ConfigCacheEnabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, config cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}
	cacheSvc := newCacheService(cacheRepo, metricsSvc, cfg, logr)

	validate := service.NewValidator()
	enrollmentRepo := repository.NewEnrollmentRepository(store)
	studentRepo := repository.NewStudentRepository(store)
	sectionRepo := repository.NewSectionRepository(store)
	subjectRepo := repository.NewSubjectRepository(store)

	configSvc := service.NewSystemConfigService(repository.NewSystemConfigRepository(store), cacheSvc, validate, logr, service.SystemConfigServiceConfig{
		DefaultAcademicYear: cfg.Registrar.DefaultAcademicYear,
		CacheTTL:            cfg.Registrar.ConfigCacheTTL,
	})
	resolver := service.NewEnrollmentResolver(enrollmentRepo, metricsSvc, logr)
	gradeSheets := service.NewGradeSheetService(repository.NewGradeSheetRepository(store), subjectRepo, logr)

	reconciler := service.NewReconcileService(service.ReconcileConfig{
		Enabled:    cfg.Registrar.ReconcilerEnabled,
		Workers:    cfg.Registrar.ReconcilerWorkers,
		MaxRetries: cfg.Registrar.ReconcilerRetries,
		RetryDelay: cfg.Registrar.ReconcilerDelay,
	}, metricsSvc, logr)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentServiceParams{
		Enrollments: enrollmentRepo,
		Resolver:    resolver,
		Config:      configSvc,
		Subjects:    service.NewSubjectAssignmentService(subjectRepo, logr),
		GradeSheets: gradeSheets,
		Students:    studentRepo,
		Sections:    sectionRepo,
		Repairs:     reconciler,
		Metrics:     metricsSvc,
		Validator:   validate,
		Logger:      logr,
	})
	sectionSvc := service.NewSectionAssignmentService(service.SectionAssignmentParams{
		Enrollments: enrollmentRepo,
		Resolver:    resolver,
		Config:      configSvc,
		Sections:    sectionRepo,
		GradeSheets: gradeSheets,
		Repairs:     reconciler,
		Metrics:     metricsSvc,
		Logger:      logr,
	})
	studentIDSvc := service.NewStudentIDService(studentRepo, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}))
	r.Use(middleware.Metrics(metricsSvc, "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.JWT.Enabled {
		api.Use(middleware.JWT(service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)))
		api.Use(middleware.RequireRoles(models.RegistrarRoles...))
	}
	registerRoutes(api, routeHandlers{
		enrollments:  handler.NewEnrollmentHandler(enrollmentSvc),
		systemConfig: handler.NewSystemConfigHandler(configSvc),
		sections:     handler.NewSectionHandler(sectionSvc),
		studentIDs:   handler.NewStudentIDHandler(studentIDSvc),
		metrics:      metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}

type routeHandlers struct {
	enrollments  *handler.EnrollmentHandler
	systemConfig *handler.SystemConfigHandler
	sections     *handler.SectionHandler
	studentIDs   *handler.StudentIDHandler
	metrics      *handler.MetricsHandler
}

func registerRoutes(api *gin.RouterGroup, h routeHandlers) {
	api.GET("/system-config", h.systemConfig.Get)
	api.PUT("/system-config", h.systemConfig.Update)

	students := api.Group("/students/:studentId")
	students.POST("/enrollments", h.enrollments.Submit)
	students.GET("/enrollment", h.enrollments.Get)
	students.DELETE("/enrollment", h.enrollments.Delete)
	students.POST("/enroll", h.enrollments.Enroll)
	students.POST("/revoke", h.enrollments.Revoke)

	api.GET("/enrollments", h.enrollments.List)
	api.GET("/enrollments/enrolled", h.enrollments.ListEnrolled)

	api.PUT("/sections/:sectionId/students/:studentId", h.sections.Assign)
	api.DELETE("/sections/:sectionId/students/:studentId", h.sections.Unassign)

	api.GET("/student-ids/latest", h.studentIDs.Latest)
	api.PUT("/student-ids/latest", h.studentIDs.Update)

	api.GET("/metrics/summary", h.metrics.Snapshot)
}

// newCacheService avoids handing a typed nil repository to the cache service.
func newCacheService(repo *repository.CacheRepository, metrics *service.MetricsService, cfg *config.Config, logr *zap.Logger) *service.CacheService {
	if repo == nil {
		return nil
	}
	return service.NewCacheService(repo, metrics, cfg.Registrar.ConfigCacheTTL, logr, cfg.Registrar.ConfigCacheEnabled)
}
