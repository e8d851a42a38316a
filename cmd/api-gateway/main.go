package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/acadset/course-load-api/api/swagger"
	"github.com/acadset/course-load-api/internal/handler"
	"github.com/acadset/course-load-api/internal/middleware"
	"github.com/acadset/course-load-api/internal/models"
	"github.com/acadset/course-load-api/internal/repository"
	"github.com/acadset/course-load-api/internal/service"
	"github.com/acadset/course-load-api/pkg/cache"
	"github.com/acadset/course-load-api/pkg/config"
	"github.com/acadset/course-load-api/pkg/database"
	"github.com/acadset/course-load-api/pkg/logger"
	corsmiddleware "github.com/acadset/course-load-api/pkg/middleware/cors"
	reqidmiddleware "github.com/acadset/course-load-api/pkg/middleware/requestid"
	"github.com/acadset/course-load-api/pkg/storage"
)

// @title Course Load API
// @version 1.0.0
// @description Course-instructor assignment engine with workload ledger
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	workloadRepo := repository.NewWorkloadRepository(db)
	weightRepo := repository.NewWeightRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Each allocator gets its own generator; they guard their generator with
	// their own mutex, so sharing one would race across allocators.
	var extensionRng, summerRng *rand.Rand
	if cfg.Allocation.RandomSeed != 0 {
		extensionRng = rand.New(rand.NewSource(cfg.Allocation.RandomSeed))
		summerRng = rand.New(rand.NewSource(cfg.Allocation.RandomSeed + 1))
	}
	locks := service.NewRunLocks()
	allocCfg := service.AllocatorConfig{RunTimeout: cfg.Allocation.RunTimeout}

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheRepo, cfg.Catalog.CacheTTL, validate, logr)
	positionSvc := service.NewPositionService(positionRepo, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, workloadRepo, validate, logr)
	preferenceSvc := service.NewPreferenceService(preferenceRepo, courseRepo, validate, logr)
	weightSvc := service.NewWeightService(weightRepo, cacheRepo, cfg.Weights.CacheTTL, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, nil, nil, validate, logr)

	var archiveSvc *service.ExportArchiveService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewFileStore(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare export archive", "error", err)
		}
		signer := storage.NewTokenSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL)
		archiveSvc = service.NewExportArchiveService(exportStore, signer, logr)
		archiveSvc.Start(context.Background())
		defer archiveSvc.Stop()
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if _, err := archiveSvc.Cleanup(cfg.Exports.LinkTTL); err != nil {
					logr.Sugar().Warnw("export archive cleanup failed", "error", err)
				}
			}
		}()
	}

	regularAlloc := service.NewRegularAllocatorService(courseRepo, instructorRepo, workloadRepo, assignmentRepo, db, locks, validate, logr, allocCfg)
	extensionAlloc := service.NewExtensionAllocatorService(courseRepo, instructorRepo, positionRepo, workloadRepo, assignmentRepo, db, locks, validate, logr, extensionRng, allocCfg)
	summerAlloc := service.NewSummerAllocatorService(courseRepo, instructorRepo, positionRepo, workloadRepo, assignmentRepo, db, locks, validate, logr, summerRng, allocCfg)
	preferenceAlloc := service.NewPreferenceAllocatorService(preferenceRepo, weightRepo, assignmentRepo, courseRepo, workloadRepo, assignmentRepo, db, locks, validate, logr, allocCfg)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	positionHandler := handler.NewPositionHandler(positionSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	preferenceHandler := handler.NewPreferenceHandler(preferenceSvc, instructorSvc)
	weightHandler := handler.NewWeightHandler(weightSvc)
	allocationHandler := handler.NewAllocationHandler(regularAlloc, extensionAlloc, summerAlloc, preferenceAlloc, metricsSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, archiveSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authRequired := middleware.JWT(authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleChair)
	instructorOnly := middleware.RequireRoles(models.RoleInstructor)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", authRequired, authHandler.Me)

	users := api.Group("/users", authRequired)
	{
		users.GET("", adminOnly, userHandler.List)
		// Admins see everyone; users can fetch their own record.
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", adminOnly, userHandler.Create)
	}

	courses := api.Group("/courses", authRequired)
	{
		courses.GET("", courseHandler.List)
		courses.GET("/:id", courseHandler.Get)
		courses.POST("", adminOnly, courseHandler.Create)
		courses.PUT("/:id", adminOnly, courseHandler.Update)
		courses.DELETE("/:id", adminOnly, courseHandler.Delete)
	}

	positions := api.Group("/positions", authRequired)
	{
		positions.GET("", positionHandler.List)
		positions.GET("/:name", positionHandler.Get)
		positions.POST("", adminOnly, positionHandler.Create)
		positions.PUT("/:name", adminOnly, positionHandler.Update)
		positions.DELETE("/:name", adminOnly, positionHandler.Delete)
	}

	instructors := api.Group("/instructors", authRequired)
	{
		instructors.GET("", instructorHandler.List)
		instructors.GET("/:id", instructorHandler.Get)
		instructors.GET("/:id/workload", instructorHandler.Workload)
		instructors.POST("", adminOnly, instructorHandler.Create)
		instructors.PUT("/:id", adminOnly, instructorHandler.Update)
	}

	forms := api.Group("/preference-forms", authRequired)
	{
		forms.GET("", preferenceHandler.ListForms)
		forms.GET("/:id", preferenceHandler.GetForm)
		forms.POST("", staffOnly, preferenceHandler.CreateForm)
		forms.PUT("/:id/open", staffOnly, preferenceHandler.SetFormOpen)
		forms.GET("/:id/submissions", staffOnly, preferenceHandler.ListSubmissions)
	}
	api.POST("/preferences", authRequired, instructorOnly, preferenceHandler.Submit)

	weights := api.Group("/weights", authRequired)
	{
		weights.GET("/:kind", weightHandler.Get)
		weights.GET("/:kind/table", weightHandler.Table)
		weights.PUT("", adminOnly, weightHandler.Configure)
	}

	allocations := api.Group("/allocations", authRequired, staffOnly)
	{
		allocations.POST("/manual", allocationHandler.Manual)
		allocations.POST("/common", allocationHandler.Common)
		allocations.POST("/extension", allocationHandler.Extension)
		allocations.POST("/summer", allocationHandler.Summer)
		allocations.POST("/preference", allocationHandler.Preference)
	}

	assignments := api.Group("/assignments", authRequired)
	{
		assignments.GET("", assignmentHandler.List)
		assignments.GET("/:id", assignmentHandler.Get)
		assignments.GET("/:id/details", assignmentHandler.Details)
		assignments.PUT("/:id/lines/:lineId", staffOnly, assignmentHandler.UpdateLine)
		assignments.DELETE("/:id/lines/:lineId", staffOnly, assignmentHandler.DeleteLine)
		if cfg.Exports.Enabled {
			assignments.GET("/:id/export", assignmentHandler.Export)
			assignments.POST("/:id/export-link", staffOnly, assignmentHandler.ExportLink)
		}
	}
	if cfg.Exports.Enabled {
		// The signed token is the credential; a session only enriches the logs.
		api.GET("/exports/download", middleware.OptionalJWT(authSvc), assignmentHandler.DownloadExport)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
