package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/geoviet/surveyid-api/api/swagger"
	"github.com/geoviet/surveyid-api/internal/handler"
	"github.com/geoviet/surveyid-api/internal/middleware"
	"github.com/geoviet/surveyid-api/internal/models"
	"github.com/geoviet/surveyid-api/internal/repository"
	"github.com/geoviet/surveyid-api/internal/service"
	"github.com/geoviet/surveyid-api/pkg/cache"
	"github.com/geoviet/surveyid-api/pkg/config"
	"github.com/geoviet/surveyid-api/pkg/database"
	"github.com/geoviet/surveyid-api/pkg/export"
	"github.com/geoviet/surveyid-api/pkg/logger"
	corsmiddleware "github.com/geoviet/surveyid-api/pkg/middleware/cors"
	reqidmiddleware "github.com/geoviet/surveyid-api/pkg/middleware/requestid"
)

// @title SurveyID Portal API
// @version 1.0.0
// @description Survey location approval workflow and location identifier issuance
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

	// Redis is optional: the dashboard falls back to direct queries.
	var cacheRepo *repository.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
	} else {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	surveyRepo := repository.NewSurveyRepository(db)
	identifierRepo := repository.NewIdentifierRepository(db)
	historyRepo := repository.NewApprovalHistoryRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	surveySvc := service.NewSurveyService(surveyRepo, logr)

	identifierSvc := service.NewIdentifierService(identifierRepo, surveyRepo, logr,
		service.WithMaxAttempts(cfg.Identifier.MaxAttempts),
		service.WithIdentifierMetrics(metricsSvc),
	)

	var statsSvc *service.StatsService
	if cacheRepo != nil {
		statsSvc = service.NewStatsService(surveyRepo, identifierRepo, cacheRepo, metricsSvc, logr, cfg.Dashboard.CacheTTL)
	} else {
		statsSvc = service.NewStatsService(surveyRepo, identifierRepo, nil, metricsSvc, logr, cfg.Dashboard.CacheTTL)
	}

	workflowSvc := service.NewWorkflowService(surveyRepo, historyRepo, identifierSvc, logr,
		service.WithStatsInvalidator(func(ctx context.Context) { statsSvc.Invalidate(ctx) }),
	)

	authHandler := handler.NewAuthHandler(authSvc)
	surveyHandler := handler.NewSurveyHandler(surveySvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc, surveySvc)
	identifierHandler := handler.NewIdentifierHandler(identifierSvc, surveySvc, export.NewCertificateExporter())
	statsHandler := handler.NewStatsHandler(statsSvc)
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

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/survey-locations", surveyHandler.List)
		authed.GET("/survey-locations/:id", surveyHandler.Get)
		authed.GET("/survey-locations/:id/history", workflowHandler.History)
		authed.GET("/survey-locations/:id/workflow/permissions", workflowHandler.Permissions)
		authed.POST("/survey-locations/:id/workflow",
			middleware.Audit(userRepo, models.AuditActionWorkflowTransition, "survey_location"),
			workflowHandler.Execute)
		authed.POST("/survey-locations/batch-approve",
			middleware.RequireRoles(models.RoleCommuneSupervisor, models.RoleCentralAdmin, models.RoleSystemAdmin),
			middleware.Audit(userRepo, models.AuditActionBatchApprove, "survey_location"),
			workflowHandler.BatchApprove)

		authed.GET("/survey-locations/:id/identifier", identifierHandler.ForLocation)
		authed.GET("/identifiers/:code", identifierHandler.Lookup)
		authed.GET("/identifiers/:code/certificate", identifierHandler.Certificate)
		authed.POST("/identifiers/:code/deactivate",
			middleware.RequireRoles(models.RoleCentralAdmin, models.RoleSystemAdmin),
			middleware.Audit(userRepo, models.AuditActionIdentifierDeactivate, "location_identifier"),
			identifierHandler.Deactivate)

		if cfg.Dashboard.Enabled {
			authed.GET("/dashboard/stats", statsHandler.Dashboard)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
