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
	gorillahandlers "github.com/gorilla/handlers"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-shift-api/api/swagger"
	"github.com/noah-isme/tutor-shift-api/internal/dto"
	"github.com/noah-isme/tutor-shift-api/internal/handler"
	internalmiddleware "github.com/noah-isme/tutor-shift-api/internal/middleware"
	"github.com/noah-isme/tutor-shift-api/internal/repository"
	"github.com/noah-isme/tutor-shift-api/internal/service"
	"github.com/noah-isme/tutor-shift-api/pkg/cache"
	"github.com/noah-isme/tutor-shift-api/pkg/config"
	"github.com/noah-isme/tutor-shift-api/pkg/database"
	"github.com/noah-isme/tutor-shift-api/pkg/jobs"
	"github.com/noah-isme/tutor-shift-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-shift-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-shift-api/pkg/middleware/requestid"
	"github.com/noah-isme/tutor-shift-api/pkg/signedurl"
)

// @title Tutor Shift API
// @version 1.0.0
// @description Recurring lesson scheduling and daily shift grids for a tutoring school
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, cfg.Schedule.Timezone)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db.DB, "up", logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, grid cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cacheRepo = repository.NewCacheRepository(client, logr)
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Redis.CacheTTL, logr, cacheRepo != nil)

	stores := service.Stores{
		Persons:            repository.NewPersonRepository(db),
		Teachers:           repository.NewTeacherRepository(db),
		LessonAssignments:  repository.NewLessonAssignmentRepository(db),
		TeacherAssignments: repository.NewTeacherAssignmentRepository(db),
		Lessons:            repository.NewLessonOccurrenceRepository(db),
		TeacherShifts:      repository.NewTeacherShiftRepository(db),
		Templates:          repository.NewGridTemplateRepository(db),
		DailyCells:         repository.NewDailyShiftRepository(db),
		Calendar:           repository.NewCalendarRepository(db),
		Intensive:          repository.NewIntensiveRepository(db),
		Vocabulary:         repository.NewVocabularyRepository(db),
		RolloverRuns:       repository.NewRolloverRunRepository(db),
	}
	tx := database.NewTransactor(db)
	validate := dto.NewValidator()
	layout := service.LayoutFromConfig(cfg.Schedule)
	clock := service.NewSystemClock(cfg.Schedule.Timezone)

	materializer := service.NewMaterializer(stores, layout, metrics, logr)
	grids := service.NewDailyGridService(stores, tx, layout, clock, cacheSvc, metrics, validate, logr)
	templates := service.NewGridTemplateService(stores, tx, layout, validate, logr)
	lessons := service.NewLessonAssignmentService(stores, tx, materializer, layout, clock, cacheSvc, metrics, validate, logr)
	teachers := service.NewTeacherAssignmentService(stores, tx, materializer, layout, clock, cacheSvc, validate, logr)
	calendar := service.NewCalendarService(stores, tx, materializer, grids, cacheSvc, validate, logr)
	intensive := service.NewIntensiveService(stores, tx, grids, layout, cacheSvc, validate, logr)
	reschedule := service.NewRescheduleService(stores, tx, grids, clock, cacheSvc, metrics, validate, logr)
	counts := service.NewLessonCountService(stores, logr)
	exporter := service.NewExportService(stores, grids, counts, nil, cfg.Exports.SchoolName, logr)
	rollover := service.NewRolloverService(stores, tx, materializer, layout, clock, cacheSvc, metrics, logr)
	auth := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, clock, logr)

	signer := signedurl.New(cfg.Feeds.SigningSecret, cfg.Feeds.TTL)
	feeds := service.NewFeedService(stores, signer, clock, service.FeedConfig{
		BaseURL:        cfg.Feeds.BaseURL,
		APIPrefix:      cfg.APIPrefix,
		HorizonDays:    cfg.Feeds.HorizonDays,
		TimeslotStarts: cfg.Schedule.TimeslotStarts,
		LessonDuration: cfg.Schedule.LessonDuration,
		Location:       clock.Location,
	}, validate, logr)

	queue := jobs.NewQueue("engine", jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Rollover.MaxRetries,
		RetryDelay: cfg.Rollover.RetryDelay,
		JobTimeout: 10 * time.Minute,
		Logger:     logr,
		OnFailure: func(job jobs.Job, err error) {
			logr.Error("rollover needs a manual retrigger", zap.String("job_id", job.ID), zap.String("fiscal_year", job.Key), zap.Error(err))
		},
	})
	queue.Handle(service.RolloverJobType, rollover.HandleJob)
	queue.Start(ctx)
	defer queue.Stop()
	rollover.SetQueue(queue)

	if cfg.Rollover.CronEnabled {
		scheduler, err := newRolloverCron(cfg.Rollover.CronSpec, clock.Location, rollover.Enqueue, logr)
		if err != nil {
			logr.Fatal("invalid rollover cron spec", zap.String("spec", cfg.Rollover.CronSpec), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
		logr.Info("rollover cron scheduled", zap.String("spec", cfg.Rollover.CronSpec))
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", cfg.Metrics.Path))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, metricsHandler.Prometheus)
		r.GET(cfg.Metrics.Path+"/snapshot", metricsHandler.Snapshot)
	}
	if cfg.Swagger.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Templates: handler.NewTemplateHandler(templates),
		Shifts:    handler.NewShiftHandler(grids, reschedule, counts),
		Lessons:   handler.NewLessonAssignmentHandler(lessons),
		Teachers:  handler.NewTeacherAssignmentHandler(teachers),
		Calendar:  handler.NewCalendarHandler(calendar),
		Intensive: handler.NewIntensiveHandler(intensive),
		Rollover:  handler.NewRolloverHandler(rollover, logr),
		Reports:   handler.NewReportHandler(counts, exporter),
		Feeds:     handler.NewFeedHandler(feeds),
	}, internalmiddleware.JWT(auth), logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gorillahandlers.CompressHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
