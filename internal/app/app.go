package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"leadflow/internal/config"
	"leadflow/internal/db"
	"leadflow/internal/events"
	"leadflow/internal/handlers"
	"leadflow/internal/logger"
	"leadflow/internal/middleware"
	"leadflow/internal/pdf"
	"leadflow/internal/pipeline"
	"leadflow/internal/realtime"
	"leadflow/internal/repositories"
	"leadflow/internal/routes"
	"leadflow/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "leadflow/docs"
)

func Run() {
	cfg := config.LoadConfig()
	log := logger.New(cfg.Log.Level, cfg.Server.Env)

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	database, err := db.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}()
	if err := db.ApplyMigrations(ctx, database); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// === Events ===
	// Redis fans events out across instances; without it the feed is in-process.
	hub := realtime.NewHub()
	var (
		publisher services.EventPublisher = hub
		feed      handlers.ActivityFeed   = hub
	)
	if cfg.Redis.URL != "" {
		client, err := events.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, activity events will not be published")
		} else {
			defer client.Close()
			redisPub := events.NewRedisPublisher(client, cfg.Redis.ChannelPrefix)
			publisher, feed = redisPub, redisPub
		}
	}

	// === Repos ===
	stageRepo := repositories.NewStageRepository(database)
	leadRepo := repositories.NewLeadRepository(database)
	ruleRepo := repositories.NewRuleRepository(database)
	activityRepo := repositories.NewActivityRepository(database)

	// === Services ===
	stageService := services.NewStageService(stageRepo, cfg.Pipeline.SystemStages(""), log)
	ruleService := services.NewRuleService(ruleRepo, stageRepo, leadRepo, cfg.Pipeline.DefaultRules())
	activityService := services.NewActivityService(activityRepo, publisher, log)
	transitionService := services.NewTransitionService(stageRepo, leadRepo, ruleService, activityService, log)
	promotionService := services.NewPromotionService(
		leadRepo,
		transitionService,
		pipeline.NewPromoter(cfg.Pipeline.PromotionSettings()),
		log,
	)

	reports := pdf.NewReportGenerator(cfg.PDF.FontPath)

	// === Handlers ===
	h := routes.Handlers{
		Health:   &handlers.HealthHandler{Ping: database.PingContext},
		Stages:   handlers.NewStageHandler(stageService, log),
		Rules:    handlers.NewRuleHandler(ruleService, log),
		Pipeline: handlers.NewPipelineHandler(transitionService, promotionService, reports, log),
		Leads:    handlers.NewLeadHandler(transitionService, activityService, log),
		Events:   handlers.NewEventsHandler(feed, cfg.Server.WebSocketOrigins(), log),
	}

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.Server.CORSOrigin))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	routes.SetupRoutes(r, []byte(cfg.Auth.JWTSecret), h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
