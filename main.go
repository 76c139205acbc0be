package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"campus-dating-app/internal/codec"
	"campus-dating-app/internal/config"
	"campus-dating-app/internal/database"
	"campus-dating-app/internal/events"
	"campus-dating-app/internal/handlers"
	"campus-dating-app/internal/logger"
	"campus-dating-app/internal/metrics"
	"campus-dating-app/internal/middleware"
	"campus-dating-app/internal/presence"
	"campus-dating-app/internal/redis"
	"campus-dating-app/internal/services"
	"campus-dating-app/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogJSON)
	if envErr != nil {
		log.Debug("No .env file found")
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := database.Open(cfg.DatabaseURL, cfg.DBLogLevel, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer closeStore()

	var presenceStore presence.Store = presence.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisClient, err := redis.Initialize(cfg.RedisURL, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		presenceStore = presence.NewRedisStore(redisClient)
	}

	contentCodec, err := codec.New(cfg.ContentKey)
	if err != nil {
		log.WithError(err).Fatal("Invalid content key")
	}

	photos, err := services.NewPhotoResolver(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize photo storage")
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	defer publisher.Close()

	metrics.Register(prometheus.DefaultRegisterer)

	deps := services.Deps{
		Store:    store,
		Codec:    contentCodec,
		Presence: presence.NewTracker(presenceStore, cfg.PresenceTimeout),
		Photos:   photos,
		Events:   publisher,
		Log:      log,
	}
	presenceService := services.NewPresenceService(deps, cfg)
	interestService := services.NewInterestService(deps, cfg)

	// The message service is needed by the hub, and the hub is every
	// service's notifier, so it is built twice.
	hub := websocket.NewHub(presenceService, services.NewMessageService(deps, cfg), cfg.AllowedOrigins, log)
	go hub.Run(ctx)
	deps.Notifier = hub

	matchService := services.NewMatchService(deps, cfg)
	messageService := services.NewMessageService(deps, cfg)

	if cfg.SeedInterests {
		if _, err := interestService.Seed(ctx); err != nil {
			log.WithError(err).Warn("Failed to seed interests")
		}
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log)
	go limiter.RunCleanup(time.Minute, ctx.Done())

	gin.SetMode(cfg.GinMode)
	router := setupRoutes(cfg, log, limiter, hub, handlers.Handlers{
		Explore:   handlers.NewExploreHandler(services.NewDiscoveryService(deps, cfg)),
		Matches:   handlers.NewMatchHandler(matchService, messageService),
		Messages:  handlers.NewMessageHandler(messageService),
		Presence:  handlers.NewPresenceHandler(services.NewPresenceService(deps, cfg)),
		Interests: handlers.NewInterestHandler(interestService),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func setupRoutes(cfg *config.Config, log logrus.FieldLogger, limiter *middleware.RateLimiter,
	hub *websocket.Hub, h handlers.Handlers) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1", middleware.Authenticate(cfg.JWTSecret), limiter.Handler())
	handlers.RegisterRoutes(v1, h)

	v1.GET("/ws", middleware.AuthRequired(), func(c *gin.Context) {
		websocket.HandleWebSocket(hub, c)
	})

	return router
}
