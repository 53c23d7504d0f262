package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beamr-points-backend/internal/common/cache"
	"beamr-points-backend/internal/common/config"
	"beamr-points-backend/internal/common/logger"
	"beamr-points-backend/internal/common/middleware"
	authhttp "beamr-points-backend/internal/features/auth/delivery/http"
	authservice "beamr-points-backend/internal/features/auth/service"
	notifyhttp "beamr-points-backend/internal/features/notify/delivery/http"
	notifyservice "beamr-points-backend/internal/features/notify/service"
	pointshttp "beamr-points-backend/internal/features/points/delivery/http"
	pointspostgres "beamr-points-backend/internal/features/points/repository/postgres"
	pointsservice "beamr-points-backend/internal/features/points/service"
	webhookhttp "beamr-points-backend/internal/features/webhook/delivery/http"
	webhookservice "beamr-points-backend/internal/features/webhook/service"
	"beamr-points-backend/internal/platform/neynar"
	"beamr-points-backend/internal/platform/postgres"
	"beamr-points-backend/internal/platform/redis"
)

// @title           Beamr Points API
// @version         1.0
// @description     Engagement rewards backend for the Beamr Farcaster mini-app.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey SessionToken
// @in header
// @name Authorization
// @description Session JWT issued by /auth/sign-in, as "Bearer <token>"

// @tag.name auth
// @tag.description Quick Auth sign-in and session issuance

// @tag.name users
// @tag.description Wallet confirmation, points profile and Farcaster identity

// @tag.name leaderboard
// @tag.description Top earners by total points

// @tag.name webhooks
// @tag.description HMAC-verified social event ingestion

// @tag.name admin
// @tag.description Grant revocation

func main() {
	cfg := config.Load()

	logger.Init("beamr-points-backend", cfg.Debug)

	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Msg("Starting Beamr points backend")

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgresClient.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(migrateCtx, postgresClient.GetDB()); err != nil {
		cancelMigrate()
		logger.Fatal().Err(err).Msg("Failed to apply schema")
	}
	cancelMigrate()

	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := redis.Open(redisCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	cancelRedis()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewService(redisClient)
	userCache := neynar.NewUserCache(redisClient, cfg.Neynar.CacheTTL)
	neynarClient := neynar.NewClient(cfg.Neynar.BaseURL, cfg.Neynar.APIKey, cfg.Neynar.Timeout, userCache)

	userRepository := pointspostgres.NewUserRepository(postgresClient.GetDB())
	grantRepository := pointspostgres.NewGrantRepository(postgresClient.GetDB())

	pointsSvc := pointsservice.NewPointsService(
		userRepository, grantRepository, neynarClient, neynarClient, cacheService,
		pointsservice.Amounts{
			WalletConfirmation: cfg.Points.WalletConfirmation,
			Follow:             cfg.Points.Follow,
			ChannelJoin:        cfg.Points.ChannelJoin,
			AppAdd:             cfg.Points.AppAdd,
			Cast:               cfg.Points.Cast,
			ReferralBonus:      cfg.Points.ReferralBonus,
		},
		cfg.Beamr.AccountFID, cfg.Beamr.ChannelName)

	quickAuth := authservice.NewHTTPVerifier(cfg.Auth.VerifyURL, 10*time.Second)
	authSvc := authservice.NewAuthService(quickAuth, neynarClient, userRepository,
		cfg.Auth.JWTSecret, cfg.Auth.SessionMaxAge)

	notifySvc := notifyservice.NewNotifyService(cfg.Notify.Secret, cfg.Server.AppURL, cfg.Notify.Timeout)

	webhookVerifier := webhookservice.NewVerifier(cfg.Webhook.Secret)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Signature"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		// Public surface: sign-in, webhooks and notifications authenticate
		// themselves (Quick Auth token, HMAC signature, shared secret).
		authhttp.NewAuthHandler(authSvc, cfg.Auth.Domain, int(cfg.Auth.SessionMaxAge.Seconds())).
			RegisterRoutes(v1)
		webhookhttp.NewWebhookHandler(webhookVerifier, pointsSvc, cfg.Beamr.AccountFID, cfg.Beamr.CastMarker).
			RegisterRoutes(v1)
		notifyhttp.NewNotifyHandler(notifySvc).RegisterRoutes(v1)

		session := v1.Group("")
		session.Use(middleware.SessionAuth(cfg.Auth.JWTSecret, cfg.Auth.SessionMaxAge))
		pointshttp.NewPointsHandler(pointsSvc, neynarClient).
			RegisterRoutes(session, cfg.Auth.AdminFIDs)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "beamr-points-backend",
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := postgresClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "postgres unavailable",
				"details": err.Error(),
			})
			return
		}

		if err := redisClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unready",
				"error":   "redis unavailable",
				"details": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   "beamr-points-backend",
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
