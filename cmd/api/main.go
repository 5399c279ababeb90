package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"rewards-miniapp-backend/internal/config"
	"rewards-miniapp-backend/internal/handlers"
	"rewards-miniapp-backend/internal/middleware"
	"rewards-miniapp-backend/internal/services"
	"rewards-miniapp-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		log.SetLevel(log.DebugLevel)
	}

	redisStore, err := store.NewRedisStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisStore.Close()

	clock := services.SystemClock()
	settings := services.NewDifficultySettings(cfg.WinProbEasy, cfg.WinProbMedium, cfg.WinProbHard)

	accountService := services.NewAccountService(redisStore, clock)
	referralService := services.NewReferralService(redisStore, accountService, cfg.ReferralBonus)
	outcomeEngine := services.NewOutcomeEngine(accountService, redisStore, settings, clock, nil)
	ledgerService := services.NewLedgerService(redisStore, accountService, referralService, clock, cfg.ResetPassword)
	jwtService := services.NewJWTService(cfg.JWTSecret, clock)
	authService := services.NewAuthService(redisStore, accountService, referralService, jwtService, clock, cfg.SignupBonus, cfg.AdminUsername)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(accountService)
	gameHandler := handlers.NewGameHandler(outcomeEngine, redisStore)
	requestHandler := handlers.NewRequestHandler(ledgerService)
	adminHandler := handlers.NewAdminHandler(ledgerService, settings)
	flightHandler := handlers.NewFlightHandler(outcomeEngine)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentAccount)
		protected.GET("/balance", userHandler.GetBalance)
		protected.POST("/claim", userHandler.Claim)

		games := protected.Group("/games")
		games.Use(middleware.RateLimitMiddleware(redisStore))
		{
			games.POST("/play", gameHandler.Play)
			games.GET("/history", gameHandler.History)
			games.GET("/flight", flightHandler.HandleFlight)
		}

		requests := protected.Group("/requests")
		{
			requests.POST("/deposit", requestHandler.CreateDeposit)
			requests.POST("/withdrawal", requestHandler.CreateWithdrawal)
			requests.POST("/upgrade", requestHandler.CreateUpgrade)
			requests.POST("/password-reset", requestHandler.CreatePasswordReset)
		}
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService), middleware.RequireAdmin())
	{
		admin.GET("/requests", adminHandler.ListPending)
		admin.POST("/requests/:id/approve", adminHandler.Approve)
		admin.POST("/requests/:id/reject", adminHandler.Reject)
		admin.GET("/settings/difficulty", adminHandler.GetDifficulty)
		admin.PUT("/settings/difficulty", adminHandler.SetDifficulty)
	}

	log.WithField("port", cfg.Port).Info("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
