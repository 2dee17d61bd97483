package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"dicebet-backend/internal/config"
	"dicebet-backend/internal/handlers"
	"dicebet-backend/internal/middleware"
	"dicebet-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)

	diceEngine := services.NewDiceEngine()
	gameEngine := services.NewGameEngine(redisService, diceEngine)

	wsHandler := handlers.NewWebSocketHandler()
	gameEngine.SetBroadcaster(wsHandler)

	authHandler := handlers.NewAuthHandler(redisService, jwtService)
	gameHandler := handlers.NewGameHandler(gameEngine, redisService)
	walletHandler := handlers.NewWalletHandler(gameEngine, redisService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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

	api := router.Group("/api")

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/game/watch", gameHandler.Watch)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(redisService))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		game := protected.Group("/game")
		{
			game.POST("/play", gameHandler.Play)
			game.GET("/history", gameHandler.GetHistory)
			game.GET("/stats", gameHandler.GetStats)
		}

		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/transactions", walletHandler.GetTransactions)
			wallet.GET("/locked-balance", walletHandler.GetLockedBalance)
		}
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
