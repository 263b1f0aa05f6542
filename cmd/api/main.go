package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"cryptocasino-backend/internal/config"
	"cryptocasino-backend/internal/handlers"
	"cryptocasino-backend/internal/middleware"
	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

func main() {
	log := logrus.New()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	store, err := services.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)
	verifier := services.NewWebhookVerifier(cfg)
	reconciler := services.NewReconciler(log)
	gateway := services.NewCoinbaseClient(cfg, log)
	captcha := services.NewCaptchaService()

	stream := handlers.NewStreamHandler(store, log)

	authHandler := handlers.NewAuthHandler(store, jwtService, captcha, log, models.Cents(cfg.StartingBalanceCents))
	userHandler := handlers.NewUserHandler(store)
	gameHandler := handlers.NewGameHandler(store, stream, log)
	paymentHandler := handlers.NewPaymentHandler(store, gateway, verifier, reconciler, stream, log)

	router := gin.Default()

	router.GET("/captcha", authHandler.Captcha)
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	// Gateway webhooks authenticate by HMAC signature, not session.
	router.POST("/commerce-notification", paymentHandler.CommerceNotification)
	router.POST("/send-money", paymentHandler.SendMoneyNotification)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService, store))
	{
		protected.POST("/logout", authHandler.Logout)

		protected.GET("/user", userHandler.GetCurrentUser)
		protected.GET("/balance", userHandler.GetBalance)

		protected.POST("/bet", gameHandler.PlaceBet)
		protected.POST("/win", gameHandler.RegisterWin)
		protected.POST("/settle", gameHandler.Settle)

		protected.GET("/charges", paymentHandler.ListCharges)
		protected.POST("/charges", paymentHandler.CreateCharge)
		protected.POST("/withdraw", paymentHandler.Withdraw)

		protected.GET("/stream", stream.HandleStream)
	}

	log.Infof("server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
