package main

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"donation_app_echo/internal/config"
	"donation_app_echo/internal/crypto"
	"donation_app_echo/internal/handlers"
	"donation_app_echo/internal/middleware"
	"donation_app_echo/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("configuration error", "error", err)
	}

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		logger.Fatalw("failed to run database migrations", "error", err)
	}

	// Sessions live in Redis when available so restarts do not log admins out
	var sessions services.SessionStore
	if cfg.RedisURL != "" {
		redisSessions, err := services.NewRedisSessionStore(cfg.RedisURL)
		if err != nil {
			logger.Fatalw("failed to connect to redis", "error", err)
		}
		defer redisSessions.Close()
		sessions = redisSessions
	} else {
		logger.Warn("REDIS_URL not set, admin sessions are in-memory only")
		sessions = services.NewMemorySessionStore()
	}

	cipher, err := crypto.NewCipher(cfg.EncryptionSecret)
	if err != nil {
		logger.Fatalw("invalid encryption secret", "error", err)
	}

	if !cfg.KakaoPayConfigured() {
		logger.Warn("KakaoPay credentials not set, gateway payments disabled")
	}
	kakaopay := services.NewKakaoPayService(cfg.KakaoPayCID, cfg.KakaoPaySecret)

	emailService := services.NewEmailService(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	notifier := services.NewNotificationService(emailService, cfg.OrgName, logger)

	donations := services.NewDonationService(db)
	payments := services.NewPaymentService(donations, kakaopay, cipher, notifier, cfg.AppURL, logger)
	receipts := services.NewReceiptService(
		donations, cipher, emailService, cfg.OrgName, cfg.OrgUniqueNumber, logger)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.HTTPErrorHandler = middleware.NewErrorHandler(logger)

	donationHandler := handlers.NewDonationHandler(payments)
	adminHandler := handlers.NewAdminHandler(
		donations, payments, receipts, sessions, cfg.AdminPassword,
		strings.HasPrefix(cfg.AppURL, "https://"))

	// Public donor routes
	e.POST("/api/donations/bank-transfer", donationHandler.SubmitBankTransfer)
	e.POST("/api/donations/kakaopay/ready", donationHandler.ReadyKakaoPay)
	e.POST("/api/donations/kakaopay/approve", donationHandler.ApproveKakaoPay)

	// Admin routes
	e.POST("/api/admin/login", adminHandler.Login)
	e.POST("/api/admin/logout", adminHandler.Logout)

	admin := e.Group("/api/admin")
	admin.Use(middleware.RequireAdmin(sessions))
	admin.GET("/donations", adminHandler.ListDonations)
	admin.POST("/confirm-deposit", adminHandler.ConfirmDeposit)
	admin.GET("/receipts", adminHandler.GenerateReceipts)
	admin.GET("/stats", adminHandler.Stats)

	logger.Infow("server starting", "port", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
