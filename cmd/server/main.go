package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	httpapi "ict-access-backend/internal/api/http"
	"ict-access-backend/internal/config"
	"ict-access-backend/internal/logger"
	"ict-access-backend/internal/queue"
	"ict-access-backend/internal/repository/postgres"
	"ict-access-backend/internal/security"
	"ict-access-backend/internal/service"
	"ict-access-backend/internal/storage"
	"ict-access-backend/internal/workflow"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ICT Access Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	// Initialize Storage
	signatureStore, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("Failed to initialize signature storage", "error", err)
		log.Fatalf("Failed to initialize signature storage: %v", err)
	}

	// Initialize transition publisher
	publisher := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
	defer publisher.Close()

	// Initialize Services
	smsGateway := service.NewHttpSmsGateway(cfg.SMS.BaseURL, cfg.SMS.APIKey, cfg.SMS.SenderName)
	smsSvc := service.NewSmsService(store.SmsRepository, smsGateway, cfg.SMS.Enabled)
	dispatcher := service.NewDispatcher(
		store.NotificationRepository,
		store.UserRepository,
		store.DepartmentRepository,
		smsSvc,
		publisher,
	)
	engine := workflow.NewEngine()

	authSvc := service.NewAuthService(store.UserRepository, tokenManager)
	accessSvc := service.NewAccessRequestService(
		db,
		store.AccessRequestRepository,
		store.UserRepository,
		store.DepartmentRepository,
		engine,
		dispatcher,
	)
	bookingSvc := service.NewBookingService(
		db,
		store.BookingRepository,
		store.DeviceRepository,
		store.UserRepository,
		engine,
		dispatcher,
	)
	deviceSvc := service.NewDeviceService(store.DeviceRepository)
	adminSvc := service.NewAdminService(store.UserRepository, store.DepartmentRepository)
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	// Initialize HTTP handlers
	handlers := httpapi.Handlers{
		Auth:          httpapi.NewAuthHandler(authSvc),
		AccessRequest: httpapi.NewAccessRequestHandler(accessSvc),
		Booking:       httpapi.NewBookingHandler(bookingSvc),
		Device:        httpapi.NewDeviceHandler(deviceSvc),
		Admin:         httpapi.NewAdminHandler(adminSvc),
		Notification:  httpapi.NewNotificationHandler(noteSvc),
		SmsWebhook:    httpapi.NewSmsWebhookHandler(smsSvc, cfg.SMS.APIKey),
		Signature:     httpapi.NewSignatureHandler(signatureStore, cfg.Storage.MaxFileSize),
	}

	router := httpapi.NewRouter(handlers, tokenManager)

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
