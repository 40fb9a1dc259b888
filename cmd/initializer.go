package main

import (
	"database/sql"
	"log"
	"time"

	"firebase.google.com/go/messaging"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"hirelyBack/internal/config"
	"hirelyBack/internal/handlers"
	"hirelyBack/internal/repositories"
	"hirelyBack/internal/services"
	"hirelyBack/utils"
)

type application struct {
	errorLog *log.Logger
	infoLog  *log.Logger
	db       *sql.DB

	jwtSecret string
	accessTTL time.Duration

	userRepo *repositories.UserRepository

	bookingService *services.BookingService
	chatService    *services.ChatService

	userHandler    *handlers.UserHandler
	serviceHandler *handlers.ServiceHandler
	bookingHandler *handlers.BookingHandler
	chatHandler    *handlers.ChatHandler
	messageHandler *handlers.MessageHandler
	fcmHandler     *handlers.FCMHandler

	wsManager *WebSocketManager
}

func initializeApp(db *sql.DB, rdb *redis.Client, fcmClient *messaging.Client, cfg config.Config, errorLog, infoLog *log.Logger) *application {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	serviceRepo := repositories.ServiceRepository{DB: db}
	bookingRepo := repositories.BookingRepository{DB: db}
	chatRepo := repositories.ChatRepository{Db: db}
	messageRepo := repositories.MessageRepository{Db: db}
	tokenRepo := repositories.NotifyTokenRepository{DB: db}
	unreadCache := repositories.NewUnreadCache(rdb)

	tokenManager, err := utils.NewManager(cfg.JWT.Secret)
	if err != nil {
		errorLog.Printf("token manager disabled: %v", err)
		tokenManager = nil
	}

	var uploader *utils.Uploader
	if cfg.S3.Bucket != "" {
		uploader = utils.NewUploader(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey)
	}

	wsManager := NewWebSocketManager()

	// Services
	notifier := services.NewNotificationService(fcmClient, &tokenRepo)
	bookingService := &services.BookingService{
		BookingRepo:    &bookingRepo,
		ChatRepo:       &chatRepo,
		ServiceRepo:    &serviceRepo,
		Notifier:       notifier,
		CancelLeadTime: time.Duration(cfg.Booking.CancelLeadHours) * time.Hour,
	}
	chatService := &services.ChatService{
		ChatRepo:    &chatRepo,
		MessageRepo: &messageRepo,
		UserRepo:    &userRepo,
		Unread:      unreadCache,
		Notifier:    notifier,
		Pusher:      wsManager,
	}
	userService := &services.UserService{
		UserRepo:     &userRepo,
		TokenManager: tokenManager,
		SigningKey:   cfg.JWT.Secret,
		AccessTTL:    time.Duration(cfg.JWT.AccessTTLMin) * time.Minute,
		RefreshTTL:   time.Duration(cfg.JWT.RefreshTTLHours) * time.Hour,
	}
	serviceService := &services.ServiceService{ServiceRepo: &serviceRepo}

	return &application{
		errorLog:       errorLog,
		infoLog:        infoLog,
		db:             db,
		jwtSecret:      cfg.JWT.Secret,
		accessTTL:      time.Duration(cfg.JWT.AccessTTLMin) * time.Minute,
		userRepo:       &userRepo,
		bookingService: bookingService,
		chatService:    chatService,
		userHandler:    &handlers.UserHandler{Service: userService},
		serviceHandler: &handlers.ServiceHandler{Service: serviceService},
		bookingHandler: &handlers.BookingHandler{Service: bookingService},
		chatHandler:    &handlers.ChatHandler{Service: chatService},
		messageHandler: &handlers.MessageHandler{Uploader: uploader},
		fcmHandler:     &handlers.FCMHandler{Tokens: &tokenRepo},
		wsManager:      wsManager,
	}
}
