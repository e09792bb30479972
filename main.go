package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/clovisbarbosajr/navarro-connect/internal/attention"
	"github.com/clovisbarbosajr/navarro-connect/internal/blob"
	"github.com/clovisbarbosajr/navarro-connect/internal/config"
	"github.com/clovisbarbosajr/navarro-connect/internal/db"
	"github.com/clovisbarbosajr/navarro-connect/internal/handlers"
	"github.com/clovisbarbosajr/navarro-connect/internal/logger"
	"github.com/clovisbarbosajr/navarro-connect/internal/middleware"
	"github.com/clovisbarbosajr/navarro-connect/internal/observability"
	"github.com/clovisbarbosajr/navarro-connect/internal/rabbitmq"
	"github.com/clovisbarbosajr/navarro-connect/internal/repositories"
	"github.com/clovisbarbosajr/navarro-connect/internal/telemetry"
	"github.com/clovisbarbosajr/navarro-connect/internal/tracing"
	"github.com/clovisbarbosajr/navarro-connect/internal/ws"
)

const serviceName = "navarro-connect"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		zlog.Fatal("failed to connect to db", zap.Error(err))
	}
	defer database.Close()

	shutdownTracing, err := tracing.Init(context.Background(), serviceName, cfg.TracingEndpoint, cfg.TracingEnabled)
	if err != nil {
		zlog.Fatal("failed to init tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	zlog.Info("audit publisher ready", zap.String("mode", rabbitmq.PublisherMode(auditPublisher)))
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, serviceName, cfg.Environment, zlog)

	if cfg.AMQPURL != "" {
		if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			zlog.Warn("event publisher disabled", zap.Error(err))
		} else {
			observability.SetPublisher(eventPublisher)
			defer eventPublisher.Close()
		}
	}

	profileRepo := repositories.NewProfileRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)

	blobStore, err := blob.NewDiskStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.MaxUploadBytes)
	if err != nil {
		zlog.Fatal("failed to init blob store", zap.Error(err))
	}

	hub := ws.NewHub(cfg.TypingDebounce, cfg.TypingTTL)
	limiter := attention.NewLimiter(cfg.AttentionMax, cfg.AttentionCooldown)

	authHandler := handlers.NewAuthHandler(profileRepo, cfg.JWTSecret, cfg.JWTExpiration, audit)
	profileHandler := handlers.NewProfileHandler(profileRepo, blobStore)
	conversationHandler := handlers.NewConversationHandler(conversationRepo, messageRepo, profileRepo, audit)
	messageHandler := handlers.NewMessageHandler(messageRepo, conversationRepo, profileRepo, reactionRepo, hub, audit)
	attentionHandler := handlers.NewAttentionHandler(messageRepo, conversationRepo, limiter, hub, audit)
	uploadHandler := handlers.NewUploadHandler(blobStore)

	conversationWS := ws.NewConversationSocketHandler(hub, conversationRepo, profileRepo, cfg.JWTSecret)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.POST("/auth/logout", authMiddleware, authHandler.Logout)

	router.GET("/profiles", authMiddleware, profileHandler.ListProfiles)
	router.GET("/profiles/me", authMiddleware, profileHandler.Me)
	router.PATCH("/profiles/me", authMiddleware, profileHandler.UpdateMe)
	router.POST("/profiles/me/avatar", authMiddleware, profileHandler.UploadAvatar)

	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.POST("/conversations/direct", authMiddleware, conversationHandler.StartDirect)
	router.POST("/conversations/group", authMiddleware, conversationHandler.CreateGroup)

	router.GET("/conversations/:conversationID/messages", authMiddleware, messageHandler.GetMessages)
	router.POST("/conversations/:conversationID/messages", authMiddleware, messageHandler.PostMessage)
	router.POST("/conversations/:conversationID/read", authMiddleware, messageHandler.MarkRead)
	router.DELETE("/conversations/:conversationID/messages/:messageID", authMiddleware, messageHandler.DeleteMessage)
	router.DELETE("/conversations/:conversationID/messages", authMiddleware, middleware.AdminOnly(), messageHandler.ClearMessages)
	router.POST("/conversations/:conversationID/messages/:messageID/reactions", authMiddleware, messageHandler.ToggleReaction)
	router.POST("/conversations/:conversationID/attention", authMiddleware, attentionHandler.SendAttention)

	router.POST("/attachments", authMiddleware, uploadHandler.UploadAttachment)
	router.Static(cfg.UploadBaseURL, cfg.UploadDir)

	router.GET("/ws/conversations/:conversationID", conversationWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, hub, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zlog.Info("server listening", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("server error", zap.Error(err))
	}
}
