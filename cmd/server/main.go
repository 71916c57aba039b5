// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resume-chat-go/internal/config"
	"resume-chat-go/internal/handler"
	"resume-chat-go/internal/middleware"
	"resume-chat-go/internal/model"
	"resume-chat-go/internal/pipeline"
	"resume-chat-go/internal/repository"
	"resume-chat-go/internal/service"
	"resume-chat-go/pkg/database"
	"resume-chat-go/pkg/extract"
	"resume-chat-go/pkg/kafka"
	"resume-chat-go/pkg/llm"
	"resume-chat-go/pkg/log"
	"resume-chat-go/pkg/storage"
	"resume-chat-go/pkg/tika"
	"resume-chat-go/pkg/token"
)

func main() {
	configPath := "./configs/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}

	// 1. 初始化配置
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(log.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.OutputPath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis 与对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN, &model.User{}, &model.Chat{}, &model.Message{}, &model.Resume{})
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store, err := storage.NewMinioStore(cfg.MinIO)
	if err != nil {
		log.Fatal("MinIO 初始化失败", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	resumeRepo := repository.NewResumeRepository(database.DB)
	textCache := repository.NewTextCache(database.RDB, time.Duration(cfg.Context.CacheTTLMinutes)*time.Minute)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours)
	extractor := extract.NewExtractor(tika.NewClient(cfg.Tika))
	llmClient := llm.NewClient(cfg.LLM)
	if err := llmClient.Validate(); err != nil {
		// 不阻止启动，对话请求会返回配置错误
		log.Warnw("模型凭证未配置", "error", err)
	}

	var producer *kafka.Producer
	var publisher service.ParseTaskPublisher
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
	} else {
		log.Info("未配置 Kafka，简历文本将在首次引用时提取")
	}

	documentService := service.NewDocumentService(store, resumeRepo, textCache, extractor, publisher, service.UploadConstraints{
		MaxSizeBytes: cfg.Upload.MaxSizeBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
		Prefix:       cfg.Upload.Prefix,
	})
	titleService := service.NewTitleService(llmClient, cfg.LLM.TitleModel)
	resolver := service.NewContextResolver(resumeRepo, textCache, documentService)
	conversationService := service.NewConversationService(chatRepo)
	chatService := service.NewChatService(llmClient, chatRepo, titleService, resolver, service.ChatConfig{
		SystemPrompt: cfg.LLM.SystemPrompt,
		DefaultModel: cfg.LLM.Model,
		MaxTokens:    cfg.LLM.MaxTokens,
	})

	// 6. 启动后台 Kafka 消费者
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if producer != nil {
		processor := pipeline.NewProcessor(documentService, resumeRepo, textCache)
		consumer := kafka.NewConsumer(cfg.Kafka, database.RDB, processor)
		go func() {
			defer close(consumerDone)
			consumer.Run(consumerCtx)
		}()
	} else {
		close(consumerDone)
	}

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chatHandler := handler.NewChatHandler(chatService)
	socketHandler := handler.NewChatSocketHandler(chatService)
	conversationHandler := handler.NewConversationHandler(conversationService)
	documentHandler := handler.NewDocumentHandler(documentService, cfg.Upload.FormKey)

	// 8. 注册路由
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(jwtManager, userRepo))
	{
		api.GET("/me", handler.GetProfile)

		chats := api.Group("/chats")
		{
			chats.POST("", conversationHandler.Create)
			chats.GET("", conversationHandler.List)
			chats.GET("/:id", conversationHandler.Get)
			chats.POST("/:id", chatHandler.Submit)
			chats.GET("/:id/ws", socketHandler.Handle)
		}

		resumes := api.Group("/resumes")
		{
			resumes.GET("", documentHandler.List)
			resumes.POST("", documentHandler.Upload)
			resumes.DELETE("/*pathname", documentHandler.Delete)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	stopConsumer()
	select {
	case <-consumerDone:
	case <-ctx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	log.Info("服务已优雅关闭")
}
