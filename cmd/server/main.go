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

	"angeldesk-go/internal/config"
	"angeldesk-go/internal/handler"
	"angeldesk-go/internal/middleware"
	"angeldesk-go/internal/model"
	"angeldesk-go/internal/pipeline"
	"angeldesk-go/internal/repository"
	"angeldesk-go/internal/service"
	"angeldesk-go/pkg/ai"
	"angeldesk-go/pkg/database"
	"angeldesk-go/pkg/es"
	"angeldesk-go/pkg/kafka"
	"angeldesk-go/pkg/log"
	"angeldesk-go/pkg/storage"
	"angeldesk-go/pkg/tika"
	"angeldesk-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和外部依赖
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	if err := es.InitES(cfg.Elasticsearch); err != nil {
		log.Errorf("es 初始化失败 %s", err)
		return
	}
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.Deal{},
		&model.Company{},
		&model.StoredFile{},
		&model.EmailMessage{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	dealRepo := repository.NewDealRepository(database.DB)
	companyRepo := repository.NewCompanyRepository(database.DB)
	fileRepo := repository.NewFileRepository(database.DB)
	emailRepo := repository.NewEmailRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.DB)
	historyRepo := repository.NewHistoryRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	aiClient := ai.NewClient(cfg.AI)
	registry := service.NewObjectURLRegistry()

	userService := service.NewUserService(userRepo, jwtManager)
	dealService := service.NewDealService(dealRepo, companyRepo, fileRepo, "deck-files")
	companyService := service.NewCompanyService(companyRepo, fileRepo, emailRepo)
	previewService := service.NewPreviewService(
		service.NewMinioAreaFetcher(), tikaClient, registry,
		cfg.Preview.Areas, cfg.Preview.MaxRows,
	)
	documentService := service.NewDocumentService(fileRepo, dealRepo, previewService)
	ingestService := service.NewIngestService(emailRepo, fileRepo, "reports")
	searchService := service.NewSearchService()
	chatService := service.NewChatService(
		conversationRepo, historyRepo, aiClient,
		time.Duration(cfg.Streaming.IntervalMs)*time.Millisecond,
		cfg.Streaming.ChunkSize,
	)
	defer chatService.Close()

	// 6. 初始化文件摄取管道并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(tikaClient, aiClient, fileRepo, dealRepo)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	authed := middleware.AuthMiddleware(jwtManager, userService)
	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			uh := handler.NewUserHandler(userService)
			users.POST("/register", uh.Register)
			users.POST("/login", uh.Login)

			me := users.Group("/")
			me.Use(authed)
			{
				me.GET("/me", uh.GetProfile)
				me.POST("/logout", uh.Logout)
			}
		}

		deals := apiV1.Group("/deals")
		deals.Use(authed)
		{
			dh := handler.NewDealHandler(dealService, documentService)
			deals.POST("", dh.Create)
			deals.GET("", dh.List)
			deals.GET("/:id", dh.Get)
			deals.PUT("/:id/notes", dh.UpdateNotes)
			deals.PUT("/:id/status", dh.Move)
			deals.DELETE("/:id", dh.Delete)
			deals.POST("/:id/deck", dh.UploadDeck)
			deals.GET("/:id/files", dh.ListFiles)
		}

		companies := apiV1.Group("/companies")
		companies.Use(authed)
		{
			ch := handler.NewCompanyHandler(companyService)
			companies.POST("", ch.Create)
			companies.GET("", ch.List)
			companies.GET("/:id", ch.Get)
			companies.PUT("/:id", ch.Update)
			companies.DELETE("/:id", ch.Delete)
			companies.GET("/:id/files", ch.ListFiles)
			companies.GET("/:id/emails", ch.ListEmails)
		}

		documents := apiV1.Group("/documents")
		documents.Use(authed)
		{
			docH := handler.NewDocumentHandler(documentService)
			documents.GET("", docH.List)
			documents.PUT("/:id/visibility", docH.SetVisibility)
			documents.GET("/:id/preview", docH.Preview)
			documents.GET("/:id/download", docH.DownloadURL)
			documents.DELETE("/:id", docH.Delete)
		}

		blobs := apiV1.Group("/blobs")
		blobs.Use(authed)
		{
			bh := handler.NewBlobHandler(registry)
			blobs.GET("/:id", bh.Get)
			blobs.DELETE("/:id", bh.Revoke)
		}

		ingest := apiV1.Group("/ingest")
		ingest.Use(authed)
		{
			ih := handler.NewIngestHandler(ingestService)
			ingest.POST("/email", ih.InboundEmail)
			ingest.GET("/emails", ih.ListEmails)
		}

		search := apiV1.Group("/search")
		search.Use(authed)
		{
			search.GET("", handler.NewSearchHandler(searchService).Search)
		}

		conversations := apiV1.Group("/conversations")
		conversations.Use(authed)
		{
			convH := handler.NewConversationHandler(chatService)
			conversations.POST("", convH.Create)
			conversations.GET("", convH.List)
			conversations.GET("/:id/messages", convH.Messages)
		}
	}
	// Chat WebSocket 路由，token 走路径参数
	r.GET("/chat/:token", handler.NewChatHandler(chatService, userService, jwtManager).Handle)

	// 9. 启动 HTTP 服务器并实现优雅停机
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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
