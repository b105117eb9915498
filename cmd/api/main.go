package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"workhub/office-portal/office-portal-backend/internal/auth"
	"workhub/office-portal/office-portal-backend/internal/config"
	"workhub/office-portal/office-portal-backend/internal/db"
	"workhub/office-portal/office-portal-backend/internal/documents"
	"workhub/office-portal/office-portal-backend/internal/history"
	"workhub/office-portal/office-portal-backend/internal/notify"
	"workhub/office-portal/office-portal-backend/internal/templates"
	"workhub/office-portal/office-portal-backend/internal/users"
	"workhub/office-portal/office-portal-backend/pkg/logger"
	"workhub/office-portal/office-portal-backend/pkg/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Environment)
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer zapLogger.Sync()

	sqlxDB, err := db.Connect(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer sqlxDB.Close()

	gormDB, err := db.ConnectGorm(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to connect gorm handle", zap.Error(err))
	}

	recorder, err := history.NewRecorder(gormDB, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to init action history", zap.Error(err))
	}

	ctx := context.Background()
	objectStore, err := storage.NewS3Store(ctx, storage.S3Options{
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
	})
	if err != nil {
		zapLogger.Fatal("failed to init object store", zap.Error(err))
	}

	directory := users.NewDirectory(sqlxDB)

	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	if cfg.Notify.Enabled {
		dispatcher, err = notify.NewSESDispatcher(ctx, cfg.Notify.Region, cfg.Notify.SenderEmail, directory, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to init notification dispatcher", zap.Error(err))
		}
	}

	// ---------------- TEMPLATES ----------------
	templateRepo := templates.NewRepository(sqlxDB)
	templateService := templates.NewService(templateRepo, zapLogger)
	templateHandler := templates.NewHandler(templateService)

	// ---------------- DOCUMENTS ----------------
	documentRepo := documents.NewRepository(sqlxDB, cfg.Database.LockTimeout)
	storageProvider := documents.NewStorageProvider(objectStore)
	documentService := documents.NewService(documentRepo, templateService, directory, storageProvider, recorder, zapLogger)
	workflowService := documents.NewWorkflowService(documentRepo, recorder, zapLogger)
	documentHandler := documents.NewHandler(documentService, workflowService, dispatcher, recorder, zapLogger)

	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API alive!"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(auth.Middleware(cfg.Auth.JWTSecret))
	templateHandler.RegisterRoutes(v1)
	documentHandler.RegisterRoutes(v1)

	zapLogger.Info("server starting", zap.String("addr", cfg.Server.GetServerAddr()))
	if err := r.Run(cfg.Server.GetServerAddr()); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
