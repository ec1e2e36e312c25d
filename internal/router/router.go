package router

import (
	"net/http"

	"github.com/harish-arikkara/learning-platform/internal/config"
	"github.com/harish-arikkara/learning-platform/internal/handler"
	"github.com/harish-arikkara/learning-platform/internal/mentor"
	"github.com/harish-arikkara/learning-platform/internal/middleware"
	"github.com/harish-arikkara/learning-platform/internal/speech"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// corsMiddleware mirrors the permissive CORS stance of the original API;
// the frontend is served from a different origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter configures the Gin engine and all API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, engine *mentor.Engine, tts *speech.Client) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), corsMiddleware())

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Mentora API is running"})
	})

	// ====== API ======
	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	// 登录/注册接口（不需要鉴权）
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db, cfg.Security.EncryptionKey),
	)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe)

	sessionHandler := handler.NewSessionHandler(db, engine, cfg.Security.EncryptionKey, cfg.App.PageSize)
	protected.POST("/sessions", sessionHandler.StartSession)
	protected.POST("/sessions/chat", sessionHandler.Chat)
	protected.GET("/sessions", sessionHandler.ListSessions)
	protected.GET("/sessions/messages", sessionHandler.GetMessages)
	protected.POST("/topics/prompts", sessionHandler.TopicPrompts)

	speechHandler := handler.NewSpeechHandler(tts)
	protected.POST("/speech", speechHandler.Synthesize)

	exportHandler := handler.NewExportHandler(db, cfg.Security.EncryptionKey)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	protected.POST("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db))

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey)
	protected.GET("/logs", logHandler.ListLogs)

	return r
}
