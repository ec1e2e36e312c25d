package middleware

import (
	"bytes"
	"io"

	"github.com/harish-arikkara/learning-platform/internal/models"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware 记录登录用户的操作，path/action 加密入库。
// Chat bodies carry the learner's words, so oversized bodies are not logged.
func AuditMiddleware(db *gorm.DB, encryptKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 读取请求体
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		// 执行请求
		c.Next()

		// 只记录登录用户的操作
		var userID uint
		if v, ok := c.Get("currentUser"); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}
		if userID == 0 {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(bodyBytes) > 0 && len(bodyBytes) < 2000 {
			action += " " + string(bodyBytes)
		}

		encPath, _ := util.EncryptField(encryptKey, path)
		encAction, _ := util.EncryptField(encryptKey, action)

		entry := models.AuditLog{
			UserID:    &userID,
			Method:    c.Request.Method,
			PathEnc:   encPath,
			ActionEnc: encAction,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		_ = db.Create(&entry).Error
	}
}
