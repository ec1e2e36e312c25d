package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/models"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware 校验 JWT，并在 context 里放入当前用户。
// Tokens carry a login-session id so logout can revoke them server side.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) URL 查询参数 ?token=xxx（用于下载等无法自定义 Header 的场景）
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		// 3) Cookie mt_token
		if tokenStr == "" {
			if cookie, err := c.Cookie("mt_token"); err == nil {
				tokenStr = cookie
			}
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "login expired, please sign in again")
			c.Abort()
			return
		}

		// 服务端会话可以被注销，单靠 JWT 过期时间不够
		if claims.SessionID != "" {
			var session models.LoginSession
			if err := db.First(&session, "id = ?", claims.SessionID).Error; err != nil ||
				session.Revoked || session.ExpiresAt.Before(time.Now()) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "login expired, please sign in again")
				c.Abort()
				return
			}
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "user not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query user")
			}
			c.Abort()
			return
		}

		c.Set("currentUser", &user)
		c.Set("sessionID", claims.SessionID)
		c.Next()
	}
}
