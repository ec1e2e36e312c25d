package handler

import (
	"net/http"

	"github.com/harish-arikkara/learning-platform/internal/models"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser 从 context 里取出 AuthMiddleware 放入的用户
func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
		return nil, false
	}
	return user, true
}

// GetMe 返回当前登录用户信息（需要经过 AuthMiddleware）
func GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
			"email":        user.Email,
			"firm":         user.Firm,
			"unit":         user.Unit,
			"location":     user.Location,
			"created_at":   user.CreatedAt,
		},
	})
}
