package handler

import (
	"net/http"
	"strings"

	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UpdateProfileReq 更新基本资料请求
type UpdateProfileReq struct {
	DisplayName string `json:"display_name" binding:"max=64"`
	Firm        string `json:"firm" binding:"max=64"`
	Unit        string `json:"unit" binding:"max=64"`
	Location    string `json:"location" binding:"max=64"`
}

// ChangePasswordReq 修改密码请求
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateProfile 更新当前用户的昵称等资料
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req UpdateProfileReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
			return
		}

		updates := map[string]interface{}{
			"display_name": strings.TrimSpace(req.DisplayName),
			"firm":         strings.TrimSpace(req.Firm),
			"unit":         strings.TrimSpace(req.Unit),
			"location":     strings.TrimSpace(req.Location),
		}
		if err := db.Model(user).Updates(updates).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update profile")
			return
		}

		util.Success(c, util.Response{
			"user": gin.H{
				"id":           user.ID,
				"username":     user.Username,
				"display_name": user.DisplayName,
				"firm":         user.Firm,
				"unit":         user.Unit,
				"location":     user.Location,
			},
		})
	}
}

// ChangePassword 修改当前用户密码
func ChangePassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		var req ChangePasswordReq
		if err := c.ShouldBindJSON(&req); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
			return
		}

		// 校验旧密码
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "old password is incorrect")
			return
		}

		if !util.IsStrongPassword(req.NewPassword) {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "password must be 8-32 characters with upper, lower and digit")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
			return
		}

		if err := db.Model(user).Update("password_hash", string(hash)).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to update password")
			return
		}

		util.Success(c, util.Response{
			"message": "password changed, please sign in again",
		})
	}
}
