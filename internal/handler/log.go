package handler

import (
	"net/http"
	"strconv"

	"github.com/harish-arikkara/learning-platform/internal/models"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler 查询当前用户的操作日志
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

// ListLogs 返回解密后的审计日志，按时间倒序分页
func (h *LogHandler) ListLogs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}

	var total int64
	if err := h.DB.Model(&models.AuditLog{}).
		Where("user_id = ?", user.ID).
		Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
		return
	}

	var logs []models.AuditLog
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query logs")
		return
	}

	items := make([]gin.H, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, gin.H{
			"id":         l.ID,
			"method":     l.Method,
			"path":       util.DecryptField(h.EncryptKey, l.PathEnc),
			"action":     util.DecryptField(h.EncryptKey, l.ActionEnc),
			"ip":         l.IP,
			"user_agent": l.UserAgent,
			"created_at": l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
