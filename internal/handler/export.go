package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/models"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler 导出会话记录
type ExportHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewExportHandler(db *gorm.DB, encryptKey string) *ExportHandler {
	return &ExportHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

// loadTranscript 取出当前用户指定会话的解密消息
func (h *ExportHandler) loadTranscript(c *gin.Context) (string, []models.ChatMessage, bool) {
	user, ok := currentUser(c)
	if !ok {
		return "", nil, false
	}

	title := c.Query("title")
	if title == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "title is required")
		return "", nil, false
	}

	var session models.ChatSession
	if err := h.DB.Where("user_id = ? AND title = ?", user.ID, title).
		First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "session not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query session")
		}
		return "", nil, false
	}

	sh := SessionHandler{DB: h.DB, EncryptKey: h.EncryptKey}
	return session.Title, sh.decryptMessages(session.MessagesEnc), true
}

func formatTimestamp(ts float64) string {
	if ts <= 0 {
		return ""
	}
	return time.Unix(int64(ts), 0).Format("2006-01-02 15:04:05")
}

// ExportCSV 导出会话记录为 CSV
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	title, messages, ok := h.loadTranscript(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", title))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	// UTF-8 BOM（让 Excel 正确识别非 ASCII 内容）
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer.Write([]string{"Time", "Role", "Content"})
	for _, m := range messages {
		writer.Write([]string{
			formatTimestamp(m.Timestamp),
			m.Role,
			m.Content,
		})
	}
}

// ExportXLSX 导出会话记录为 XLSX
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	title, messages, ok := h.loadTranscript(c)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Transcript"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)

	headers := []string{"Time", "Role", "Content"}
	for i, name := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, name)
	}

	for idx, m := range messages {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), formatTimestamp(m.Timestamp))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), m.Role)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), m.Content)
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 80)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", title))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
