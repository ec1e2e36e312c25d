package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/mentor"
	"github.com/harish-arikkara/learning-platform/internal/models"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// extraIntroInstructions 在开场白生成时附加的导师行为约束
const extraIntroInstructions = "You are a mentor who is very interactive and strict to particular domain. " +
	"If someone asks something not related to that domain, give a polite fallback. " +
	"Ask questions, quiz the user, summarize lessons, and check understanding."

const introClosing = "\n\nFeel free to ask questions anytime. Are you ready to begin?"

// SessionHandler 负责导师会话相关接口
type SessionHandler struct {
	DB         *gorm.DB
	Engine     *mentor.Engine
	EncryptKey string
	PageSize   int
}

func NewSessionHandler(db *gorm.DB, engine *mentor.Engine, encryptKey string, pageSize int) *SessionHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &SessionHandler{
		DB:         db,
		Engine:     engine,
		EncryptKey: encryptKey,
		PageSize:   pageSize,
	}
}

// ---------- 请求/响应结构 ----------

type startSessionReq struct {
	LearningGoal string   `json:"learning_goal" binding:"max=255"`
	Skills       []string `json:"skills" binding:"required,min=1"`
	Difficulty   string   `json:"difficulty" binding:"required"`
	Role         string   `json:"role" binding:"required,max=64"`
}

type chatReq struct {
	Title   string               `json:"chat_title" binding:"required,max=128"`
	History []models.ChatMessage `json:"chat_history" binding:"required"`
}

type topicPromptReq struct {
	Topic string `json:"topic" binding:"required"`
}

// ---------- JSON 列辅助 ----------

func encodeStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func decodeStringList(s string) []string {
	var out []string
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}

// encryptMessages 把消息记录序列化并加密
func (h *SessionHandler) encryptMessages(messages []models.ChatMessage) (string, error) {
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}
	return util.EncryptField(h.EncryptKey, string(b))
}

// decryptMessages 解密并反序列化消息记录；坏数据退回空列表
func (h *SessionHandler) decryptMessages(enc string) []models.ChatMessage {
	plain := util.DecryptField(h.EncryptKey, enc)
	var out []models.ChatMessage
	if err := json.Unmarshal([]byte(plain), &out); err != nil {
		return []models.ChatMessage{}
	}
	return out
}

// buildContextDescription 把偏好拼成喂给引擎的上下文描述
func buildContextDescription(learningGoal string, skills []string, difficulty, role string) string {
	var lines []string
	if learningGoal != "" {
		lines = append(lines, "Learning Goal: "+learningGoal)
	}
	lines = append(lines, "Skills/Interests: "+strings.Join(skills, ", "))
	lines = append(lines, "Difficulty: "+difficulty)
	lines = append(lines, "User Role: "+role)
	return strings.Join(lines, "\n")
}

// unixTimestamp 返回秒级 Unix 时间戳（保留毫秒小数，和前端约定一致）
func unixTimestamp() float64 {
	return float64(time.Now().UnixMilli()) / 1000
}

// generateTitle 生成形如 Goal_20250131120000_ab12 的会话标题
func generateTitle(learningGoal string, skills []string) string {
	base := learningGoal
	if base == "" && len(skills) > 0 {
		base = skills[0]
	}
	slug := util.SanitizeTitlePart(base)
	return fmt.Sprintf("%s_%s_%s", slug, time.Now().Format("20060102150405"), uuid.NewString()[:4])
}

// ---------- 开始会话 ----------

func (h *SessionHandler) StartSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req startSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	if err := util.ValidateDifficulty(req.Difficulty); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	// 偏好随每次新会话更新
	pref := models.Preference{
		UserID:       user.ID,
		LearningGoal: strings.TrimSpace(req.LearningGoal),
		Skills:       encodeStringList(req.Skills),
		Difficulty:   req.Difficulty,
		Role:         req.Role,
	}
	if err := h.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&pref).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save preferences")
		return
	}

	contextDesc := buildContextDescription(pref.LearningGoal, req.Skills, req.Difficulty, req.Role)
	result := h.Engine.GenerateIntroAndTopics(c.Request.Context(), contextDesc, extraIntroInstructions, req.Role)

	currentTopic := ""
	if len(result.Topics) > 0 {
		currentTopic = result.Topics[0]
	}

	title := generateTitle(pref.LearningGoal, req.Skills)

	introMsg := models.ChatMessage{
		Role:      "assistant",
		Content:   strings.TrimSpace(result.Intro + introClosing),
		Timestamp: unixTimestamp(),
	}

	enc, err := h.encryptMessages([]models.ChatMessage{introMsg})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt transcript")
		return
	}

	session := models.ChatSession{
		UserID:          user.ID,
		Title:           title,
		MessagesEnc:     enc,
		Topics:          encodeStringList(result.Topics),
		CurrentTopic:    currentTopic,
		CompletedTopics: encodeStringList(nil),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create session")
		return
	}

	util.Success(c, util.Response{
		"intro_and_topics": introMsg.Content,
		"title":            title,
		"topics":           result.Topics,
		"current_topic":    currentTopic,
		"suggestions":      result.Suggestions,
	})
}

// ---------- 聊一轮 ----------

func (h *SessionHandler) Chat(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	// 会话状态：找不到记录时按全新会话处理
	var session models.ChatSession
	found := true
	if err := h.DB.Where("user_id = ? AND title = ?", user.ID, req.Title).
		First(&session).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query session")
			return
		}
		found = false
	}

	topics := decodeStringList(session.Topics)
	completed := decodeStringList(session.CompletedTopics)

	// 偏好缺省值与原始行为保持一致
	var pref models.Preference
	if err := h.DB.First(&pref, "user_id = ?", user.ID).Error; err != nil {
		pref = models.Preference{Difficulty: "medium", Role: "default"}
	}

	reply, suggestions := h.Engine.Chat(c.Request.Context(), mentor.ChatParams{
		History:         req.History,
		UserID:          user.ID,
		Title:           req.Title,
		LearningGoal:    pref.LearningGoal,
		Skills:          decodeStringList(pref.Skills),
		Difficulty:      pref.Difficulty,
		Role:            pref.Role,
		Topics:          topics,
		CurrentTopic:    session.CurrentTopic,
		CompletedTopics: completed,
	})

	mentorMsg := models.ChatMessage{
		Role:      "assistant",
		Content:   reply,
		Timestamp: unixTimestamp(),
	}
	updated := append(req.History, mentorMsg)

	enc, err := h.encryptMessages(updated)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to encrypt transcript")
		return
	}

	if found {
		session.MessagesEnc = enc
		if err := h.DB.Save(&session).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save session")
			return
		}
	} else {
		session = models.ChatSession{
			UserID:          user.ID,
			Title:           req.Title,
			MessagesEnc:     enc,
			Topics:          encodeStringList(topics),
			CurrentTopic:    "",
			CompletedTopics: encodeStringList(completed),
		}
		if err := h.DB.Create(&session).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to save session")
			return
		}
	}

	util.Success(c, util.Response{
		"reply":       reply,
		"suggestions": suggestions,
	})
}

// ---------- 会话列表 ----------

func (h *SessionHandler) ListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}

	var total int64
	if err := h.DB.Model(&models.ChatSession{}).
		Where("user_id = ?", user.ID).
		Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query sessions")
		return
	}

	var sessions []models.ChatSession
	if err := h.DB.Select("title", "current_topic", "updated_at").
		Where("user_id = ?", user.ID).
		Order("updated_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&sessions).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query sessions")
		return
	}

	chats := make([]gin.H, 0, len(sessions))
	for i := range sessions {
		chats = append(chats, gin.H{
			"title":         sessions[i].Title,
			"current_topic": sessions[i].CurrentTopic,
			"updated_at":    sessions[i].UpdatedAt,
		})
	}

	util.Success(c, util.Response{
		"chats": chats,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

// ---------- 拉取会话消息与状态 ----------

func (h *SessionHandler) GetMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	title := c.Query("title")
	if title == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "title is required")
		return
	}

	var session models.ChatSession
	if err := h.DB.Where("user_id = ? AND title = ?", user.ID, title).
		First(&session).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// 与旧版行为一致：未知标题返回空会话而不是 404
			util.Success(c, util.Response{
				"messages": []models.ChatMessage{},
				"state":    gin.H{},
			})
			return
		}
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to query session")
		return
	}

	util.Success(c, util.Response{
		"messages": h.decryptMessages(session.MessagesEnc),
		"state": gin.H{
			"mentor_topics":    decodeStringList(session.Topics),
			"current_topic":    session.CurrentTopic,
			"completed_topics": decodeStringList(session.CompletedTopics),
		},
	})
}

// ---------- 话题起手式 ----------

func (h *SessionHandler) TopicPrompts(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req topicPromptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	if err := util.ValidateTopic(req.Topic); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	contextDesc := ""
	role := ""
	var pref models.Preference
	if err := h.DB.First(&pref, "user_id = ?", user.ID).Error; err == nil {
		contextDesc = buildContextDescription(pref.LearningGoal, decodeStringList(pref.Skills), pref.Difficulty, pref.Role)
		role = pref.Role
	}

	prompts := h.Engine.GenerateTopicPrompts(c.Request.Context(), req.Topic, contextDesc, role)

	util.Success(c, util.Response{
		"prompts": prompts,
	})
}
