package handler

import (
	"net/http"

	"github.com/harish-arikkara/learning-platform/internal/speech"
	"github.com/harish-arikkara/learning-platform/internal/util"

	"github.com/gin-gonic/gin"
)

// SpeechHandler 负责把导师回复合成为语音
type SpeechHandler struct {
	Client *speech.Client // nil 表示未配置
}

func NewSpeechHandler(client *speech.Client) *SpeechHandler {
	return &SpeechHandler{Client: client}
}

type synthesizeReq struct {
	Text string `json:"text" binding:"required,max=4096"`
}

// Synthesize 返回 base64 音频；未配置语音服务时返回 503
func (h *SpeechHandler) Synthesize(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	if h.Client == nil {
		util.Error(c, http.StatusServiceUnavailable, util.CodeUnavailable, "speech synthesis is not configured")
		return
	}

	var req synthesizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	audio, err := h.Client.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "speech synthesis failed")
		return
	}

	util.Success(c, util.Response{
		"audio":     audio, // base64
		"mime_type": h.Client.MimeType(),
	})
}
