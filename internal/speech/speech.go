package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/config"
)

// Client calls a hosted text-to-speech REST API and returns base64 audio.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voice      string
	language   string
	encoding   string
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient builds a speech client; returns nil (disabled) without api key.
func NewClient(cfg config.SpeechConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		voice:      cfg.Voice,
		language:   cfg.LanguageCode,
		encoding:   cfg.AudioEncoding,
	}
}

// MimeType maps the configured audio encoding to a response content type.
func (c *Client) MimeType() string {
	switch c.encoding {
	case "OGG_OPUS":
		return "audio/ogg"
	case "LINEAR16":
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}

// Synthesize converts text to spoken audio, returned as base64.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("text is empty")
	}

	var body synthesizeRequest
	body.Input.Text = text
	body.Voice.LanguageCode = c.language
	body.Voice.Name = c.voice
	body.AudioConfig.AudioEncoding = c.encoding

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text:synthesize?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("status %d: %s", res.StatusCode, string(data))
	}

	var sr synthesizeResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if sr.Error != nil {
		return "", fmt.Errorf("api error %d: %s", sr.Error.Code, sr.Error.Message)
	}
	if sr.AudioContent == "" {
		return "", fmt.Errorf("empty audio content")
	}
	return sr.AudioContent, nil
}
