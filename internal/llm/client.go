package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/config"
)

// 需要覆盖的有害内容类别，阈值统一从配置读取
var harmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// Client talks to the Gemini generateContent REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	threshold  string
	maxRetries int
}

// NewClient builds a Gemini client from configuration.
func NewClient(cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key is not set")
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		threshold:  cfg.SafetyThreshold,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// prepareContents 把通用消息转成 Gemini 角色；system 消息提升为首条 user。
func prepareContents(messages []Message) []generateContent {
	var system string
	contents := make([]generateContent, 0, len(messages))
	for _, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			system = m.Content
		case "user":
			contents = append(contents, generateContent{Role: "user", Parts: []generatePart{{Text: m.Content}}})
		case "assistant":
			contents = append(contents, generateContent{Role: "model", Parts: []generatePart{{Text: m.Content}}})
		}
	}
	if system != "" {
		contents = append([]generateContent{{Role: "user", Parts: []generatePart{{Text: system}}}}, contents...)
	}
	return contents
}

func buildGenerationConfig(opts Options) generationConfig {
	temperature := opts.Temperature
	if temperature < 0 {
		temperature = 0
	}
	if temperature > 2 {
		temperature = 2
	}
	maxTokens := opts.MaxTokens
	if maxTokens < 1 {
		maxTokens = 1024
	}
	if maxTokens > 8192 {
		maxTokens = 8192
	}
	cfg := generationConfig{Temperature: temperature, MaxOutputTokens: maxTokens}
	if opts.JSONMode {
		cfg.ResponseMimeType = "application/json"
	}
	return cfg
}

func (c *Client) safetySettings() []safetySetting {
	out := make([]safetySetting, 0, len(harmCategories))
	for _, cat := range harmCategories {
		out = append(out, safetySetting{Category: cat, Threshold: c.threshold})
	}
	return out
}

// GenerateChatCompletion sends the conversation to the model and returns the
// text of the first candidate. Transient failures are retried.
func (c *Client) GenerateChatCompletion(ctx context.Context, messages []Message, opts Options) (string, error) {
	contents := prepareContents(messages)
	if len(contents) == 0 {
		return "", fmt.Errorf("no messages to send")
	}

	body := generateRequest{
		Contents:         contents,
		GenerationConfig: buildGenerationConfig(opts),
		SafetySettings:   c.safetySettings(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var resp generateResponse
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
			return fmt.Errorf("status %d: %s", res.StatusCode, string(data))
		}
		resp = generateResponse{}
		return json.NewDecoder(res.Body).Decode(&resp)
	}

	if err := retry(ctx, c.maxRetries, time.Second, attempt); err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("api error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	log.Printf("llm: response length=%d tokens=%d", sb.Len(), resp.UsageMetadata.TotalTokenCount)
	return sb.String(), nil
}

func retry(ctx context.Context, attempts int, sleep time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
	return err
}
