package mentor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/harish-arikkara/learning-platform/internal/cache"
	"github.com/harish-arikkara/learning-platform/internal/llm"
	"github.com/harish-arikkara/learning-platform/internal/models"
)

const (
	maxSuggestions = 4
	// once a transcript reaches this many messages we keep a rolling summary
	summaryThreshold = 10
	// only the most recent messages are sent verbatim to the model
	recentWindow = 6
)

// Completer is the slice of the LLM client the engine needs.
type Completer interface {
	GenerateChatCompletion(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error)
}

// Engine turns learner context and chat history into mentor replies.
type Engine struct {
	llm        Completer
	prompts    *PromptSet
	summaries  cache.Cache
	summaryTTL time.Duration
}

// NewEngine wires the engine with its LLM backend, prompt registry and
// summary cache.
func NewEngine(completer Completer, prompts *PromptSet, summaries cache.Cache, summaryTTL time.Duration) *Engine {
	if summaryTTL <= 0 {
		summaryTTL = 24 * time.Hour
	}
	return &Engine{
		llm:        completer,
		prompts:    prompts,
		summaries:  summaries,
		summaryTTL: summaryTTL,
	}
}

// ChatParams carries everything a chat turn depends on.
type ChatParams struct {
	History         []models.ChatMessage
	UserID          uint
	Title           string
	LearningGoal    string
	Skills          []string
	Difficulty      string
	Role            string
	Topics          []string
	CurrentTopic    string
	CompletedTopics []string
}

// IntroResult is the outcome of starting a session.
type IntroResult struct {
	Intro       string
	Topics      []string
	Suggestions []string
}

func sanitize(s string) string {
	return strings.TrimSpace(s)
}

// GenerateIntroAndTopics asks the model for a greeting, a learning path and
// starter suggestions. Any failure degrades to canned content.
func (e *Engine) GenerateIntroAndTopics(ctx context.Context, contextDescription, extraInstructions, role string) IntroResult {
	if role == "" {
		role = "default"
	}

	prompt := expand(e.prompts.Tasks.GenerateIntroAndTopics, map[string]string{
		"context_description": sanitize(contextDescription),
		"role_prompt":         sanitize(e.prompts.RoleInstruction(role)),
		"default_behavior":    sanitize(e.prompts.DefaultInstructions),
		"extra_instructions":  sanitize(extraInstructions),
	})

	raw, err := e.llm.GenerateChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.Options{Temperature: 0.5, MaxTokens: 2048, JSONMode: true})
	if err != nil {
		log.Printf("mentor: intro generation failed: %v", err)
		return fallbackIntro()
	}

	obj, ok := parseObject(raw)
	if !ok {
		log.Printf("mentor: intro response not parseable: %.200s", raw)
		return fallbackIntro()
	}

	greeting := stringField(obj, "greeting")
	topics := listField(obj, "topics")
	question := stringField(obj, "concluding_question")
	suggestions := listField(obj, "suggestions")

	if greeting == "" {
		greeting = "Hello! I'm your AI mentor, ready to guide you through your learning journey."
	}
	if len(topics) == 0 {
		topics = []string{"Introduction", "Core Concepts", "Practical Applications", "Advanced Topics"}
	}
	if question == "" {
		question = "What would you like to explore first?"
	}
	if len(suggestions) == 0 {
		suggestions = []string{"What should I focus on?", "Can you explain the basics?", "Show me examples", "How does this work?"}
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	intro := fmt.Sprintf("%s\n\nHere are the topics we'll explore:\n- %s\n\n%s",
		greeting, strings.Join(topics, "\n- "), question)

	return IntroResult{Intro: intro, Topics: topics, Suggestions: suggestions}
}

func fallbackIntro() IntroResult {
	return IntroResult{
		Intro:  "Hello! I'm your AI mentor, ready to guide you through your learning journey.\n\nLet's start exploring together!",
		Topics: []string{"Introduction", "Core Concepts", "Practical Applications", "Advanced Topics"},
		Suggestions: []string{
			"What should I focus on first?",
			"Can you explain the basics?",
			"Show me an example",
			"How does this apply to real world?",
		},
	}
}

// Chat produces the mentor's next reply plus follow-up suggestions.
// The engine never fails a turn: parse or transport problems fall back to
// apologetic canned content so the conversation can continue.
func (e *Engine) Chat(ctx context.Context, p ChatParams) (string, []string) {
	if len(p.History) == 0 {
		return "Please start the conversation with a message.", nil
	}
	if p.Role == "" {
		p.Role = "default"
	}

	summary := e.conversationSummary(ctx, p.UserID, p.Title, p.History)

	contextLines := []string{"Role: " + p.Role}
	if p.LearningGoal != "" {
		contextLines = append(contextLines, "Learning Goal: "+p.LearningGoal)
	}
	if len(p.Skills) > 0 {
		contextLines = append(contextLines, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if p.Difficulty != "" {
		contextLines = append(contextLines, "Difficulty: "+p.Difficulty)
	}
	if len(p.Topics) > 0 {
		contextLines = append(contextLines, "Topics: "+strings.Join(p.Topics, ", "))
	}
	if p.CurrentTopic != "" {
		contextLines = append(contextLines, "Current Topic: "+p.CurrentTopic)
	}
	if len(p.CompletedTopics) > 0 {
		contextLines = append(contextLines, "Completed Topics: "+strings.Join(p.CompletedTopics, ", "))
	}

	systemPrompt := expand(e.prompts.Tasks.Chat.SystemPrompt, map[string]string{
		"context_summary":         strings.Join(contextLines, "\n"),
		"role_instruction":        e.prompts.RoleInstruction(p.Role),
		"default_instruction":     e.prompts.DefaultInstructions,
		"json_output_instruction": e.prompts.Shared.JSONOutputFormat,
	})

	wrapperSummary := summary
	if wrapperSummary == "" {
		wrapperSummary = "(no prior summary)"
	}
	userPrompt := expand(e.prompts.Tasks.Chat.UserPromptWrapper, map[string]string{
		"summary": wrapperSummary,
	})

	recent := p.History
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	messages := make([]llm.Message, 0, len(recent)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range recent {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: userPrompt})

	raw, err := e.llm.GenerateChatCompletion(ctx, messages,
		llm.Options{Temperature: 0.5, MaxTokens: 1500, JSONMode: true})
	if err != nil {
		log.Printf("mentor: chat generation failed for user=%d title=%s: %v", p.UserID, p.Title, err)
		return "Sorry, I had trouble generating a response. Please try again.", fallbackSuggestions()
	}

	reply := ""
	var suggestions []string
	if obj, ok := parseObject(raw); ok {
		reply = stringField(obj, "response", "reply", "content")
		suggestions = listField(obj, "suggestions", "follow_up", "prompts")
	} else {
		// 解析失败时直接把原文当作回复，聊胜于无
		reply = sanitize(raw)
	}

	if reply == "" {
		reply = "I'm having trouble formatting my response. Could you please rephrase your question?"
	}
	if len(suggestions) == 0 {
		suggestions = fallbackSuggestions()
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return reply, suggestions
}

func fallbackSuggestions() []string {
	return []string{
		"Can you explain more?",
		"What should I know next?",
		"Give me an example",
		"What's the next step?",
	}
}

// conversationSummary returns the rolling summary for long transcripts,
// regenerating it through the model and caching the result.
func (e *Engine) conversationSummary(ctx context.Context, userID uint, title string, history []models.ChatMessage) string {
	key := summaryKey(userID, title)
	if len(history) < summaryThreshold {
		s, _ := e.summaries.Get(key)
		return s
	}

	payload, err := json.Marshal(history)
	if err != nil {
		s, _ := e.summaries.Get(key)
		return s
	}

	prompt := e.prompts.Tasks.SummarizeConversation + "\n\n" + string(payload)
	raw, err := e.llm.GenerateChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.Options{Temperature: 0.3, MaxTokens: 1024})
	if err != nil {
		log.Printf("mentor: summary generation failed for title=%s: %v", title, err)
		s, _ := e.summaries.Get(key)
		return s
	}

	summary := sanitize(raw)
	if summary != "" {
		e.summaries.Set(key, summary, e.summaryTTL)
	}
	return summary
}

func summaryKey(userID uint, title string) string {
	return fmt.Sprintf("summary:%d:%s", userID, title)
}

// GenerateTopicPrompts suggests up to 4 starter questions for a topic.
func (e *Engine) GenerateTopicPrompts(ctx context.Context, topic, contextDescription, role string) []string {
	if role == "" {
		role = "default"
	}

	prompt := expand(e.prompts.Tasks.GenerateTopicPrompts, map[string]string{
		"topic":               sanitize(topic),
		"role_prompt":         sanitize(e.prompts.RoleInstruction(role)),
		"context_description": sanitize(contextDescription),
	})

	raw, err := e.llm.GenerateChatCompletion(ctx,
		[]llm.Message{{Role: "user", Content: prompt}},
		llm.Options{Temperature: 0.5, MaxTokens: 1024, JSONMode: true})

	var prompts []string
	if err != nil {
		log.Printf("mentor: topic prompts failed for %q: %v", topic, err)
	} else {
		prompts = parseStringList(raw, "prompts", "questions", "suggestions")
	}

	if len(prompts) == 0 {
		prompts = []string{
			fmt.Sprintf("What are the basics of %s?", topic),
			fmt.Sprintf("Give me an example of %s", topic),
			fmt.Sprintf("How to apply %s in practice?", topic),
			fmt.Sprintf("What are common mistakes with %s?", topic),
		}
	}
	if len(prompts) > maxSuggestions {
		prompts = prompts[:maxSuggestions]
	}
	return prompts
}
