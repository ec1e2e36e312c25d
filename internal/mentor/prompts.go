package mentor

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChatPrompts holds the two-part template for a chat turn.
type ChatPrompts struct {
	SystemPrompt      string `yaml:"system_prompt"`
	UserPromptWrapper string `yaml:"user_prompt_wrapper"`
}

// TaskPrompts groups every generation task template.
type TaskPrompts struct {
	GenerateIntroAndTopics string      `yaml:"generate_intro_and_topics"`
	Chat                   ChatPrompts `yaml:"chat"`
	SummarizeConversation  string      `yaml:"summarize_conversation"`
	GenerateTopicPrompts   string      `yaml:"generate_topic_prompts"`
}

// SharedComponents are fragments reused across tasks.
type SharedComponents struct {
	JSONOutputFormat string `yaml:"json_output_format"`
}

// PromptSet is the full prompt registry, normally loaded from prompts.yaml.
type PromptSet struct {
	DefaultInstructions string            `yaml:"default_instructions"`
	Roles               map[string]string `yaml:"roles"`
	Tasks               TaskPrompts       `yaml:"tasks"`
	Shared              SharedComponents  `yaml:"shared_components"`
}

// RoleInstruction resolves a role name, falling back to the default role.
func (p *PromptSet) RoleInstruction(role string) string {
	if s, ok := p.Roles[role]; ok {
		return s
	}
	return p.Roles["default"]
}

// LoadPrompts reads the registry from path. A missing or broken file is not
// fatal: the compiled-in defaults keep the engine usable.
func LoadPrompts(path string) *PromptSet {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("mentor: load prompts %s: %v, using defaults", path, err)
		return defaultPrompts()
	}
	var p PromptSet
	if err := yaml.Unmarshal(data, &p); err != nil {
		log.Printf("mentor: parse prompts %s: %v, using defaults", path, err)
		return defaultPrompts()
	}
	if err := p.validate(); err != nil {
		log.Printf("mentor: prompts %s incomplete: %v, using defaults", path, err)
		return defaultPrompts()
	}
	return &p
}

func (p *PromptSet) validate() error {
	if p.Roles == nil || p.Roles["default"] == "" {
		return fmt.Errorf("roles.default is required")
	}
	if p.Tasks.GenerateIntroAndTopics == "" ||
		p.Tasks.Chat.SystemPrompt == "" ||
		p.Tasks.Chat.UserPromptWrapper == "" ||
		p.Tasks.SummarizeConversation == "" ||
		p.Tasks.GenerateTopicPrompts == "" {
		return fmt.Errorf("tasks section is incomplete")
	}
	return nil
}

func defaultPrompts() *PromptSet {
	return &PromptSet{
		DefaultInstructions: "You are a helpful AI mentor. Stay on the learner's domain, quiz the user and check understanding.",
		Roles: map[string]string{
			"default": "You are a general mentor.",
		},
		Tasks: TaskPrompts{
			GenerateIntroAndTopics: "{default_behavior}\n{role_prompt}\n\nLearner context:\n{context_description}\n\n{extra_instructions}\n\n" +
				"Return a JSON object with fields greeting, topics (array), concluding_question and suggestions (array). Respond with JSON only.",
			Chat: ChatPrompts{
				SystemPrompt:      "{context_summary}\n{role_instruction}\n{default_instruction}\n{json_output_instruction}",
				UserPromptWrapper: "Summary of the conversation so far: {summary}\nContinue the conversation based on the recent messages.",
			},
			SummarizeConversation: "Summarize the key points of this mentoring conversation in at most 120 words. Respond with plain text only.",
			GenerateTopicPrompts:  "{role_prompt}\n\nLearner context:\n{context_description}\n\nReturn a JSON array of exactly 4 short starter questions about \"{topic}\". Respond with JSON only.",
		},
		Shared: SharedComponents{
			JSONOutputFormat: `Respond with a JSON object: {"response": "<your reply in Markdown>", "suggestions": ["q1", "q2", "q3"]}. At most 4 suggestions.`,
		},
	}
}

// expand fills {name} placeholders in a template.
func expand(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
