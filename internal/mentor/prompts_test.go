package mentor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsMissingFileUsesDefaults(t *testing.T) {
	p := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml"))
	if p == nil {
		t.Fatal("LoadPrompts returned nil")
	}
	if err := p.validate(); err != nil {
		t.Errorf("default prompts should validate: %v", err)
	}
}

func TestLoadPromptsFromFile(t *testing.T) {
	content := `
default_instructions: base
roles:
  default: generic mentor
  developer: dev mentor
tasks:
  generate_intro_and_topics: intro {role_prompt}
  chat:
    system_prompt: sys {context_summary}
    user_prompt_wrapper: wrap {summary}
  summarize_conversation: summarize
  generate_topic_prompts: topics {topic}
shared_components:
  json_output_format: json please
`
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := LoadPrompts(path)
	if p.DefaultInstructions != "base" {
		t.Errorf("DefaultInstructions = %q", p.DefaultInstructions)
	}
	if got := p.RoleInstruction("developer"); got != "dev mentor" {
		t.Errorf("RoleInstruction(developer) = %q", got)
	}
	if got := p.RoleInstruction("astronaut"); got != "generic mentor" {
		t.Errorf("RoleInstruction(unknown) = %q, want default", got)
	}
	if p.Shared.JSONOutputFormat != "json please" {
		t.Errorf("JSONOutputFormat = %q", p.Shared.JSONOutputFormat)
	}
}

func TestLoadPromptsIncompleteFallsBack(t *testing.T) {
	// roles.default 缺失时要回退到内置模板
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(path, []byte("roles:\n  developer: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := LoadPrompts(path)
	if p.Roles["default"] == "" {
		t.Error("incomplete file should fall back to defaults")
	}
}

func TestExpand(t *testing.T) {
	got := expand("hello {name}, topic {topic}", map[string]string{
		"name":  "dev",
		"topic": "maps",
	})
	if got != "hello dev, topic maps" {
		t.Errorf("expand = %q", got)
	}

	// unknown placeholders are left alone
	got = expand("keep {unknown}", map[string]string{"name": "x"})
	if got != "keep {unknown}" {
		t.Errorf("expand = %q", got)
	}
}

func TestShippedPromptsFile(t *testing.T) {
	p := LoadPrompts(filepath.Join("..", "..", "prompts.yaml"))
	if err := p.validate(); err != nil {
		t.Fatalf("shipped prompts.yaml invalid: %v", err)
	}
	for _, role := range []string{"default", "developer", "data_scientist", "product_manager", "student"} {
		if p.Roles[role] == "" {
			t.Errorf("role %q missing from shipped prompts.yaml", role)
		}
	}
}
