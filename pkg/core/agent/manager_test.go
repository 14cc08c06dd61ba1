package agent

import (
	"testing"

	"financial_forecast/pkg/core/llm"
)

func TestGetProviderRoleOverride(t *testing.T) {
	m := NewManager(Config{
		ActiveProvider: "gemini",
		Agents: map[string]AgentConfig{
			"extraction": {Provider: "deepseek"},
		},
	})

	if _, ok := m.GetProvider("extraction").(*llm.DeepSeekProvider); !ok {
		t.Error("role override not honored")
	}
	if _, ok := m.GetProvider("synthesis").(*llm.GeminiProvider); !ok {
		t.Error("global active provider not used for roles without override")
	}
}

func TestGetProviderFallsBackToGemini(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "unknown"})
	if _, ok := m.GetProvider("anything").(*llm.GeminiProvider); !ok {
		t.Error("unknown active provider should fall back to gemini")
	}
}

func TestSetGlobalProvider(t *testing.T) {
	m := NewManager(Config{ActiveProvider: "gemini"})
	if err := m.SetGlobalProvider("deepseek"); err != nil {
		t.Fatalf("SetGlobalProvider: %v", err)
	}
	if m.GetActiveProvider() != "deepseek" {
		t.Errorf("active = %q", m.GetActiveProvider())
	}
	if err := m.SetGlobalProvider("mistral"); err == nil {
		t.Error("unknown provider should be rejected")
	}
}
