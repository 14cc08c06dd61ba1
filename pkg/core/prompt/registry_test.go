package prompt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := Get()
	r.Clear()
	defer r.Clear()

	if err := r.Register(&PromptTemplate{ID: "extraction.metrics", SystemPrompt: "extract", Category: "extraction"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&PromptTemplate{}); err == nil {
		t.Error("empty ID should be rejected")
	}

	got, err := r.GetSystemPrompt("extraction.metrics")
	if err != nil || got != "extract" {
		t.Errorf("GetSystemPrompt = (%q, %v)", got, err)
	}
	if _, err := r.GetPrompt("missing.id"); err == nil {
		t.Error("unknown id should error")
	}
	if n := len(r.ListByCategory("extraction")); n != 1 {
		t.Errorf("ListByCategory = %d entries", n)
	}
}

func TestLoadFromDirectory(t *testing.T) {
	r := Get()
	r.Clear()
	defer r.Clear()

	base := t.TempDir()
	dir := filepath.Join(base, "prompts", "qualitative")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	// No explicit id: derived from the path.
	data := `{"system_prompt": "analyze the excerpts"}`
	if err := os.WriteFile(filepath.Join(dir, "outlook.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadFromDirectory(base); err != nil {
		t.Fatalf("LoadFromDirectory: %v", err)
	}

	pt, err := r.GetPrompt("qualitative.outlook")
	if err != nil {
		t.Fatalf("prompt not registered: %v", err)
	}
	if pt.Category != "qualitative" {
		t.Errorf("category = %q", pt.Category)
	}
	if pt.SystemPrompt != "analyze the excerpts" {
		t.Errorf("system prompt = %q", pt.SystemPrompt)
	}
}

func TestLoadFromDirectoryMissing(t *testing.T) {
	if err := LoadFromDirectory(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("missing prompts directory should error")
	}
}

func TestRenderUserPrompt(t *testing.T) {
	pt := &PromptTemplate{
		ID:             "test.render",
		UserPromptTmpl: "Analyze {{.Company}} over {{.Quarters}} quarters.",
	}
	ctx := NewContext().Set("Company", "TCS").Set("Quarters", 2)

	got, err := RenderUserPrompt(pt, ctx)
	if err != nil {
		t.Fatalf("RenderUserPrompt: %v", err)
	}
	if got != "Analyze TCS over 2 quarters." {
		t.Errorf("rendered = %q", got)
	}
}
