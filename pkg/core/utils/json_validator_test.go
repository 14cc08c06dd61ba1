package utils

import (
	"strings"
	"testing"
)

type metricsSchema struct {
	Quarter       string   `json:"quarter"`
	TotalRevenue  string   `json:"total_revenue"`
	KeyHighlights []string `json:"key_highlights" llm:"optional"`
	SourceID      string   `json:"source_id" llm:"optional"`
}

func TestValidateJSONAcceptsCompleteObject(t *testing.T) {
	data := `{"quarter": "Q1 FY2024", "total_revenue": "₹59,162 crores"}`
	var s metricsSchema
	if err := ValidateJSON(data, &s); err != nil {
		t.Fatalf("ValidateJSON: %v", err)
	}
	if s.Quarter != "Q1 FY2024" {
		t.Errorf("quarter = %q", s.Quarter)
	}
}

func TestValidateJSONRejectsMissingRequiredField(t *testing.T) {
	data := `{"quarter": "Q1 FY2024"}`
	var s metricsSchema
	err := ValidateJSON(data, &s)
	if err == nil {
		t.Fatal("expected schema violation for empty required field")
	}
	if !strings.Contains(err.Error(), "JSON_SCHEMA_VIOLATION") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "TotalRevenue") {
		t.Errorf("error does not name the field: %v", err)
	}
}

func TestValidateJSONOptionalFieldsMayBeEmpty(t *testing.T) {
	data := `{"quarter": "Q1 FY2024", "total_revenue": "N/A"}`
	var s metricsSchema
	if err := ValidateJSON(data, &s); err != nil {
		t.Errorf("optional fields should not be required: %v", err)
	}
}

func TestValidateJSONStructuralError(t *testing.T) {
	var s metricsSchema
	err := ValidateJSON(`{"quarter": `, &s)
	if err == nil || !strings.Contains(err.Error(), "JSON_STRUCTURAL_ERROR") {
		t.Errorf("error = %v", err)
	}
}

func TestSmartParseStandardJSON(t *testing.T) {
	var s metricsSchema
	out, err := SmartParse(`{"quarter": "Q1", "total_revenue": "x"}`, &s)
	if err != nil {
		t.Fatalf("SmartParse: %v", err)
	}
	if out == "" || s.Quarter != "Q1" {
		t.Errorf("out = %q, schema = %+v", out, s)
	}
}

func TestSmartParseRepairsMalformedJSON(t *testing.T) {
	// Trailing comma and unclosed brace, typical LLM output damage.
	input := `{"quarter": "Q1 FY2024", "total_revenue": "₹59,162 crores",`
	var s metricsSchema
	if _, err := SmartParse(input, &s); err != nil {
		t.Fatalf("SmartParse should repair: %v", err)
	}
	if s.Quarter != "Q1 FY2024" {
		t.Errorf("quarter = %q", s.Quarter)
	}
}

func TestSmartParseHJSONFallback(t *testing.T) {
	// Unquoted keys parse as Hjson.
	input := `{
  quarter: Q1 FY2024
  total_revenue: revenue text
}`
	var s metricsSchema
	if _, err := SmartParse(input, &s); err != nil {
		t.Fatalf("SmartParse should accept hjson: %v", err)
	}
	if s.Quarter != "Q1 FY2024" {
		t.Errorf("quarter = %q", s.Quarter)
	}
}

func TestSmartParseFailsOnProse(t *testing.T) {
	var s metricsSchema
	if _, err := SmartParse("", &s); err == nil {
		t.Error("empty input should fail")
	}
}

func TestSafeTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 100, "short"},
		{"abcdef", 3, "abc"},
		{"₹₹₹", 4, "₹"}, // 4 lands mid-rune, back up to 3
		{"₹₹₹", 6, "₹₹"},
		{"anything", 0, ""},
	}
	for _, c := range cases {
		if got := SafeTruncate(c.in, c.max); got != c.want {
			t.Errorf("SafeTruncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestCleanMarkdown(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```markdown\n# Outlook\nStable.\n```", "# Outlook\nStable."},
		{"```\nplain fenced\n```", "plain fenced"},
		{"  no fences here  ", "no fences here"},
	}
	for _, c := range cases {
		if got := CleanMarkdown(c.in); got != c.want {
			t.Errorf("CleanMarkdown(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
