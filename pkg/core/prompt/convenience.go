package prompt

// Convenience functions for common prompt operations

// GetExtractionPrompt returns the system prompt for financial metric extraction
func GetExtractionPrompt() (string, error) {
	return Get().GetSystemPrompt(PromptIDs.ExtractionMetrics)
}

// GetQualitativePrompt returns a qualitative topic's system prompt
func GetQualitativePrompt(topic string) (string, error) {
	id := "qualitative." + topic
	return Get().GetSystemPrompt(id)
}

// GetSynthesisPrompt returns a synthesis stage system prompt
func GetSynthesisPrompt(stage string) (string, error) {
	id := "synthesis." + stage
	return Get().GetSystemPrompt(id)
}

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	// Extraction
	ExtractionMetrics string

	// Qualitative topic battery
	QualitativeOutlook       string
	QualitativeThemes        string
	QualitativeRisks         string
	QualitativeOpportunities string
	QualitativeSentiment     string

	// Synthesis
	SynthesisTrends  string
	SynthesisOutlook string
}{
	ExtractionMetrics: "extraction.metrics",

	QualitativeOutlook:       "qualitative.outlook",
	QualitativeThemes:        "qualitative.themes",
	QualitativeRisks:         "qualitative.risks",
	QualitativeOpportunities: "qualitative.opportunities",
	QualitativeSentiment:     "qualitative.sentiment",

	SynthesisTrends:  "synthesis.trends",
	SynthesisOutlook: "synthesis.outlook",
}
