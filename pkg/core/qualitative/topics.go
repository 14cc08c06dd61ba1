// Package qualitative runs the fixed battery of retrieval-grounded analysis
// queries (outlook, themes, risks, opportunities, sentiment) against a
// transcript index and assembles cited findings.
package qualitative

import "context"

// AIProvider is the narrow LLM interface the analyzer consumes.
type AIProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// Topic enumerates the qualitative query battery. Each topic has one handler
// with its own retrieval call; degrade-on-failure policy is uniform.
type Topic string

const (
	TopicOutlook       Topic = "outlook"
	TopicThemes        Topic = "themes"
	TopicRisks         Topic = "risks"
	TopicOpportunities Topic = "opportunities"
	TopicSentiment     Topic = "sentiment"
)

// AllTopics returns the battery in its fixed execution order.
func AllTopics() []Topic {
	return []Topic{TopicOutlook, TopicThemes, TopicRisks, TopicOpportunities, TopicSentiment}
}

// Citation ties a finding back to a specific transcript chunk.
type Citation struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Excerpt    string `json:"excerpt"`
}

// Finding is the analyzed output for one topic. Every finding carries at
// least one citation unless InsufficientEvidence is set.
type Finding struct {
	Topic                Topic      `json:"topic"`
	Summary              string     `json:"summary"`
	Citations            []Citation `json:"citations,omitempty"`
	Items                []string   `json:"items,omitempty"`          // bulleted topics: themes, risks, opportunities
	Classification       string     `json:"classification,omitempty"` // sentiment only: positive|neutral|cautious|negative
	Confidence           string     `json:"confidence,omitempty"`     // sentiment only: high|moderate|low
	InsufficientEvidence bool       `json:"insufficient_evidence"`
}

// InsufficientEvidence is the well-defined degraded finding for a topic.
func insufficientFinding(topic Topic) Finding {
	return Finding{
		Topic:                topic,
		Summary:              "insufficient_evidence",
		InsufficientEvidence: true,
	}
}
