package qualitative

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"financial_forecast/pkg/core/llm"
	"financial_forecast/pkg/core/prompt"
	"financial_forecast/pkg/core/retrieval"
	"financial_forecast/pkg/core/utils"
)

// excerptLen bounds citation excerpts.
const excerptLen = 200

// maxThemes caps the themes list per the 5-7 target.
const maxThemes = 7

// topicSpec defines the retrieval query and per-topic instruction.
type topicSpec struct {
	query       string
	k           int
	instruction string
}

var topicSpecs = map[Topic]topicSpec{
	TopicOutlook: {
		query: "What is management's outlook for future quarters? What are their growth expectations and business forecasts?",
		k:     5,
		instruction: `Summarize management's forward-looking outlook and expectations. Focus on:
1. Revenue and growth projections
2. Strategic initiatives for upcoming quarters
3. Market expectations and guidance
Include direct quotes where relevant and cite the chunk identifiers you used.`,
	},
	TopicThemes: {
		query: "What are the recurring business themes, strategic priorities, and key initiatives mentioned by management?",
		k:     5,
		instruction: `Identify 5-7 recurring business themes and strategic priorities.
List each theme as a concise bullet point starting with "- ", citing specific mentions from the excerpts.`,
	},
	TopicRisks: {
		query: "What risks, challenges, or concerns does management mention?",
		k:     4,
		instruction: `List 3-5 key risks or challenges mentioned by management.
List each as a bullet point starting with "- ". Only include risks explicitly raised in the excerpts; if none are raised, say "none".`,
	},
	TopicOpportunities: {
		query: "What opportunities, growth drivers, or positive factors does management highlight?",
		k:     4,
		instruction: `List 3-5 key opportunities or growth drivers mentioned by management.
List each as a bullet point starting with "- ". Only include opportunities explicitly raised in the excerpts; if none are raised, say "none".`,
	},
	TopicSentiment: {
		query: "What is the overall tone and sentiment of management's statements?",
		k:     4,
		instruction: `Analyze the sentiment and tone of management's statements.
Start your answer with exactly two lines:
Sentiment: <positive|neutral|cautious|negative>
Confidence: <high|moderate|low>
Then give key sentiment indicators with brief quotes. Be objective and cite specific evidence.`,
	},
}

// Analyzer runs the topic battery against a built index.
type Analyzer struct {
	provider AIProvider
	logger   *zap.Logger
}

// NewAnalyzer creates a qualitative analyzer.
func NewAnalyzer(provider AIProvider, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{provider: provider, logger: logger}
}

// Analyze runs every topic independently against the index. A failed topic
// degrades to insufficient_evidence without aborting the others. A nil index
// (no transcripts) degrades every topic.
func (a *Analyzer) Analyze(ctx context.Context, index *retrieval.Index) map[Topic]Finding {
	findings := make(map[Topic]Finding, len(AllTopics()))
	for _, topic := range AllTopics() {
		findings[topic] = a.analyzeTopic(ctx, index, topic)
	}
	return findings
}

// analyzeTopic retrieves the topic's chunks and issues one grounded
// generation call whose context is exactly those chunks.
func (a *Analyzer) analyzeTopic(ctx context.Context, index *retrieval.Index, topic Topic) Finding {
	spec := topicSpecs[topic]

	results, err := index.Query(ctx, spec.query, spec.k)
	if err != nil {
		a.logger.Warn("topic retrieval failed", zap.String("topic", string(topic)), zap.Error(err))
		return insufficientFinding(topic)
	}
	if len(results) == 0 {
		return insufficientFinding(topic)
	}

	var contextBlock strings.Builder
	for _, r := range results {
		fmt.Fprintf(&contextBlock, "[document %s chunk %d]\n%s\n\n", r.Chunk.DocumentID, r.Chunk.Index, r.Chunk.Text)
	}

	systemPrompt := getTopicPrompt(topic)
	userPrompt := fmt.Sprintf(`%s

Context from transcripts:
%s`, spec.instruction, contextBlock.String())

	resp, err := llm.WithRetry(ctx, 3, time.Second, func() (string, error) {
		return a.provider.Generate(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		a.logger.Warn("topic generation failed, degrading",
			zap.String("topic", string(topic)), zap.Error(err))
		return insufficientFinding(topic)
	}

	finding := Finding{
		Topic:     topic,
		Summary:   strings.TrimSpace(resp),
		Citations: citationsFrom(results),
	}

	switch topic {
	case TopicThemes:
		finding.Items = parseBullets(resp, maxThemes)
	case TopicRisks, TopicOpportunities:
		finding.Items = parseBullets(resp, 5)
		if len(finding.Items) == 0 && mentionsNone(resp) {
			return insufficientFinding(topic)
		}
	case TopicSentiment:
		finding.Classification, finding.Confidence = parseSentiment(resp)
	}

	return finding
}

// citationsFrom converts retrieval hits into citations with bounded excerpts.
func citationsFrom(results []retrieval.SearchResult) []Citation {
	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		excerpt := utils.SafeTruncate(r.Chunk.Text, excerptLen)
		citations = append(citations, Citation{
			DocumentID: r.Chunk.DocumentID,
			ChunkIndex: r.Chunk.Index,
			Excerpt:    excerpt,
		})
	}
	return citations
}

// parseBullets extracts bullet or numbered list items from a response.
func parseBullets(resp string, limit int) []string {
	var items []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var item string
		switch {
		case strings.HasPrefix(line, "- "):
			item = strings.TrimPrefix(line, "- ")
		case strings.HasPrefix(line, "• "):
			item = strings.TrimPrefix(line, "• ")
		case strings.HasPrefix(line, "* "):
			item = strings.TrimPrefix(line, "* ")
		case len(line) > 2 && unicode.IsDigit(rune(line[0])) && (line[1] == '.' || line[1] == ')'):
			item = strings.TrimSpace(line[2:])
		default:
			continue
		}
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
		if len(items) == limit {
			break
		}
	}
	return items
}

// parseSentiment reads the "Sentiment:"/"Confidence:" header lines.
func parseSentiment(resp string) (classification, confidence string) {
	classification = "neutral"
	confidence = "moderate"
	for _, line := range strings.Split(resp, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if v, ok := strings.CutPrefix(line, "sentiment:"); ok {
			for _, c := range []string{"positive", "neutral", "cautious", "negative"} {
				if strings.Contains(v, c) {
					classification = c
					break
				}
			}
		}
		if v, ok := strings.CutPrefix(line, "confidence:"); ok {
			for _, c := range []string{"high", "moderate", "low"} {
				if strings.Contains(v, c) {
					confidence = c
					break
				}
			}
		}
	}
	return classification, confidence
}

func mentionsNone(resp string) bool {
	lower := strings.ToLower(strings.TrimSpace(resp))
	return strings.HasPrefix(lower, "none") || strings.Contains(lower, "no risks") || strings.Contains(lower, "no opportunities")
}

// getTopicPrompt returns the topic's system prompt, preferring the prompt
// library with a hardcoded fallback.
func getTopicPrompt(topic Topic) string {
	if p, err := prompt.GetQualitativePrompt(string(topic)); err == nil && p != "" {
		return p
	}
	// Fallback
	return `You are an expert financial analyst analyzing earnings call transcripts.
Base your analysis ONLY on the transcript excerpts provided in the context. Do not use outside knowledge.
Only cite information explicitly stated in the context. Include direct quotes where relevant.
If the excerpts do not contain evidence for the question, say so plainly instead of inventing an answer.`
}
