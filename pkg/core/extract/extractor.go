package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"financial_forecast/pkg/core/document"
	"financial_forecast/pkg/core/llm"
	"financial_forecast/pkg/core/prompt"
	"financial_forecast/pkg/core/utils"
)

// maxDocumentChars bounds how much report text is sent to the model.
const maxDocumentChars = 15000

// Extractor runs the constrained metric-extraction call for one report.
type Extractor struct {
	provider AIProvider
	logger   *zap.Logger
}

// NewExtractor creates a metric extractor.
func NewExtractor(provider AIProvider, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{provider: provider, logger: logger}
}

// Extract produces FinancialMetrics for one quarterly-report document.
// A malformed response is retried once with a corrective re-prompt; a second
// failure surfaces as SchemaValidationError (per-document, non-fatal for the
// request). Extracted values are grounded against the source text: any
// non-"N/A" value not literally present degrades to "N/A".
func (e *Extractor) Extract(ctx context.Context, doc *document.SourceDocument) (*FinancialMetrics, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no AI provider configured")
	}

	text := doc.Text
	if len(text) > maxDocumentChars {
		text = utils.SafeTruncate(text, maxDocumentChars) + "... [truncated]"
	}

	systemPrompt := getMetricsPrompt()
	userPrompt := buildMetricsUserPrompt(text)

	resp, err := llm.WithRetry(ctx, 3, time.Second, func() (string, error) {
		return e.provider.Generate(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		return nil, err
	}

	metrics, parseErr := parseMetrics(resp)
	if parseErr != nil {
		// One corrective re-prompt carrying the validation error.
		e.logger.Warn("metrics response malformed, re-prompting",
			zap.String("document_id", doc.ID), zap.Error(parseErr))

		correction := fmt.Sprintf(`Your previous response could not be parsed: %v

Previous response:
%s

%s`, parseErr, resp, userPrompt)

		resp, err = llm.WithRetry(ctx, 2, time.Second, func() (string, error) {
			return e.provider.Generate(ctx, systemPrompt, correction)
		})
		if err != nil {
			return nil, err
		}
		metrics, parseErr = parseMetrics(resp)
		if parseErr != nil {
			return nil, &SchemaValidationError{DocumentID: doc.ID, Err: parseErr}
		}
	}

	metrics.SourceDocumentID = doc.ID
	if metrics.Quarter == NotAvailable && doc.Quarter != "" {
		metrics.Quarter = doc.Quarter
	}
	if len(metrics.KeyHighlights) > maxHighlights {
		metrics.KeyHighlights = metrics.KeyHighlights[:maxHighlights]
	}

	e.ground(doc, metrics)

	return metrics, nil
}

// parseMetrics coerces a raw model response into FinancialMetrics.
func parseMetrics(resp string) (*FinancialMetrics, error) {
	clean := stripCodeFences(resp)
	var m FinancialMetrics
	repaired, err := utils.SmartParse(clean, &m)
	if err != nil {
		return nil, err
	}
	m = FinancialMetrics{}
	if err := utils.ValidateJSON(repaired, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ground enforces the no-hallucination contract in code: every non-"N/A"
// value must appear (whitespace-normalized) in the source text, and every
// highlight's numbers must be traceable to the source. Offending values
// degrade rather than fail the document.
func (e *Extractor) ground(doc *document.SourceDocument, m *FinancialMetrics) {
	source := collapseSpaces(doc.Text)

	check := func(field string, value *string) {
		if *value == "" {
			*value = NotAvailable
		}
		if *value == NotAvailable {
			return
		}
		if !strings.Contains(source, collapseSpaces(*value)) {
			e.logger.Warn("ungrounded value degraded to N/A",
				zap.String("document_id", doc.ID),
				zap.String("field", field),
				zap.String("value", *value))
			*value = NotAvailable
		}
	}

	check("total_revenue", &m.TotalRevenue)
	check("net_profit", &m.NetProfit)
	check("operating_margin", &m.OperatingMargin)
	check("revenue_growth", &m.RevenueGrowth)
	check("profit_growth", &m.ProfitGrowth)

	kept := m.KeyHighlights[:0]
	for _, h := range m.KeyHighlights {
		if numbersTraceable(h, source) {
			kept = append(kept, h)
		} else {
			e.logger.Warn("highlight with untraceable number dropped",
				zap.String("document_id", doc.ID),
				zap.String("highlight", h))
		}
	}
	m.KeyHighlights = kept
}

var numberPattern = regexp.MustCompile(`[0-9][0-9,.]*%?`)

// numbersTraceable reports whether every numeric token in the highlight
// appears in the normalized source text. Trailing sentence punctuation is
// not part of the token: "in 2024." must trace as "2024".
func numbersTraceable(highlight, source string) bool {
	for _, num := range numberPattern.FindAllString(highlight, -1) {
		num = strings.TrimRight(num, ",.")
		if num == "" {
			continue
		}
		if !strings.Contains(source, num) {
			return false
		}
	}
	return true
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// buildMetricsUserPrompt renders the extraction user prompt from the prompt
// library template when one is loaded, with a hardcoded fallback.
func buildMetricsUserPrompt(text string) string {
	if pt, err := prompt.Get().GetPrompt(prompt.PromptIDs.ExtractionMetrics); err == nil && pt.UserPromptTmpl != "" {
		rendered, err := prompt.RenderUserPrompt(pt, prompt.NewContext().Set("DocumentText", text))
		if err == nil && rendered != "" {
			return rendered
		}
	}
	// Fallback
	return fmt.Sprintf("Extract financial metrics from this quarterly report:\n\n%s\n\nReturn ONLY valid JSON.", text)
}

// getMetricsPrompt returns the extraction system prompt, preferring the
// prompt library with a hardcoded fallback.
func getMetricsPrompt() string {
	if p, err := prompt.GetExtractionPrompt(); err == nil && p != "" {
		return p
	}
	// Fallback
	return `You are a financial analyst expert specializing in extracting precise financial metrics from quarterly reports.

CRITICAL INSTRUCTIONS:
1. Extract ONLY explicit values stated in the document
2. Never hallucinate or estimate numbers
3. Always cite values exactly as they appear in tables or text
4. If a value is not found, mark it as "N/A"
5. Include currency symbols and units exactly as stated
6. For growth percentages, extract only from explicit year-over-year or quarter-over-quarter comparisons
7. Extract up to 5 key financial highlights that are explicitly mentioned

Return JSON:
{
  "quarter": "Q1 FY2024",
  "total_revenue": "₹59,162 crores",
  "net_profit": "N/A",
  "operating_margin": "N/A",
  "revenue_growth": "4.1% YoY",
  "profit_growth": "N/A",
  "key_highlights": ["highlight 1", "highlight 2"]
}

Your analysis must be grounded entirely in the source document.`
}
