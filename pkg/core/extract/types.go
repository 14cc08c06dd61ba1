// Package extract converts quarterly-report text into schema-validated
// financial metric records via constrained LLM calls.
package extract

import (
	"context"
	"fmt"
)

// AIProvider is the narrow LLM interface the extractor consumes.
type AIProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// maxHighlights caps the key_highlights list.
const maxHighlights = 5

// FinancialMetrics holds values extracted from one quarterly report. Every
// field is either a literal value copied verbatim from the source text
// (including currency symbols and units) or the sentinel "N/A". Values stay
// formatted strings: units vary across companies and lossless citation
// matters more than computability.
type FinancialMetrics struct {
	Quarter          string   `json:"quarter"`
	TotalRevenue     string   `json:"total_revenue"`
	NetProfit        string   `json:"net_profit"`
	OperatingMargin  string   `json:"operating_margin"`
	RevenueGrowth    string   `json:"revenue_growth"`
	ProfitGrowth     string   `json:"profit_growth"`
	KeyHighlights    []string `json:"key_highlights" llm:"optional"`
	SourceDocumentID string   `json:"source_document_id" llm:"optional"`
}

// NotAvailable is the sentinel for fields absent from the source text.
const NotAvailable = "N/A"

// SchemaValidationError means the model response could not be coerced to
// FinancialMetrics after the corrective re-prompt.
type SchemaValidationError struct {
	DocumentID string
	Err        error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("metrics response failed schema validation (document %s): %v", e.DocumentID, e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}
