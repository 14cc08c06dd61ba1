// Package pipeline sequences document acquisition, metric extraction,
// transcript analysis and synthesis into one grounded Forecast per request.
package pipeline

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"time"

	"financial_forecast/pkg/core/extract"
	"financial_forecast/pkg/core/qualitative"
)

// ErrForecastUnavailable signals total failure: no document produced any
// usable output. Nothing is persisted as a success in this case.
var ErrForecastUnavailable = errors.New("forecast unavailable: no document produced usable output")

// Stage names the orchestrator's state machine states. A request moves
// through them in order; Failed absorbs unrecoverable per-stage errors.
type Stage string

const (
	StageInitialized         Stage = "initialized"
	StageDocumentsFetched    Stage = "documents_fetched"
	StageMetricsExtracted    Stage = "metrics_extracted"
	StageIndexBuilt          Stage = "index_built"
	StageQualitativeAnalyzed Stage = "qualitative_analyzed"
	StageSynthesized         Stage = "synthesized"
	StagePersisted           Stage = "persisted"
	StageFailed              Stage = "failed"
)

// RiskOpportunity is one entry of the forecast's risks/opportunities list.
type RiskOpportunity struct {
	Type        string                `json:"type"` // "risk" or "opportunity"
	Description string                `json:"description"`
	Citation    *qualitative.Citation `json:"citation,omitempty"`
}

// Forecast is the immutable output of one request. It is constructed once by
// the synthesizer and handed to the persistence collaborator; it is never
// mutated afterward.
type Forecast struct {
	RequestID          string                                  `json:"request_id"`
	Timestamp          time.Time                               `json:"timestamp"`
	Company            string                                  `json:"company"`
	QuarterlyMetrics   []extract.FinancialMetrics              `json:"quarterly_metrics"` // chronological
	TrendAnalysis      string                                  `json:"trend_analysis"`
	QualitativeSummary map[qualitative.Topic]qualitative.Finding `json:"qualitative_summary"`
	RisksOpportunities []RiskOpportunity                       `json:"risks_opportunities"`
	ForwardOutlook     string                                  `json:"forward_outlook"`
}

// ForecastRepository is the persistence collaborator. Forecasts are stored
// keyed by request ID (unique); error records capture request-level failures.
type ForecastRepository interface {
	SaveForecast(ctx context.Context, f *Forecast) error
	LogError(ctx context.Context, requestID string, message string) error
}

// AIProvider is the narrow LLM interface the synthesis calls consume.
type AIProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

var (
	quarterPattern = regexp.MustCompile(`(?i)\bQ([1-4])\b`)
	yearPattern    = regexp.MustCompile(`(?i)(?:FY\s*)?((?:19|20)\d{2})`)
)

// quarterSortKey converts a label like "Q1 FY2024" into a sortable key. The
// year is optional: bare labels like "Q3" sort by quarter number within year
// zero, so sorting still works when a source omits fiscal years. Labels with
// no quarter at all are unsortable and keep their relative input order after
// all sortable ones.
func quarterSortKey(label string) (int, bool) {
	qm := quarterPattern.FindStringSubmatch(label)
	if qm == nil {
		return 0, false
	}
	q, _ := strconv.Atoi(qm[1])
	y := 0
	if ym := yearPattern.FindStringSubmatch(label); ym != nil {
		y, _ = strconv.Atoi(ym[1])
	}
	return y*4 + (q - 1), true
}

// sortChronological orders metrics by quarter label, oldest first.
func sortChronological(metrics []extract.FinancialMetrics) {
	sort.SliceStable(metrics, func(i, j int) bool {
		ki, oki := quarterSortKey(metrics[i].Quarter)
		kj, okj := quarterSortKey(metrics[j].Quarter)
		if oki && okj {
			return ki < kj
		}
		// Parseable labels sort before unparseable ones.
		return oki && !okj
	})
}
