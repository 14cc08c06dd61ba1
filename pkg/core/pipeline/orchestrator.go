package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"financial_forecast/pkg/core/document"
	"financial_forecast/pkg/core/extract"
	"financial_forecast/pkg/core/llm"
	"financial_forecast/pkg/core/prompt"
	"financial_forecast/pkg/core/qualitative"
	"financial_forecast/pkg/core/retrieval"
	"financial_forecast/pkg/core/scrape"
	"financial_forecast/pkg/core/utils"
)

// insufficientTrendData is returned when fewer than two quarters extracted.
const insufficientTrendData = "Insufficient data for trend analysis"

// MetricExtractor produces FinancialMetrics for one report document.
type MetricExtractor interface {
	Extract(ctx context.Context, doc *document.SourceDocument) (*extract.FinancialMetrics, error)
}

// TranscriptAnalyzer runs the qualitative topic battery against an index.
type TranscriptAnalyzer interface {
	Analyze(ctx context.Context, index *retrieval.Index) map[qualitative.Topic]qualitative.Finding
}

// Orchestrator manages the end-to-end forecast flow:
// fetch -> normalize -> extract (parallel per report) -> index -> analyze ->
// synthesize -> persist. Failures are contained at the smallest stage that
// can absorb them; only a request with no signal at all fails outright.
type Orchestrator struct {
	source    scrape.Source
	extractor MetricExtractor
	analyzer  TranscriptAnalyzer
	embedder  llm.Embedder
	chunker   *retrieval.Chunker
	provider  AIProvider // synthesis calls (trends, outlook)
	repo      ForecastRepository
	logger    *zap.Logger
}

// NewOrchestrator wires the pipeline with all required collaborators.
func NewOrchestrator(
	source scrape.Source,
	extractor MetricExtractor,
	analyzer TranscriptAnalyzer,
	embedder llm.Embedder,
	provider AIProvider,
	repo ForecastRepository,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		source:    source,
		extractor: extractor,
		analyzer:  analyzer,
		embedder:  embedder,
		chunker:   retrieval.NewChunker(1000, 200),
		provider:  provider,
		repo:      repo,
		logger:    logger,
	}
}

// GenerateForecast executes the full pipeline for one company request.
// The request-level timeout travels in ctx; cancellation aborts outstanding
// calls and nothing partial is persisted as a success.
func (o *Orchestrator) GenerateForecast(ctx context.Context, company string, quarters int) (*Forecast, error) {
	requestID := "req_" + uuid.New().String()
	log := o.logger.With(zap.String("request_id", requestID), zap.String("company", company))
	start := time.Now()
	stage := StageInitialized
	log.Info("forecast request started", zap.Int("quarters", quarters))

	fail := func(err error) (*Forecast, error) {
		log.Error("forecast request failed", zap.String("stage", string(stage)), zap.Error(err))
		if o.repo != nil {
			if logErr := o.repo.LogError(context.WithoutCancel(ctx), requestID, err.Error()); logErr != nil {
				log.Warn("error record not persisted", zap.Error(logErr))
			}
		}
		return nil, err
	}

	// Stage 1: acquisition + normalization.
	raws, err := o.source.Fetch(ctx, company, quarters)
	if err != nil {
		stage = StageFailed
		return fail(fmt.Errorf("document acquisition failed: %w", err))
	}

	var reports, transcripts []*document.SourceDocument
	for _, raw := range raws {
		doc, err := document.Normalize(raw.Body, raw.Format, raw.Meta)
		if err != nil {
			// Unusable document, not a hard stop for the request.
			log.Warn("document unusable, skipping", zap.String("url", raw.Meta.URL), zap.Error(err))
			continue
		}
		switch doc.Kind {
		case document.KindReport:
			reports = append(reports, doc)
		case document.KindTranscript:
			transcripts = append(transcripts, doc)
		}
	}
	if len(reports) == 0 && len(transcripts) == 0 {
		stage = StageFailed
		return fail(fmt.Errorf("%w: no usable documents for %s", ErrForecastUnavailable, company))
	}
	stage = StageDocumentsFetched
	log.Info("documents normalized", zap.Int("reports", len(reports)), zap.Int("transcripts", len(transcripts)))

	// Stage 2: metric extraction, one concurrent task per report. Tasks
	// share no mutable state; results are collected positionally.
	metrics := o.extractAll(ctx, reports, log)
	sortChronological(metrics)
	stage = StageMetricsExtracted

	if err := ctx.Err(); err != nil {
		stage = StageFailed
		return fail(err)
	}

	// Stage 3: per-request index over all transcript chunks. The index is
	// discarded with the request.
	index, err := o.buildIndex(ctx, transcripts, log)
	if err != nil {
		stage = StageFailed
		return fail(err)
	}
	stage = StageIndexBuilt

	// Stage 4: qualitative battery. Topic failures degrade inside Analyze.
	findings := o.analyzer.Analyze(ctx, index)
	stage = StageQualitativeAnalyzed

	if err := ctx.Err(); err != nil {
		stage = StageFailed
		return fail(err)
	}

	// Total failure check: no metrics and no evidence on any topic.
	if len(metrics) == 0 && allInsufficient(findings) {
		stage = StageFailed
		return fail(fmt.Errorf("%w: extraction and analysis both empty for %s", ErrForecastUnavailable, company))
	}

	// Stage 5: synthesis.
	trend := o.synthesizeTrends(ctx, metrics, log)
	forecast := &Forecast{
		RequestID:          requestID,
		Timestamp:          time.Now().UTC(),
		Company:            company,
		QuarterlyMetrics:   metrics,
		TrendAnalysis:      trend,
		QualitativeSummary: findings,
		RisksOpportunities: risksAndOpportunities(findings),
	}
	forecast.ForwardOutlook = o.synthesizeOutlook(ctx, forecast, log)
	stage = StageSynthesized

	// Stage 6: persistence handoff. The record is immutable from here on.
	if o.repo != nil {
		if err := o.repo.SaveForecast(ctx, forecast); err != nil {
			stage = StageFailed
			return fail(fmt.Errorf("forecast persistence failed: %w", err))
		}
	}
	stage = StagePersisted
	log.Info("forecast request completed",
		zap.Int("quarters_analyzed", len(metrics)),
		zap.Duration("elapsed", time.Since(start)))

	return forecast, nil
}

// extractAll runs the extractor concurrently over the report documents.
// Per-document failures are logged and omitted; order of completion does not
// matter because the caller re-sorts chronologically.
func (o *Orchestrator) extractAll(ctx context.Context, reports []*document.SourceDocument, log *zap.Logger) []extract.FinancialMetrics {
	results := make([]*extract.FinancialMetrics, len(reports))
	var wg sync.WaitGroup
	for i, doc := range reports {
		wg.Add(1)
		go func(i int, doc *document.SourceDocument) {
			defer wg.Done()
			m, err := o.extractor.Extract(ctx, doc)
			if err != nil {
				log.Warn("metric extraction failed, omitting quarter",
					zap.String("document_id", doc.ID),
					zap.String("title", doc.Title),
					zap.Error(err))
				return
			}
			results[i] = m
		}(i, doc)
	}
	wg.Wait()

	metrics := make([]extract.FinancialMetrics, 0, len(results))
	for _, m := range results {
		if m != nil {
			metrics = append(metrics, *m)
		}
	}
	return metrics
}

// buildIndex chunks every transcript and embeds the chunks. Zero transcripts
// is a valid degraded outcome: a nil index makes every topic report
// insufficient evidence.
func (o *Orchestrator) buildIndex(ctx context.Context, transcripts []*document.SourceDocument, log *zap.Logger) (*retrieval.Index, error) {
	var chunks []retrieval.TranscriptChunk
	for _, doc := range transcripts {
		chunks = append(chunks, o.chunker.Chunk(doc.ID, doc.Text)...)
	}
	if len(chunks) == 0 {
		log.Info("no transcript content, qualitative stages will degrade")
		return nil, nil
	}

	index, err := retrieval.Build(ctx, o.embedder, chunks)
	if err != nil {
		return nil, fmt.Errorf("index build failed: %w", err)
	}
	log.Info("transcript index built", zap.Int("chunks", index.Size()))
	return index, nil
}

// synthesizeTrends produces the trend analysis from the structured metrics
// only; raw documents never reach this call, so it cannot re-introduce
// ungrounded numbers. Synthesis failure degrades to the insufficient-data
// text rather than failing the request.
func (o *Orchestrator) synthesizeTrends(ctx context.Context, metrics []extract.FinancialMetrics, log *zap.Logger) string {
	if len(metrics) < 2 {
		return insufficientTrendData
	}

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return insufficientTrendData
	}

	userPrompt, ok := renderSynthesisPrompt(prompt.PromptIDs.SynthesisTrends,
		prompt.NewContext().Set("MetricsJSON", string(data)))
	if !ok {
		userPrompt = fmt.Sprintf(`Analyze the following financial metrics across quarters and identify key trends:

Quarters Data:
%s

Provide a concise trend analysis covering:
1. Revenue trajectory (growing/declining/stable)
2. Profitability trends
3. Margin performance
4. Notable changes or inflection points

Focus only on what the data explicitly shows.`, data)
	}

	resp, err := llm.WithRetry(ctx, 3, time.Second, func() (string, error) {
		return o.provider.Generate(ctx, getSynthesisPrompt("trends"), userPrompt)
	})
	if err != nil {
		log.Warn("trend synthesis failed, degrading", zap.Error(err))
		return insufficientTrendData
	}
	return utils.CleanMarkdown(resp)
}

// synthesizeOutlook combines the trend analysis and qualitative findings
// into the forward outlook. On synthesis failure it assembles the outlook
// deterministically from its inputs; either way no claim outside the inputs
// is introduced.
func (o *Orchestrator) synthesizeOutlook(ctx context.Context, f *Forecast, log *zap.Logger) string {
	findingsJSON, err := json.MarshalIndent(f.QualitativeSummary, "", "  ")
	if err != nil {
		return assembleOutlook(f)
	}

	userPrompt, ok := renderSynthesisPrompt(prompt.PromptIDs.SynthesisOutlook,
		prompt.NewContext().Set("TrendAnalysis", f.TrendAnalysis).Set("FindingsJSON", string(findingsJSON)))
	if !ok {
		userPrompt = fmt.Sprintf(`Combine the trend analysis and qualitative findings below into a forward-looking business outlook.

Trend analysis:
%s

Qualitative findings:
%s

Rules:
- Use only statements present in the inputs above; do not add new figures or claims.
- Keep existing citations and "insufficient_evidence" markers intact.
- Structure the outlook as: management outlook, sentiment, recurring themes, financial trajectory.`,
			f.TrendAnalysis, findingsJSON)
	}

	resp, err := llm.WithRetry(ctx, 3, time.Second, func() (string, error) {
		return o.provider.Generate(ctx, getSynthesisPrompt("outlook"), userPrompt)
	})
	if err != nil {
		log.Warn("outlook synthesis failed, assembling from inputs", zap.Error(err))
		return assembleOutlook(f)
	}
	cleaned := utils.CleanMarkdown(resp)
	if !utils.ValidateMarkdown(cleaned) {
		return assembleOutlook(f)
	}
	return cleaned
}

// assembleOutlook builds the forward outlook mechanically from the forecast's
// own fields.
func assembleOutlook(f *Forecast) string {
	var b strings.Builder

	outlook := f.QualitativeSummary[qualitative.TopicOutlook]
	b.WriteString("MANAGEMENT OUTLOOK:\n")
	b.WriteString(outlook.Summary)
	b.WriteString("\n\n")

	sentiment := f.QualitativeSummary[qualitative.TopicSentiment]
	b.WriteString("SENTIMENT ANALYSIS:\n")
	if sentiment.InsufficientEvidence {
		b.WriteString(sentiment.Summary)
	} else {
		fmt.Fprintf(&b, "%s (confidence: %s)", sentiment.Classification, sentiment.Confidence)
	}
	b.WriteString("\n\n")

	b.WriteString("RECURRING BUSINESS THEMES:\n")
	themes := f.QualitativeSummary[qualitative.TopicThemes]
	if len(themes.Items) == 0 {
		b.WriteString(themes.Summary)
	} else {
		for _, theme := range themes.Items {
			b.WriteString("- " + theme + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString("FINANCIAL TRAJECTORY:\n")
	b.WriteString(f.TrendAnalysis)

	return strings.TrimSpace(b.String())
}

// risksAndOpportunities flattens the risk and opportunity findings into the
// forecast's typed list, carrying the first citation of each finding.
func risksAndOpportunities(findings map[qualitative.Topic]qualitative.Finding) []RiskOpportunity {
	var out []RiskOpportunity
	appendItems := func(f qualitative.Finding, kind string) {
		if f.InsufficientEvidence {
			return
		}
		var citation *qualitative.Citation
		if len(f.Citations) > 0 {
			c := f.Citations[0]
			citation = &c
		}
		for _, item := range f.Items {
			out = append(out, RiskOpportunity{Type: kind, Description: item, Citation: citation})
		}
	}
	appendItems(findings[qualitative.TopicRisks], "risk")
	appendItems(findings[qualitative.TopicOpportunities], "opportunity")
	return out
}

func allInsufficient(findings map[qualitative.Topic]qualitative.Finding) bool {
	for _, f := range findings {
		if !f.InsufficientEvidence {
			return false
		}
	}
	return true
}

// renderSynthesisPrompt renders a synthesis user prompt from the prompt
// library template. ok is false when no template is loaded for the id.
func renderSynthesisPrompt(id string, ctx *prompt.PromptExecutionContext) (string, bool) {
	pt, err := prompt.Get().GetPrompt(id)
	if err != nil || pt.UserPromptTmpl == "" {
		return "", false
	}
	rendered, err := prompt.RenderUserPrompt(pt, ctx)
	if err != nil || rendered == "" {
		return "", false
	}
	return rendered, true
}

func getSynthesisPrompt(stage string) string {
	if p, err := prompt.GetSynthesisPrompt(stage); err == nil && p != "" {
		return p
	}
	// Fallback
	return `You are a financial analyst synthesizing a business forecast.
Work strictly from the structured inputs you are given; never estimate or invent figures, and never add claims absent from the inputs.`
}
