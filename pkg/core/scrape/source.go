// Package scrape acquires quarterly reports and earnings-call transcripts
// from screener.in. It is the document-source collaborator of the forecast
// pipeline: it may return fewer documents than requested and individual
// download failures are non-fatal.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"financial_forecast/pkg/core/document"
)

// RawDocument is a fetched but not yet normalized document.
type RawDocument struct {
	Body   []byte
	Format document.Format
	Meta   document.Metadata
}

// Source fetches raw documents for a company. Implementations may return
// fewer documents than requested; zero transcripts or zero reports are valid
// degraded outcomes for downstream stages.
type Source interface {
	Fetch(ctx context.Context, company string, quarters int) ([]RawDocument, error)
}

// AcquisitionError marks a single document as unreachable or unparseable.
type AcquisitionError struct {
	URL string
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquisition failed for %s: %v", e.URL, e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// ScreenerSource scrapes the documents section of a screener.in company page.
type ScreenerSource struct {
	baseURL string
	client  *http.Client
	cache   *DownloadCache // optional, nil disables caching
	logger  *zap.Logger
}

// NewScreenerSource creates a source scraping screener.in. cache may be nil.
func NewScreenerSource(cache *DownloadCache, logger *zap.Logger) *ScreenerSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScreenerSource{
		baseURL: "https://www.screener.in",
		client:  &http.Client{Timeout: 30 * time.Second},
		cache:   cache,
		logger:  logger,
	}
}

var reportKeywords = []string{"quarterly", "q1", "q2", "q3", "q4", "results"}
var transcriptKeywords = []string{"transcript", "concall", "earnings call"}

// Fetch lists the company's documents page, classifies links into reports and
// transcripts by title keywords, and downloads up to `quarters` of each.
func (s *ScreenerSource) Fetch(ctx context.Context, company string, quarters int) ([]RawDocument, error) {
	listURL := fmt.Sprintf("%s/company/%s/consolidated/", s.baseURL, company)
	body, _, err := s.get(ctx, listURL)
	if err != nil {
		return nil, &AcquisitionError{URL: listURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, &AcquisitionError{URL: listURL, Err: fmt.Errorf("parse documents page: %w", err)}
	}

	reports := s.extractLinks(doc, company, quarters, document.KindReport, reportKeywords)
	transcripts := s.extractLinks(doc, company, quarters, document.KindTranscript, transcriptKeywords)
	s.logger.Info("document listing parsed",
		zap.String("company", company),
		zap.Int("reports", len(reports)),
		zap.Int("transcripts", len(transcripts)))

	var out []RawDocument
	for _, meta := range append(reports, transcripts...) {
		raw, err := s.download(ctx, meta)
		if err != nil {
			// Per-document failure: log and continue with the rest.
			s.logger.Warn("document download failed", zap.String("url", meta.URL), zap.Error(err))
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// extractLinks pulls document links from the #documents section whose text
// matches any of the given keywords.
func (s *ScreenerSource) extractLinks(doc *goquery.Document, company string, limit int, kind document.Kind, keywords []string) []document.Metadata {
	var metas []document.Metadata
	doc.Find("section#documents a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		title := strings.TrimSpace(sel.Text())
		lower := strings.ToLower(title)

		matched := false
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
		if strings.HasPrefix(href, "/") {
			href = s.baseURL + href
		}
		metas = append(metas, document.Metadata{
			Company: company,
			Quarter: quarterFromTitle(title),
			Kind:    kind,
			Title:   title,
			URL:     href,
		})
		return len(metas) < limit
	})
	return metas
}

// download retrieves a document body and decides its format from the
// Content-Type header or URL suffix.
func (s *ScreenerSource) download(ctx context.Context, meta document.Metadata) (RawDocument, error) {
	if s.cache != nil {
		if body, format, ok := s.cache.Get(meta.URL); ok {
			return RawDocument{Body: body, Format: format, Meta: meta}, nil
		}
	}

	body, contentType, err := s.get(ctx, meta.URL)
	if err != nil {
		return RawDocument{}, &AcquisitionError{URL: meta.URL, Err: err}
	}

	format := document.FormatHTML
	if strings.Contains(strings.ToLower(contentType), "pdf") || strings.HasSuffix(strings.ToLower(meta.URL), ".pdf") {
		format = document.FormatPDF
	}

	if s.cache != nil {
		if err := s.cache.Set(meta.URL, body, format); err != nil {
			s.logger.Warn("cache write failed", zap.String("url", meta.URL), zap.Error(err))
		}
	}

	return RawDocument{Body: body, Format: format, Meta: meta}, nil
}

func (s *ScreenerSource) get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	return body, res.Header.Get("Content-Type"), nil
}

// quarterFromTitle pulls a "Q<N> FY<YYYY>" label out of a document title when
// present, e.g. "Q1 FY2024 Results". Returns the title itself when no label
// is recognizable; the extractor supplies the authoritative quarter later.
func quarterFromTitle(title string) string {
	fields := strings.Fields(title)
	for i, f := range fields {
		upper := strings.ToUpper(f)
		if len(upper) == 2 && upper[0] == 'Q' && upper[1] >= '1' && upper[1] <= '4' {
			if i+1 < len(fields) && strings.HasPrefix(strings.ToUpper(fields[i+1]), "FY") {
				return upper + " " + strings.ToUpper(fields[i+1])
			}
			return upper
		}
	}
	return title
}
