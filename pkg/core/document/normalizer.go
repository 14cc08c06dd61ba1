package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// minTextLength is the threshold below which an extracted document is
// treated as unusable.
const minTextLength = 100

// ExtractionError marks a document as unusable (empty or too short after
// extraction). It is a per-document failure, not a request-level fault.
type ExtractionError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Normalize converts raw fetched bytes into a SourceDocument. format must be
// FormatPDF or FormatHTML and raw must be non-empty.
func Normalize(raw []byte, format Format, meta Metadata) (*SourceDocument, error) {
	if len(raw) == 0 {
		return nil, &ExtractionError{URL: meta.URL, Reason: "empty document body"}
	}

	var text string
	var err error
	switch format {
	case FormatPDF:
		text, err = extractPDFText(raw)
	case FormatHTML:
		text, err = extractHTMLText(raw)
	default:
		return nil, &ExtractionError{URL: meta.URL, Reason: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, &ExtractionError{URL: meta.URL, Reason: "text extraction failed", Err: err}
	}

	text = strings.TrimSpace(text)
	if len(text) < minTextLength {
		return nil, &ExtractionError{URL: meta.URL, Reason: fmt.Sprintf("extracted text too short (%d chars)", len(text))}
	}

	return &SourceDocument{
		ID:        uuid.New().String(),
		Company:   meta.Company,
		Quarter:   meta.Quarter,
		Kind:      meta.Kind,
		Title:     meta.Title,
		Text:      text,
		OriginURL: meta.URL,
	}, nil
}

// extractPDFText extracts text page by page. Pages are joined with blank
// lines so page breaks act as paragraph separators downstream.
func extractPDFText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(strings.TrimSpace(text))
	}
	return buf.String(), nil
}

// extractHTMLText strips script/style/navigation elements and emits one line
// per block element, preserving heading and paragraph boundaries.
func extractHTMLText(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find("script, style, nav, noscript, header, footer, iframe").Remove()

	var lines []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, th, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		// Skip elements that contain other block elements to avoid
		// emitting nested content twice.
		if s.Find("p, li, td, th").Length() > 0 {
			return
		}
		t := collapseSpaces(s.Text())
		if t != "" {
			lines = append(lines, t)
		}
	})

	// Fallback for documents without block markup.
	if len(lines) == 0 {
		t := collapseSpaces(doc.Text())
		if t != "" {
			lines = append(lines, t)
		}
	}

	return strings.Join(lines, "\n"), nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
