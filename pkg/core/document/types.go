// Package document defines source document records and the normalizer that
// turns raw fetched bytes into plain text.
package document

// Kind classifies a source document.
type Kind string

const (
	KindReport     Kind = "report"
	KindTranscript Kind = "transcript"
)

// Format identifies the raw byte encoding of a fetched document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// Metadata carries acquisition-time context into normalization.
type Metadata struct {
	Company string
	Quarter string // e.g. "Q1 FY2024"
	Kind    Kind
	Title   string
	URL     string
}

// SourceDocument is a normalized plain-text document record. It is immutable
// once created; downstream stages consume it read-only.
type SourceDocument struct {
	ID        string `json:"id"`
	Company   string `json:"company"`
	Quarter   string `json:"quarter"`
	Kind      Kind   `json:"kind"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	OriginURL string `json:"origin_url"`
}
