// Package retrieval provides transcript chunking and a per-request in-memory
// vector index for similarity search. The index lives for one request and is
// discarded with it; vectors are never shared across requests.
package retrieval

import (
	"strings"
	"unicode/utf8"
)

// TranscriptChunk is a bounded contiguous slice of a transcript's text used
// as the retrieval unit. StartOffset/EndOffset are byte offsets into the
// source document text, so Text == doc.Text[StartOffset:EndOffset].
type TranscriptChunk struct {
	DocumentID  string `json:"document_id"`
	Index       int    `json:"chunk_index"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// Chunker splits text into overlapping windows, preferring paragraph and
// sentence boundaries over hard cuts.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker with the given size and overlap in bytes.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 200
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// separators ordered by preference, mirroring recursive text splitting.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk splits text into TranscriptChunks. Consecutive chunks overlap by
// roughly the configured overlap; every chunk is an exact substring of text
// and consecutive chunks are contiguous, so concatenating chunk texts with
// overlaps removed reconstructs the original exactly.
func (c *Chunker) Chunk(docID, text string) []TranscriptChunk {
	n := len(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []TranscriptChunk
	start := 0
	index := 0
	for start < n {
		end := start + c.chunkSize
		if end >= n {
			end = n
		} else {
			end = c.breakPoint(text, start, end)
		}

		chunks = append(chunks, TranscriptChunk{
			DocumentID:  docID,
			Index:       index,
			Text:        text[start:end],
			StartOffset: start,
			EndOffset:   end,
		})
		index++

		if end >= n {
			break
		}
		next := end - c.chunkOverlap
		if next <= start {
			next = start + 1
		}
		// Never start a chunk inside a multi-byte rune.
		for next > start+1 && !utf8.RuneStart(text[next]) {
			next--
		}
		start = next
	}
	return chunks
}

// breakPoint finds the best split position at or before limit, searching the
// overlap-sized tail for the highest-preference separator.
func (c *Chunker) breakPoint(text string, start, limit int) int {
	windowStart := limit - c.chunkOverlap
	if windowStart <= start {
		windowStart = start + 1
	}
	window := text[windowStart:limit]

	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			end := windowStart + i + len(sep)
			if end > start {
				return end
			}
		}
	}
	// No separator in the window: hard cut, but not inside a rune.
	end := limit
	for end > start+1 && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
