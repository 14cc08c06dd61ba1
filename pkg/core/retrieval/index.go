package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"financial_forecast/pkg/core/llm"
)

// ErrEmptyIndex is returned when Build is called with zero chunks.
var ErrEmptyIndex = errors.New("cannot build index with zero chunks")

// SearchResult is a single similarity hit.
type SearchResult struct {
	Chunk TranscriptChunk
	Score float64
}

// Index is a per-request, in-memory vector index over transcript chunks.
// It performs brute-force inner-product search; vectors are normalized by
// the embedder so scores equal cosine similarity. The index is exclusive to
// one request and must not be reused across requests.
type Index struct {
	embedder llm.Embedder
	chunks   []TranscriptChunk
	vectors  [][]float32
}

// Build embeds every chunk and assembles the index. Chunk order is
// preserved: it is the tie-break order for equal-score query results.
func Build(ctx context.Context, embedder llm.Embedder, chunks []TranscriptChunk) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	dims := embedder.Dimensions()
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(v), dims)
		}
	}

	return &Index{embedder: embedder, chunks: chunks, vectors: vectors}, nil
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	return len(ix.chunks)
}

// Query embeds the question with the index's own embedding scheme and
// returns up to k chunks by descending similarity; ties break toward the
// earlier chunk. Querying an empty index returns no results and no error;
// callers treat that as "no evidence".
func (ix *Index) Query(ctx context.Context, question string, k int) ([]SearchResult, error) {
	if ix == nil || len(ix.chunks) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	query, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	order := make([]int, len(ix.chunks))
	scores := make([]float64, len(ix.chunks))
	for i := range ix.chunks {
		order[i] = i
		scores[i] = innerProduct(query, ix.vectors[i])
	}
	// Stable sort keeps build order for equal scores (earlier chunk wins).
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]SearchResult, k)
	for i := 0; i < k; i++ {
		idx := order[i]
		results[i] = SearchResult{Chunk: ix.chunks[idx], Score: scores[idx]}
	}
	return results, nil
}

// innerProduct of two vectors; for normalized vectors this equals cosine
// similarity.
func innerProduct(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i] * b[i])
	}
	return dot
}
