package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// keywordEmbedder maps texts onto fixed axes by keyword so similarity is
// deterministic in tests.
type keywordEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
}

var axisKeywords = []string{"revenue", "risk", "hiring"}

func keywordVector(text string) []float32 {
	v := make([]float32, len(axisKeywords)+1)
	lower := strings.ToLower(text)
	hit := false
	for i, kw := range axisKeywords {
		if strings.Contains(lower, kw) {
			v[i] = 1
			hit = true
		}
	}
	if !hit {
		v[len(axisKeywords)] = 1
	}
	return v
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.EmbedFunc != nil {
		return e.EmbedFunc(ctx, text)
	}
	return keywordVector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int { return len(axisKeywords) + 1 }

func testChunks(texts ...string) []TranscriptChunk {
	chunks := make([]TranscriptChunk, len(texts))
	for i, t := range texts {
		chunks[i] = TranscriptChunk{DocumentID: "doc-1", Index: i, Text: t}
	}
	return chunks
}

func TestBuildRejectsZeroChunks(t *testing.T) {
	_, err := Build(context.Background(), &keywordEmbedder{}, nil)
	if !errors.Is(err, ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
}

func TestQueryReturnsMostRelevantChunks(t *testing.T) {
	chunks := testChunks(
		"Revenue grew 8% on strong deal wins.",
		"We continue hiring in our delivery centers.",
		"Currency risk remains a concern for margins.",
	)
	ix, err := Build(context.Background(), &keywordEmbedder{}, chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", ix.Size())
	}

	results, err := ix.Query(context.Background(), "what are the key risks?", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Chunk.Index != 2 {
		t.Errorf("top result is chunk %d, want the risk chunk", results[0].Chunk.Index)
	}
	if results[0].Score <= 0 {
		t.Errorf("top score = %f, want positive", results[0].Score)
	}
}

func TestQueryCapsKAtIndexSize(t *testing.T) {
	chunks := testChunks("revenue one", "revenue two")
	ix, err := Build(context.Background(), &keywordEmbedder{}, chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	results, err := ix.Query(context.Background(), "revenue", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want all 2 indexed chunks", len(results))
	}
}

func TestQueryTieBreaksTowardEarlierChunk(t *testing.T) {
	chunks := testChunks("revenue first mention", "revenue second mention")
	ix, err := Build(context.Background(), &keywordEmbedder{}, chunks)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	results, err := ix.Query(context.Background(), "revenue", 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if results[0].Chunk.Index != 0 || results[1].Chunk.Index != 1 {
		t.Errorf("equal scores did not preserve build order: got %d, %d",
			results[0].Chunk.Index, results[1].Chunk.Index)
	}
}

func TestQueryNilAndEmptyIndex(t *testing.T) {
	var ix *Index
	results, err := ix.Query(context.Background(), "anything", 5)
	if err != nil || results != nil {
		t.Errorf("nil index query = (%v, %v), want (nil, nil)", results, err)
	}
}

func TestQueryEmbedFailure(t *testing.T) {
	embedErr := errors.New("embedding backend down")
	e := &keywordEmbedder{}
	ix, err := Build(context.Background(), e, testChunks("revenue"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	e.EmbedFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, embedErr
	}
	if _, err := ix.Query(context.Background(), "revenue", 1); !errors.Is(err, embedErr) {
		t.Errorf("expected embed error to surface, got %v", err)
	}
}
