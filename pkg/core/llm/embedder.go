package llm

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultEmbeddingModel = "text-embedding-004"

// geminiEmbeddingDims is the output dimension of text-embedding-004.
const geminiEmbeddingDims = 768

// GeminiEmbedder implements Embedder using the Gemini embedding API.
// Vectors are L2-normalized so inner product equals cosine similarity.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

var _ Embedder = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates an embedder backed by the Gemini API.
func NewGeminiEmbedder(ctx context.Context) (*GeminiEmbedder, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: defaultEmbeddingModel}, nil
}

// Embed returns the normalized embedding vector for a single text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, &CallError{Provider: "gemini-embed", Transient: isRetryableGeminiErr(err), Err: err}
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, &CallError{Provider: "gemini-embed", Err: fmt.Errorf("empty embedding returned")}
	}
	return normalize(res.Embedding.Values), nil
}

// EmbedBatch embeds multiple texts in one API round trip.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	em := e.client.EmbeddingModel(e.model)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, &CallError{Provider: "gemini-embed", Transient: isRetryableGeminiErr(err), Err: err}
	}
	if len(res.Embeddings) != len(texts) {
		return nil, &CallError{Provider: "gemini-embed", Err: fmt.Errorf("embedding count mismatch: got %d, want %d", len(res.Embeddings), len(texts))}
	}
	out := make([][]float32, len(res.Embeddings))
	for i, emb := range res.Embeddings {
		out[i] = normalize(emb.Values)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (e *GeminiEmbedder) Dimensions() int {
	return geminiEmbeddingDims
}

// Close releases the underlying client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
