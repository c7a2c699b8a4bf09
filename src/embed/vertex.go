package embed

import (
	"context"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// VertexAIEmbedder generates embeddings through the Gemini embedding models.
type VertexAIEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewVertexAIEmbedder(model string) (Embedder, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GOOGLE_API_KEY")))
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = "text-embedding-004"
	}
	return &VertexAIEmbedder{client: client, model: client.EmbeddingModel(model)}, nil
}

func (e *VertexAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ErrNotSupported
	}
	return resp.Embedding.Values, nil
}

func (e *VertexAIEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
