package ai

import (
	"context"
	"fmt"

	"pdf-rag-service/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// EmbedText returns an embedding vector for the given text.
// Default provider is Google Generative AI (text-embedding-004).
// The client is opened for this one call and closed when it returns, so no
// model state outlives the unit of work that needed it.
func EmbedText(ctx context.Context, cfg *config.Config, text string) ([]float32, error) {
	vectors, err := EmbedTexts(ctx, cfg, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds a batch of texts with a single client. All vectors come
// from the same provider and model, so they share one dimensionality. Any
// failed embedding fails the whole batch; callers persist all or nothing.
func EmbedTexts(ctx context.Context, cfg *config.Config, texts []string) ([][]float32, error) {
	switch cfg.EmbeddingsProvider {
	case "google", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
		}
		client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			return nil, err
		}
		defer client.Close()

		model := client.EmbeddingModel(cfg.GoogleEmbeddingsModel)
		vectors := make([][]float32, 0, len(texts))
		for i, text := range texts {
			resp, err := model.EmbedContent(ctx, genai.Text(text))
			if err != nil {
				return nil, fmt.Errorf("embedding %d/%d failed: %w", i+1, len(texts), err)
			}
			if resp.Embedding == nil {
				return nil, fmt.Errorf("no embedding returned for text %d", i)
			}
			vectors = append(vectors, resp.Embedding.Values)
		}
		return vectors, nil

	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}
