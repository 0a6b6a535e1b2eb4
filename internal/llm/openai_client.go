// ABOUTME: OpenAI embeddings client for the text-embedding-* models
// ABOUTME: Picks the API key per model, retries with backoff and converts to float64
package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/util"
)

// ErrMissingAPIKey means an OpenAI model was used without any API key
var ErrMissingAPIKey = fmt.Errorf("missing OpenAI API key")

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	// APIKey is used when the selected model carries no key of its own
	APIKey     string
	BaseURL    string
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIClient generates embeddings through the OpenAI API
type OpenAIClient struct {
	cfg ClientConfig

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAIClient creates an OpenAI embeddings client. A missing key is only an
// error once a request needs it, since models may bring their own.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	return &OpenAIClient{cfg: cfg, clients: make(map[string]*openai.Client)}
}

func (c *OpenAIClient) client(apiKey string) *openai.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[apiKey]; ok {
		return cl
	}
	config := openai.DefaultConfig(apiKey)
	if c.cfg.BaseURL != "" {
		config.BaseURL = c.cfg.BaseURL
	}
	cl := openai.NewClientWithConfig(config)
	c.clients[apiKey] = cl
	return cl
}

// Embed generates an embedding for req.Text. OpenAI models take no instruction.
func (c *OpenAIClient) Embed(ctx context.Context, req models.EmbeddingRequest) ([]float64, error) {
	apiKey := req.Model.APIKey
	if apiKey == "" {
		apiKey = c.cfg.APIKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", req.Model.Name, ErrMissingAPIKey)
	}
	client := c.client(apiKey)

	var embedding []float64
	err := util.Retry(ctx, c.cfg.MaxRetries, c.cfg.RetryDelay, func(ctx context.Context) error {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{req.Text},
			Model: openai.EmbeddingModel(req.Model.Name),
		})
		if err != nil {
			return err
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("no embeddings returned")
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding with %s: %w", req.Model.Name, err)
	}
	return embedding, nil
}
