// ABOUTME: Routes embedding requests to the right provider for the selected model
// ABOUTME: Also offers a rate-limited wrapper shared by all providers
package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/harper/embedding-playground/internal/models"
)

// Embedder produces an embedding vector for one request
type Embedder interface {
	Embed(ctx context.Context, req models.EmbeddingRequest) ([]float64, error)
}

// Router sends each request to the embedder for its model's provider
type Router struct {
	Backend Embedder
	OpenAI  Embedder
}

// Embed dispatches req by provider
func (r *Router) Embed(ctx context.Context, req models.EmbeddingRequest) ([]float64, error) {
	var target Embedder
	switch req.Model.Provider {
	case models.ProviderOpenAI:
		target = r.OpenAI
	case models.ProviderBackend, "":
		target = r.Backend
	default:
		return nil, fmt.Errorf("unknown provider %q for model %s", req.Model.Provider, req.Model.Name)
	}
	if target == nil {
		return nil, fmt.Errorf("no %s provider configured for model %s", providerName(req.Model.Provider), req.Model.Name)
	}
	return target.Embed(ctx, req)
}

func providerName(p models.Provider) string {
	if p == "" {
		return string(models.ProviderBackend)
	}
	return string(p)
}

// RateLimited spaces out requests to the wrapped embedder
type RateLimited struct {
	next    Embedder
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond requests per second with a burst of burst.
// A non-positive perSecond disables limiting.
func NewRateLimited(next Embedder, perSecond float64, burst int) Embedder {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Embed waits for a token, then forwards the request
func (r *RateLimited) Embed(ctx context.Context, req models.EmbeddingRequest) ([]float64, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Embed(ctx, req)
}
