// ABOUTME: Tests for the OpenAI embeddings client, router and rate limiter
// ABOUTME: Serves a fake /v1/embeddings endpoint with httptest
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/harper/embedding-playground/internal/models"
)

var small = models.ModelConfig{Name: "text-embedding-3-small", Provider: models.ProviderOpenAI}

func fakeOpenAI(t *testing.T, gotKey *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		if gotKey != nil {
			*gotKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != small.Name || len(req.Input) != 1 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small",
			"data":[{"object":"embedding","index":0,"embedding":[0.5,-0.25]}],
			"usage":{"prompt_tokens":1,"total_tokens":1}}`))
	}))
}

func TestOpenAIClient_Embed(t *testing.T) {
	var key string
	srv := fakeOpenAI(t, &key)
	defer srv.Close()

	client := NewOpenAIClient(ClientConfig{APIKey: "env-key", BaseURL: srv.URL + "/v1"})
	vec, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: small, Text: "hi", Instruction: "ignored"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 || vec[1] != -0.25 {
		t.Errorf("vector = %v", vec)
	}
	if key != "env-key" {
		t.Errorf("api key = %q, want env-key", key)
	}

	withKey := small
	withKey.APIKey = "model-key"
	if _, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: withKey, Text: "hi"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if key != "model-key" {
		t.Errorf("api key = %q, want the model's own key", key)
	}
}

func TestOpenAIClient_MissingKey(t *testing.T) {
	client := NewOpenAIClient(ClientConfig{})
	_, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: small, Text: "hi"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

type stubEmbedder struct {
	name  string
	calls int
}

func (s *stubEmbedder) Embed(context.Context, models.EmbeddingRequest) ([]float64, error) {
	s.calls++
	return []float64{float64(len(s.name))}, nil
}

func TestRouter(t *testing.T) {
	backend := &stubEmbedder{name: "backend"}
	oa := &stubEmbedder{name: "openai"}
	r := &Router{Backend: backend, OpenAI: oa}

	for _, tc := range []struct {
		model models.ModelConfig
		want  *stubEmbedder
	}{
		{small, oa},
		{gte, backend},
		{models.ModelConfig{Name: "legacy"}, backend},
	} {
		before := tc.want.calls
		if _, err := r.Embed(context.Background(), models.EmbeddingRequest{Model: tc.model}); err != nil {
			t.Errorf("%s: Embed() error = %v", tc.model.Name, err)
		}
		if tc.want.calls != before+1 {
			t.Errorf("%s: routed to the wrong provider", tc.model.Name)
		}
	}

	if _, err := r.Embed(context.Background(), models.EmbeddingRequest{Model: models.ModelConfig{Name: "x", Provider: "cohere"}}); err == nil {
		t.Error("expected an error for an unknown provider")
	}
	if _, err := (&Router{}).Embed(context.Background(), models.EmbeddingRequest{Model: small}); err == nil {
		t.Error("expected an error when the provider is not configured")
	}
}

func TestRateLimited(t *testing.T) {
	inner := &stubEmbedder{name: "x"}
	if got := NewRateLimited(inner, 0, 1); got != Embedder(inner) {
		t.Error("a zero rate should return the embedder unchanged")
	}

	limited := NewRateLimited(inner, 1, 1)
	if _, err := limited.Embed(context.Background(), models.EmbeddingRequest{}); err != nil {
		t.Fatalf("first Embed() error = %v", err)
	}

	// the bucket is empty, so a short deadline cannot be met
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := limited.Embed(ctx, models.EmbeddingRequest{}); err == nil {
		t.Error("expected the limiter to refuse within the deadline")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}
