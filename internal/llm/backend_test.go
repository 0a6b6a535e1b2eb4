// ABOUTME: Tests for the embedding backend client
// ABOUTME: Uses httptest servers to check wire format, retries and errors
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/harper/embedding-playground/internal/models"
)

var gte = models.ModelConfig{Name: "thenlper/gte-large", Provider: models.ProviderBackend}

func TestBackendClient_Embed(t *testing.T) {
	var got map[string]interface{}
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate_embedding" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		requestID = r.Header.Get(RequestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"length": 3, "embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer srv.Close()

	client, err := NewBackendClient(BackendConfig{BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("NewBackendClient() error = %v", err)
	}
	vec, err := client.Embed(context.Background(), models.EmbeddingRequest{
		Model:       gte,
		Instruction: "Represent the sentence: ",
		Text:        "hello",
	})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 3 || vec[2] != 0.3 {
		t.Errorf("vector = %v", vec)
	}

	if got["embed_model_name"] != "thenlper/gte-large" {
		t.Errorf("embed_model_name = %v", got["embed_model_name"])
	}
	input, _ := got["input"].(map[string]interface{})
	if input["text"] != "hello" || input["instruction"] != "Represent the sentence: " {
		t.Errorf("input = %v", input)
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Errorf("request id %q is not a uuid", requestID)
	}
}

func TestBackendClient_EmptyInstructionIsNull(t *testing.T) {
	var raw map[string]map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		_, _ = w.Write([]byte(`{"length": 1, "embedding": [1]}`))
	}))
	defer srv.Close()

	client, _ := NewBackendClient(BackendConfig{BaseURL: srv.URL})
	if _, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: gte, Text: "x"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if v, ok := raw["input"]["instruction"]; !ok || v != nil {
		t.Errorf("instruction = %v (present %v), want null", v, ok)
	}
}

func TestBackendClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"length": 2, "embedding": [1, 2]}`))
	}))
	defer srv.Close()

	client, _ := NewBackendClient(BackendConfig{BaseURL: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond})
	vec, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: gte, Text: "x"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vec) != 2 || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("vec = %v after %d calls", vec, calls)
	}
}

func TestBackendClient_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"detail": "Model foo not supported."}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client, _ := NewBackendClient(BackendConfig{BaseURL: srv.URL, MaxRetries: 3, RetryDelay: time.Millisecond})
	_, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: gte, Text: "x"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackendClient_BadResponses(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
	}{
		{"empty embedding", `{"length": 0, "embedding": []}`},
		{"length mismatch", `{"length": 4, "embedding": [1, 2]}`},
		{"not json", `pong`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, _ := NewBackendClient(BackendConfig{BaseURL: srv.URL})
			if _, err := client.Embed(context.Background(), models.EmbeddingRequest{Model: gte, Text: "x"}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBackendClient_HonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, _ := NewBackendClient(BackendConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Embed(ctx, models.EmbeddingRequest{Model: gte, Text: "x"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBackendClient_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ping" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`"pong"`))
	}))
	defer srv.Close()

	client, _ := NewBackendClient(BackendConfig{BaseURL: srv.URL})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestNewBackendClient_RequiresURL(t *testing.T) {
	if _, err := NewBackendClient(BackendConfig{}); err == nil {
		t.Error("expected an error without a base URL")
	}
}
