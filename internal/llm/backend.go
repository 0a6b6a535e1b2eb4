// ABOUTME: HTTP client for the self-hosted embedding backend
// ABOUTME: POSTs to /api/generate_embedding and checks liveness via /api/ping
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/util"
)

const (
	generatePath = "/api/generate_embedding"
	pingPath     = "/api/ping"

	// RequestIDHeader carries a per-call id so backend logs can be correlated
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 512
)

// BackendConfig configures a BackendClient
type BackendConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
	RetryDelay time.Duration
}

// BackendClient talks to the embedding backend
type BackendClient struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
}

type generateInput struct {
	Instruction *string `json:"instruction"`
	Text        string  `json:"text"`
}

type generateRequest struct {
	Model string        `json:"embed_model_name"`
	Input generateInput `json:"input"`
}

type generateResponse struct {
	Length    int       `json:"length"`
	Embedding []float64 `json:"embedding"`
}

// NewBackendClient creates a backend client for cfg.BaseURL
func NewBackendClient(cfg BackendConfig) (*BackendClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &BackendClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       httpClient,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Embed requests one embedding. The instruction is sent only when non-empty.
func (c *BackendClient) Embed(ctx context.Context, req models.EmbeddingRequest) ([]float64, error) {
	body := generateRequest{
		Model: req.Model.Name,
		Input: generateInput{Text: req.Text},
	}
	if req.Instruction != "" {
		instruction := req.Instruction
		body.Input.Instruction = &instruction
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var embedding []float64
	err = util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		var callErr error
		embedding, callErr = c.generate(ctx, payload)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("backend embedding with %s: %w", req.Model.Name, err)
	}
	return embedding, nil
}

func (c *BackendClient) generate(ctx context.Context, payload []byte) ([]float64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, util.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(RequestIDHeader, uuid.New().String())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, util.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(out.Embedding) == 0 {
		return nil, util.Permanent(fmt.Errorf("no embedding returned"))
	}
	if out.Length != 0 && out.Length != len(out.Embedding) {
		return nil, util.Permanent(fmt.Errorf("embedding length %d does not match reported length %d", len(out.Embedding), out.Length))
	}
	return out.Embedding, nil
}

// Ping checks the backend is reachable
func (c *BackendClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pingPath, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set(RequestIDHeader, uuid.New().String())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	var pong string
	if err := json.NewDecoder(resp.Body).Decode(&pong); err != nil || pong != "pong" {
		return fmt.Errorf("ping backend: unexpected reply")
	}
	return nil
}

// checkStatus turns non-2xx responses into errors; client errors are not retried
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := fmt.Errorf("backend returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return util.Permanent(err)
	}
	return err
}
