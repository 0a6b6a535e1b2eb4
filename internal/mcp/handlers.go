// ABOUTME: MCP tool handler implementations for the embedding playground
// ABOUTME: Each handler maps tool arguments onto Playground operations and renders JSON
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/embedding-playground/internal/core"
	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
)

const defaultFlushTimeout = 30 * time.Second

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	pg       *core.Playground
	catalog  []models.ModelConfig
	recorder *notify.Recorder
}

// NewHandlers creates handlers over pg. recorder may be nil.
func NewHandlers(pg *core.Playground, catalog []models.ModelConfig, recorder *notify.Recorder) *Handlers {
	return &Handlers{pg: pg, catalog: catalog, recorder: recorder}
}

// optionalString returns the argument and whether it was supplied at all
func optionalString(request mcp.CallToolRequest, key string) (string, bool) {
	v, ok := request.GetArguments()[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// AddTextEmbedding handles the add_text_embedding tool
func (h *Handlers) AddTextEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := h.pg.AddText(ctx)
	if instruction, ok := optionalString(request, "instruction"); ok {
		if err := h.pg.EditInstruction(ctx, name, instruction); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set instruction: %v", err)), nil
		}
	}
	if text, ok := optionalString(request, "text"); ok {
		if err := h.pg.EditText(ctx, name, text); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set text: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created text embedding %s", name)), nil
}

// AddMathEmbedding handles the add_math_embedding tool
func (h *Handlers) AddMathEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := h.pg.AddMath()
	if expr, ok := optionalString(request, "expression"); ok {
		if err := h.pg.EditExpression(name, expr); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set expression: %v", err)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("Created math embedding %s", name)), nil
}

// UpdateTextEmbedding handles the update_text_embedding tool
func (h *Handlers) UpdateTextEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}

	instruction, hasInstruction := optionalString(request, "instruction")
	text, hasText := optionalString(request, "text")
	if !hasInstruction && !hasText {
		return mcp.NewToolResultError("provide text and/or instruction"), nil
	}
	if hasInstruction {
		if err := h.pg.EditInstruction(ctx, name, instruction); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to update %s: %v", name, err)), nil
		}
	}
	if hasText {
		if err := h.pg.EditText(ctx, name, text); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to update %s: %v", name, err)), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s", name)), nil
}

// UpdateMathEmbedding handles the update_math_embedding tool
func (h *Handlers) UpdateMathEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}
	expr, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError("expression argument is required and must be a string"), nil
	}
	if err := h.pg.EditExpression(name, expr); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update %s: %v", name, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s", name)), nil
}

// DeleteEmbedding handles the delete_embedding tool
func (h *Handlers) DeleteEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}
	if err := h.pg.Delete(ctx, name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete %s: %v", name, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %s", name)), nil
}

// RetryEmbedding handles the retry_embedding tool
func (h *Handlers) RetryEmbedding(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}
	if err := h.pg.Retry(name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to retry %s: %v", name, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Refetching %s", name)), nil
}

type textView struct {
	Name        string `json:"name"`
	Instruction string `json:"instruction,omitempty"`
	Text        string `json:"text"`
	Dimension   int    `json:"dimension"`
	Loading     bool   `json:"loading"`
	Outdated    bool   `json:"outdated"`
	Scheduled   bool   `json:"scheduled"`
}

type mathView struct {
	Name         string   `json:"name"`
	Expression   string   `json:"expression"`
	Dependencies []string `json:"dependencies,omitempty"`
	Dimension    int      `json:"dimension"`
	Error        string   `json:"error,omitempty"`
}

type notificationView struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// ListEmbeddings handles the list_embeddings tool
func (h *Handlers) ListEmbeddings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := struct {
		Model         string             `json:"model,omitempty"`
		Texts         []textView         `json:"texts"`
		Maths         []mathView         `json:"maths"`
		Notifications []notificationView `json:"notifications,omitempty"`
	}{
		Model: h.pg.Model().Name,
		Texts: []textView{},
		Maths: []mathView{},
	}

	for _, e := range h.pg.TextEmbeddings() {
		out.Texts = append(out.Texts, textView{
			Name:        e.Name,
			Instruction: e.Instruction,
			Text:        e.Text,
			Dimension:   len(e.Vector),
			Loading:     e.IsLoading,
			Outdated:    e.IsOutdated,
			Scheduled:   h.pg.Pending(e.Name),
		})
	}
	for _, e := range h.pg.MathEmbeddings() {
		out.Maths = append(out.Maths, mathView{
			Name:         e.Name,
			Expression:   e.Expression,
			Dependencies: e.Dependencies,
			Dimension:    len(e.Vector),
			Error:        e.Error,
		})
	}
	if h.recorder != nil {
		for _, n := range h.recorder.Drain() {
			if n.Severity < notify.Warning {
				continue
			}
			v := notificationView{Severity: n.Severity.String(), Message: n.Message}
			if n.Err != nil {
				v.Error = n.Err.Error()
			}
			out.Notifications = append(out.Notifications, v)
		}
	}
	return jsonResult(out)
}

// ListModels handles the list_models tool
func (h *Handlers) ListModels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type modelView struct {
		Name        string `json:"name"`
		Label       string `json:"label"`
		Provider    string `json:"provider"`
		Instruction bool   `json:"instruction"`
		Selected    bool   `json:"selected"`
	}
	selected := h.pg.Model().Name
	out := make([]modelView, 0, len(h.catalog))
	for _, m := range h.catalog {
		out = append(out, modelView{
			Name:        m.Name,
			Label:       m.Label,
			Provider:    string(m.Provider),
			Instruction: m.Instruction,
			Selected:    m.Name == selected,
		})
	}
	return jsonResult(out)
}

// SelectModel handles the select_model tool
func (h *Handlers) SelectModel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required and must be a string"), nil
	}
	m, ok := models.FindModel(h.catalog, name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown model %q; see list_models", name)), nil
	}
	h.pg.SetModel(m)
	return mcp.NewToolResultText(fmt.Sprintf("Selected %s", m.Label)), nil
}

// SimilarityMatrix handles the similarity_matrix tool
func (h *Handlers) SimilarityMatrix(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.pg.Similarity())
}

// Projection handles the projection tool
func (h *Handlers) Projection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.pg.Projection()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

// Flush handles the flush tool
func (h *Handlers) Flush(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout := defaultFlushTimeout
	if secs := request.GetFloat("timeout_seconds", 0); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := h.pg.Flush(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flush did not finish: %v", err)), nil
	}
	return mcp.NewToolResultText("All embeddings settled"), nil
}
