// ABOUTME: MCP tool definitions and registration for the embedding playground
// ABOUTME: Exposes entry editing, model selection and the derived views as tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/embedding-playground/internal/core"
	"github.com/harper/embedding-playground/internal/models"
	"github.com/harper/embedding-playground/internal/notify"
)

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, pg *core.Playground, catalog []models.ModelConfig, recorder *notify.Recorder) *Handlers {
	handlers := NewHandlers(pg, catalog, recorder)

	server.AddTool(mcp.Tool{
		Name:        "add_text_embedding",
		Description: "Create a text embedding entry (named a0, a1, ...). Its vector is fetched from the selected model after a short debounce.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text":        stringProp("Text to embed"),
				"instruction": stringProp("Optional instruction, used only by instruction-following models"),
			},
		},
	}, handlers.AddTextEmbedding)

	server.AddTool(mcp.Tool{
		Name:        "add_math_embedding",
		Description: "Create a math embedding entry (named b0, b1, ...) defined by an expression over other entries, e.g. 'a0 - a1 + a2'.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"expression": stringProp("Arithmetic expression over entry names; functions: cosineSimilarity, dot, norm, normalize, mean"),
			},
		},
	}, handlers.AddMathEmbedding)

	server.AddTool(mcp.Tool{
		Name:        "update_text_embedding",
		Description: "Change the text and/or instruction of a text entry. Omitted fields are left unchanged.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name":        stringProp("Entry name, e.g. a0"),
				"text":        stringProp("New text"),
				"instruction": stringProp("New instruction"),
			},
			Required: []string{"name"},
		},
	}, handlers.UpdateTextEmbedding)

	server.AddTool(mcp.Tool{
		Name:        "update_math_embedding",
		Description: "Change the expression of a math entry.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name":       stringProp("Entry name, e.g. b0"),
				"expression": stringProp("New expression"),
			},
			Required: []string{"name", "expression"},
		},
	}, handlers.UpdateMathEmbedding)

	server.AddTool(mcp.Tool{
		Name:        "delete_embedding",
		Description: "Delete a text or math entry. Math entries that used it lose their vector.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": stringProp("Entry name"),
			},
			Required: []string{"name"},
		},
	}, handlers.DeleteEmbedding)

	server.AddTool(mcp.Tool{
		Name:        "retry_embedding",
		Description: "Refetch a text entry's vector immediately, e.g. after a failed request.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": stringProp("Text entry name"),
			},
			Required: []string{"name"},
		},
	}, handlers.RetryEmbedding)

	server.AddTool(mcp.Tool{
		Name:        "list_embeddings",
		Description: "List every entry with its inputs, status and vector dimension, plus any pending notifications.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListEmbeddings)

	server.AddTool(mcp.Tool{
		Name:        "list_models",
		Description: "List the selectable embedding models and which one is selected.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListModels)

	server.AddTool(mcp.Tool{
		Name:        "select_model",
		Description: "Select the embedding model. All text vectors are cleared and refetched.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": stringProp("Model name from list_models"),
			},
			Required: []string{"name"},
		},
	}, handlers.SelectModel)

	server.AddTool(mcp.Tool{
		Name:        "similarity_matrix",
		Description: "Cosine similarity between every pair of entries that currently have a vector.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.SimilarityMatrix)

	server.AddTool(mcp.Tool{
		Name:        "projection",
		Description: "2D PCA projection of the entries with vectors. Needs at least three.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.Projection)

	server.AddTool(mcp.Tool{
		Name:        "flush",
		Description: "Run all debounced work now and wait for outstanding fetches.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"timeout_seconds": map[string]interface{}{
					"type":        "number",
					"description": "Maximum time to wait (default: 30)",
					"default":     30,
				},
			},
		},
	}, handlers.Flush)

	return handlers
}
