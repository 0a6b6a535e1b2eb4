// ABOUTME: Embedding model catalog and per-model configuration
// ABOUTME: Mirrors the models selectable in the playground and their capabilities
package models

// Provider identifies which service generates a model's embeddings
type Provider string

const (
	ProviderBackend Provider = "backend"
	ProviderOpenAI  Provider = "openai"
)

// ModelConfig is the currently selected embedding model
type ModelConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Label       string   `yaml:"label" json:"label"`
	Provider    Provider `yaml:"provider" json:"provider"`
	Instruction bool     `yaml:"instruction" json:"instruction"`
	APIKey      string   `yaml:"api_key,omitempty" json:"-"`
}

// IsZero reports whether no model is selected
func (m ModelConfig) IsZero() bool {
	return m.Name == ""
}

// DefaultCatalog returns the built-in list of selectable models
func DefaultCatalog() []ModelConfig {
	return []ModelConfig{
		{Name: "text-embedding-3-small", Label: "OpenAI 3 Small", Provider: ProviderOpenAI},
		{Name: "text-embedding-3-large", Label: "OpenAI 3 Large", Provider: ProviderOpenAI},
		{Name: "text-embedding-ada-002", Label: "OpenAI Ada v2", Provider: ProviderOpenAI},
		{Name: "thenlper/gte-large", Label: "GTE Large", Provider: ProviderBackend},
		{Name: "BAAI/bge-large-en", Label: "BGE Large En", Provider: ProviderBackend, Instruction: true},
		{Name: "sentence-transformers/all-mpnet-base-v2", Label: "All MPNet Base v2", Provider: ProviderBackend},
		{Name: "hkunlp/instructor-large", Label: "Instructor Large", Provider: ProviderBackend, Instruction: true},
		{Name: "hkunlp/instructor-xl", Label: "Instructor XL", Provider: ProviderBackend, Instruction: true},
		{Name: "Salesforce/codet5p-110m-embedding", Label: "Salesforce CodeT5+ 110m", Provider: ProviderBackend},
	}
}

// FindModel returns the catalog entry with the given name
func FindModel(catalog []ModelConfig, name string) (ModelConfig, bool) {
	for _, m := range catalog {
		if m.Name == name {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// EmbeddingRequest is one call to an embedding backend
type EmbeddingRequest struct {
	Model       ModelConfig
	Instruction string
	Text        string
}
