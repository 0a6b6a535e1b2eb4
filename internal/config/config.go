// ABOUTME: Centralized configuration for the embedding playground
// ABOUTME: Loads from environment variables with validation, defaults and a YAML model catalog
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/embedding-playground/internal/models"
)

// Config holds all configuration for the playground
type Config struct {
	// Charm settings
	CharmHost   string
	CharmDBName string
	AutoSync    bool

	// Embedding providers
	BackendURL        string
	OpenAIKey         string
	Model             string
	ModelsFile        string
	FetchTimeout      time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	RequestsPerSecond float64

	// Debounce settings
	TextDebounce time.Duration
	MathDebounce time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		CharmHost:         getEnv("CHARM_HOST", "charm.2389.dev"),
		CharmDBName:       getEnv("CHARM_DB", "playground"),
		AutoSync:          getEnvBool("CHARM_AUTO_SYNC", true),
		BackendURL:        getEnv("PLAYGROUND_BACKEND_URL", "http://localhost:8000"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		Model:             os.Getenv("PLAYGROUND_MODEL"),
		ModelsFile:        os.Getenv("PLAYGROUND_MODELS_FILE"),
		FetchTimeout:      getEnvDuration("PLAYGROUND_FETCH_TIMEOUT", 30*time.Second),
		MaxRetries:        getEnvInt("PLAYGROUND_MAX_RETRIES", 0),
		RetryDelay:        getEnvDuration("PLAYGROUND_RETRY_DELAY", time.Second),
		RequestsPerSecond: getEnvFloat("PLAYGROUND_REQUESTS_PER_SECOND", 0),
		TextDebounce:      getEnvDuration("PLAYGROUND_TEXT_DEBOUNCE", time.Second),
		MathDebounce:      getEnvDuration("PLAYGROUND_MATH_DEBOUNCE", 500*time.Millisecond),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PLAYGROUND_BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("PLAYGROUND_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("PLAYGROUND_FETCH_TIMEOUT must be positive, got %v", c.FetchTimeout)
	}
	if c.TextDebounce < 0 || c.MathDebounce < 0 {
		return fmt.Errorf("debounce delays must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("PLAYGROUND_REQUESTS_PER_SECOND must not be negative, got %f", c.RequestsPerSecond)
	}
	return nil
}

type catalogFile struct {
	Models []models.ModelConfig `yaml:"models"`
}

// Catalog returns the selectable models: the built-in list, or the models
// listed in ModelsFile when one is configured.
func (c *Config) Catalog() ([]models.ModelConfig, error) {
	if c.ModelsFile == "" {
		return models.DefaultCatalog(), nil
	}
	data, err := os.ReadFile(c.ModelsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML model catalog
func ParseCatalog(data []byte) ([]models.ModelConfig, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models file lists no models")
	}

	seen := make(map[string]bool, len(file.Models))
	for i, m := range file.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("model %d has no name", i)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("model %s listed twice", m.Name)
		}
		seen[m.Name] = true

		switch m.Provider {
		case "":
			file.Models[i].Provider = models.ProviderBackend
		case models.ProviderBackend, models.ProviderOpenAI:
		default:
			return nil, fmt.Errorf("model %s has unknown provider %q", m.Name, m.Provider)
		}
		if m.Label == "" {
			file.Models[i].Label = m.Name
		}
	}
	return file.Models, nil
}

// SelectedModel resolves Model against catalog. An empty Model means none selected.
func (c *Config) SelectedModel(catalog []models.ModelConfig) (models.ModelConfig, error) {
	if c.Model == "" {
		return models.ModelConfig{}, nil
	}
	m, ok := models.FindModel(catalog, c.Model)
	if !ok {
		return models.ModelConfig{}, fmt.Errorf("PLAYGROUND_MODEL %q is not in the model catalog", c.Model)
	}
	return m, nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
