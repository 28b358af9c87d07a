package llm

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

const (
	DefaultOpenAIURL = "https://api.openai.com"
	DefaultOllamaURL = "http://localhost:11434"
)

type ProviderConfig struct {
	Type       ProviderType
	Model      string
	BaseURL    string
	APIKey     string
	MaxRetries int
	Timeout    time.Duration
	Logger     *zap.Logger
}

func NewProvider(config ProviderConfig) (Provider, error) {
	client := &http.Client{Timeout: config.Timeout}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch config.Type {
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = DefaultOpenAIURL
		}
		p := NewOpenAIProvider(baseURL, config.Model, config.APIKey)
		p.client = client
		p.retry = retryPolicy{maxRetries: config.MaxRetries, base: defaultBackoff, logger: logger}
		return p, nil
	case ProviderOllama:
		baseURL := config.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		p := NewOllamaProvider(baseURL, config.Model)
		p.client = client
		p.retry = retryPolicy{maxRetries: config.MaxRetries, base: defaultBackoff, logger: logger}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s (supported: %v)", config.Type, SupportedProviders)
	}
}
