// Package llm talks to the language model that rewrites vulnerable code.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

type Provider interface {
	GetModel() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s request failed with status: %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s request failed with status: %d. Details: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed if sent again.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

var SupportedProviders = []string{string(ProviderOpenAI), string(ProviderOllama)}
