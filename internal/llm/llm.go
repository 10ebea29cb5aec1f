package llm

import "context"

// Client turns raw business data into a short spoken news script.
// An empty completion is returned as "" without error.
type Client interface {
	GenerateScript(ctx context.Context, businessData string) (string, error)
}

// Options are shared by every provider implementation.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
}
