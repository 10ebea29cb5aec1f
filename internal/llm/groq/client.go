package groq

import (
	"context"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"newsreel/internal/llm"
	"newsreel/pkg/prompts"
)

var _ llm.Client = (*Client)(nil)

type Client struct {
	client    *groq.Client
	model     groq.ChatModel
	maxTokens int
	prompts   *prompts.Prompts
}

func NewClient(opts llm.Options, p *prompts.Prompts) (*Client, error) {
	var (
		client *groq.Client
		err    error
	)
	if opts.BaseURL != "" {
		client, err = groq.NewClient(opts.APIKey, groq.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	} else {
		client, err = groq.NewClient(opts.APIKey)
	}
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client:    client,
		model:     groq.ChatModel(opts.Model),
		maxTokens: opts.MaxTokens,
		prompts:   p,
	}, nil
}

func (c *Client) GenerateScript(ctx context.Context, businessData string) (string, error) {
	prompt, err := c.prompts.RenderReport(prompts.ReportParams{BusinessData: businessData})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: c.prompts.System.Reporter},
			{Role: groq.RoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
