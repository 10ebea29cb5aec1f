package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"newsreel/internal/llm"
	"newsreel/pkg/prompts"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	timeout        = 60 * time.Second
)

var _ llm.Client = (*Client)(nil)

type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	prompts    *prompts.Prompts
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewClient(opts llm.Options, p *prompts.Prompts) *Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxTokens:  opts.MaxTokens,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
		prompts:    p,
	}
}

func (c *Client) GenerateScript(ctx context.Context, businessData string) (string, error) {
	prompt, err := c.prompts.RenderReport(prompts.ReportParams{BusinessData: businessData})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	return c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: c.prompts.System.Reporter},
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("openai: %s - %s", resp.Status, errResp.Error.Message)
		}
		return "", fmt.Errorf("openai: %s - %s", resp.Status, string(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(chat.Choices) == 0 {
		return "", nil
	}
	return chat.Choices[0].Message.Content, nil
}
