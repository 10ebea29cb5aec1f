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

	"newsreel/internal/speech"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	timeout        = 120 * time.Second
)

var _ speech.Provider = (*Client)(nil)

type Client struct {
	apiKey     string
	voice      string
	model      string
	baseURL    string
	httpClient *http.Client
}

type Options struct {
	APIKey  string
	Voice   string
	Model   string
	BaseURL string
}

type speechRequest struct {
	Model string `json:"model"`
	Voice string `json:"voice"`
	Input string `json:"input"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		apiKey:     opts.APIKey,
		voice:      opts.Voice,
		model:      opts.Model,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	data, err := json.Marshal(speechRequest{
		Model: c.model,
		Voice: c.voice,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("openai tts: %s - %s", resp.Status, errResp.Error.Message)
		}
		return nil, fmt.Errorf("openai tts: %s - %s", resp.Status, string(body))
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("openai tts: empty audio response")
	}

	return &speech.Audio{Data: body, MIMEType: speech.MIMETypeMPEG}, nil
}
