package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsreel/internal/speech"
)

const (
	baseURL      = "https://api.elevenlabs.io/v1"
	timeout      = 120 * time.Second
	outputFormat = "mp3_44100_128"
)

var _ speech.Provider = (*Client)(nil)

type Client struct {
	apiKey     string
	httpClient *http.Client
	voiceID    string
	model      string
	baseURL    string
	stability  float64
	similarity float64
}

type Config struct {
	APIKey     string
	VoiceID    string
	Model      string
	Stability  float64
	Similarity float64
}

type option func(*Client)

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

func withBaseURL(url string) option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func withHTTPClient(client *http.Client) option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(cfg Config) *Client {
	return newClient(cfg)
}

func newClient(cfg Config, opts ...option) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		voiceID:    cfg.VoiceID,
		model:      cfg.Model,
		baseURL:    baseURL,
		stability:  cfg.Stability,
		similarity: cfg.Similarity,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Synthesize(ctx context.Context, text string) (*speech.Audio, error) {
	req, err := c.buildRequest(ctx, text)
	if err != nil {
		return nil, err
	}

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
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail.Message != "" {
			return nil, fmt.Errorf("elevenlabs: %s - %s", resp.Status, errResp.Detail.Message)
		}
		return nil, fmt.Errorf("elevenlabs: %s - %s", resp.Status, string(body))
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("elevenlabs: empty response")
	}

	return &speech.Audio{Data: body, MIMEType: speech.MIMETypeMPEG}, nil
}

func (c *Client) buildRequest(ctx context.Context, text string) (*http.Request, error) {
	data, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", c.baseURL, c.voiceID, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", speech.MIMETypeMPEG)
	req.Header.Set("xi-api-key", c.apiKey)

	return req, nil
}
