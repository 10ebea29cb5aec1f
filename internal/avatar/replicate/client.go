package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsreel/internal/avatar"
)

const (
	defaultBaseURL      = "https://api.replicate.com/v1"
	defaultPollInterval = 2 * time.Second
	requestTimeout      = 60 * time.Second
	providerName        = "Replicate"
)

var _ avatar.Synthesizer = (*Client)(nil)

type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

type Options struct {
	Token        string
	Model        string // "owner/name:version" or "owner/name"
	PoseStyle    int
	Preprocess   string
	PollInterval time.Duration
	BaseURL      string
}

type Client struct {
	token        string
	model        string
	poseStyle    int
	preprocess   string
	pollInterval time.Duration
	baseURL      string
	httpClient   *http.Client
}

type sadTalkerInput struct {
	DrivenAudio string `json:"driven_audio"`
	SourceImage string `json:"source_image"`
	PoseStyle   int    `json:"pose_style"`
	Preprocess  string `json:"preprocess"`
}

type predictionRequest struct {
	Version string         `json:"version,omitempty"`
	Input   sadTalkerInput `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status Status          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

type errorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// APIError is a non-2xx answer from the Replicate API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("replicate: %d %s", e.StatusCode, e.Detail)
}

func NewClient(opts Options) *Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Client{
		token:        opts.Token,
		model:        opts.Model,
		poseStyle:    opts.PoseStyle,
		preprocess:   opts.Preprocess,
		pollInterval: interval,
		baseURL:      strings.TrimRight(base, "/"),
		httpClient:   &http.Client{Timeout: requestTimeout},
	}
}

// Synthesize creates a prediction and blocks until it reaches a terminal
// status or ctx is done.
func (c *Client) Synthesize(ctx context.Context, req avatar.Request) (string, error) {
	pred, err := c.create(ctx, sadTalkerInput{
		DrivenAudio: req.AudioURI,
		SourceImage: req.SourceImageURL,
		PoseStyle:   c.poseStyle,
		Preprocess:  c.preprocess,
	})
	if err != nil {
		return "", wrapCredits(err)
	}
	slog.Debug("Prediction created", "id", pred.ID, "status", pred.Status)

	pred, err = c.wait(ctx, pred)
	if err != nil {
		return "", wrapCredits(err)
	}

	switch pred.Status {
	case StatusSucceeded:
		return parseOutput(pred.Output)
	case StatusCanceled:
		return "", fmt.Errorf("prediction %s canceled", pred.ID)
	default:
		return "", fmt.Errorf("prediction %s failed: %v", pred.ID, pred.Error)
	}
}

func (c *Client) create(ctx context.Context, input sadTalkerInput) (*prediction, error) {
	owner, version, hasVersion := strings.Cut(c.model, ":")

	url := c.baseURL + "/predictions"
	body := predictionRequest{Input: input}
	if hasVersion {
		body.Version = version
	} else {
		url = fmt.Sprintf("%s/models/%s/predictions", c.baseURL, owner)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var pred prediction
	if err := c.do(ctx, http.MethodPost, url, data, &pred); err != nil {
		return nil, fmt.Errorf("create prediction: %w", err)
	}
	return &pred, nil
}

func (c *Client) wait(ctx context.Context, pred *prediction) (*prediction, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !pred.Status.IsTerminal() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for prediction %s: %w", pred.ID, ctx.Err())
		case <-ticker.C:
		}

		var next prediction
		if err := c.do(ctx, http.MethodGet, c.baseURL+"/predictions/"+pred.ID, nil, &next); err != nil {
			return nil, fmt.Errorf("get prediction: %w", err)
		}
		if next.Status != pred.Status {
			slog.Debug("Prediction status", "id", pred.ID, "status", next.Status)
		}
		pred = &next
	}
	return pred, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Detail: strings.TrimSpace(string(body))}

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Status != 0 {
			apiErr.StatusCode = errResp.Status
		}
		if errResp.Detail != "" {
			apiErr.Detail = errResp.Detail
		}
	}
	return apiErr
}

func wrapCredits(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusPaymentRequired {
		return &avatar.InsufficientCreditsError{Provider: providerName, Err: err}
	}
	return err
}

// parseOutput accepts either a single URL or a list of URLs and keeps the first.
func parseOutput(raw json.RawMessage) (string, error) {
	var url string
	if err := json.Unmarshal(raw, &url); err == nil {
		if url == "" {
			return "", fmt.Errorf("prediction returned empty output")
		}
		return url, nil
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return "", fmt.Errorf("parse output: %w", err)
	}
	if len(urls) == 0 || urls[0] == "" {
		return "", fmt.Errorf("prediction returned empty output")
	}
	return urls[0], nil
}
