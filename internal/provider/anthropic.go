package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/revqlabs/revq/internal/model"
)

const (
	anthropicAPIURL     = "https://api.anthropic.com/v1/messages"
	anthropicAPIVersion = "2023-06-01"
)

// Anthropic implements Provider against Anthropic's messages API.
type Anthropic struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option customizes an Anthropic provider.
type Option func(*Anthropic)

// WithBaseURL overrides the API endpoint, for tests.
func WithBaseURL(url string) Option {
	return func(a *Anthropic) { a.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Anthropic) { a.client = c }
}

// NewAnthropic builds a provider from the ANTHROPIC_API_KEY environment
// variable. A missing key is a configuration error and fails fast.
func NewAnthropic(timeout time.Duration, opts ...Option) (*Anthropic, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}

	a := &Anthropic{
		apiKey:  key,
		baseURL: anthropicAPIURL,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicBlock `json:"content"`
	Usage   anthropicUsage   `json:"usage"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Complete sends one request and classifies any failure into a
// model.FailureKind. It never retries: retry policy belongs to the
// adaptive executor.
func (a *Anthropic) Complete(ctx context.Context, req Request) (Response, error) {
	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, classifyTransportError(err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, &model.FailureError{
			Kind: model.FailureTransientAPI,
			Err:  fmt.Errorf("reading response: %w", err),
		}
	}

	if err := classifyStatus(httpResp.StatusCode, respBody); err != nil {
		return Response{}, err
	}

	var result anthropicResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Response{}, &model.FailureError{
			Kind: model.FailureTransientAPI,
			Err:  fmt.Errorf("parsing response: %w", err),
		}
	}

	var content strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	return Response{
		Content:   content.String(),
		TokensIn:  result.Usage.InputTokens,
		TokensOut: result.Usage.OutputTokens,
	}, nil
}

func classifyTransportError(err error) error {
	kind := model.FailureTransientAPI
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = model.FailureTimeout
	}
	return &model.FailureError{Kind: kind, Err: err}
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return &model.FailureError{
			Kind: model.FailureRateLimited,
			Err:  fmt.Errorf("rate limited (status %d)", status),
		}
	case status == http.StatusBadRequest && isContextTooLong(body):
		return &model.FailureError{
			Kind: model.FailureContextTooLong,
			Err:  fmt.Errorf("input exceeds context window (status %d)", status),
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Credential problems are fatal, not retryable.
		return fmt.Errorf("authentication failed (status %d): %s", status, body)
	case status >= 500 || status == 529:
		return &model.FailureError{
			Kind: model.FailureTransientAPI,
			Err:  fmt.Errorf("server error (status %d)", status),
		}
	default:
		return &model.FailureError{
			Kind: model.FailureTransientAPI,
			Err:  fmt.Errorf("API error (status %d): %s", status, body),
		}
	}
}

func isContextTooLong(body []byte) bool {
	s := strings.ToLower(string(body))
	return strings.Contains(s, "context") && strings.Contains(s, "long") ||
		strings.Contains(s, "prompt is too long") ||
		strings.Contains(s, "maximum context length")
}
