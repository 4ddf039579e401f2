package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// StageNormalize submits prepared rows and expects a normalized vendor
	// list back.
	StageNormalize = "normalize"
	// StageOptimize submits the normalized vendors and expects the
	// optimization analysis back.
	StageOptimize = "optimize"

	maxErrorBodyLen = 500
)

// StageClient executes the two remote analysis stages. The exact endpoint
// contract is an opaque external service; callers must tolerate multiple
// response envelope shapes.
type StageClient interface {
	Normalize(ctx context.Context, payload any) (json.RawMessage, error)
	Optimize(ctx context.Context, payload any) (json.RawMessage, error)
}

// HTTPClient talks to the external analysis service over JSON POST with a
// static header credential.
type HTTPClient struct {
	normalizeURL string
	optimizeURL  string
	apiKey       string
	httpClient   *http.Client
}

// NewHTTPClient validates configuration and constructs a client. Missing
// configuration is a ConfigError: there is no point issuing requests that
// can only fail.
func NewHTTPClient(normalizeURL, optimizeURL, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	if strings.TrimSpace(normalizeURL) == "" {
		return nil, &ConfigError{Missing: "ANALYSIS_NORMALIZE_URL"}
	}
	if strings.TrimSpace(optimizeURL) == "" {
		return nil, &ConfigError{Missing: "ANALYSIS_OPTIMIZE_URL"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, &ConfigError{Missing: "ANALYSIS_API_KEY"}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		normalizeURL: normalizeURL,
		optimizeURL:  optimizeURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

// Normalize runs the first remote stage.
func (c *HTTPClient) Normalize(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, StageNormalize, c.normalizeURL, payload)
}

// Optimize runs the second remote stage.
func (c *HTTPClient) Optimize(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.post(ctx, StageOptimize, c.optimizeURL, payload)
}

func (c *HTTPClient) post(ctx context.Context, stage, url string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ParsingError{Stage: stage, Reason: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Stage: stage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Stage: stage, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Stage: stage, Status: resp.StatusCode, Body: truncate(string(raw), maxErrorBodyLen)}
	}
	return raw, nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > n {
		return s[:n]
	}
	return s
}
