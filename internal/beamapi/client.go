// Package beamapi is the HTTP client for the Beam agent API. The agent is
// an external collaborator: one call in, one terminal result (or a failure)
// out.
package beamapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/pkg/types"
)

const (
	// DefaultTimeout bounds a single task execution round trip.
	DefaultTimeout = 5 * time.Minute
	// MaxRetries is the maximum number of retries for transient failures.
	MaxRetries = 3
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = time.Second
	// RetryMaxInterval is the maximum interval for exponential backoff.
	RetryMaxInterval = 10 * time.Second
)

// ProgressFunc receives intermediate task updates. The plain HTTP client
// never invokes it; streaming client implementations may.
type ProgressFunc func(types.TaskResponse)

// Client talks to the Beam agent API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = types.DefaultAPIURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRetryBackoff creates an exponential backoff with jitter for transient
// API failures, bounded by MaxRetries and the caller's context.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.RandomizationFactor = 0.5
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

// taskRequest is the wire form of a task execution request.
type taskRequest struct {
	Instruction string      `json:"instruction"`
	ProjectPath string      `json:"project_path,omitempty"`
	Context     taskContext `json:"context"`
}

type taskContext struct {
	CurrentFile    string                `json:"current_file,omitempty"`
	SelectedCode   string                `json:"selected_code,omitempty"`
	CursorPosition *types.CursorPosition `json:"cursor_position,omitempty"`
	Branch         string                `json:"branch,omitempty"`
}

// ExecuteTask sends an instruction plus context snapshot and waits for the
// terminal result. Transient failures are retried with backoff; the error
// returned after exhaustion carries a user-facing message.
func (c *Client) ExecuteTask(ctx context.Context, instruction string, info types.ContextInfo, onProgress ProgressFunc) (*types.TaskResponse, error) {
	_ = onProgress // reserved for streaming client implementations

	req := taskRequest{
		Instruction: instruction,
		ProjectPath: info.WorkspacePath,
		Context: taskContext{
			CurrentFile:    info.CurrentFile,
			SelectedCode:   info.SelectedCode,
			CursorPosition: info.Cursor,
			Branch:         info.Branch,
		},
	}

	var resp types.TaskResponse
	if err := c.postRetry(ctx, "/api/task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ApplyChanges applies a change set by ID.
func (c *Client) ApplyChanges(ctx context.Context, changeID string) (*types.ApplyResult, error) {
	req := map[string]string{"change_id": changeID}
	var result types.ApplyResult
	if err := c.post(ctx, "/api/changes/apply", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetDiff fetches the structured diff of one file in a change set.
func (c *Client) GetDiff(ctx context.Context, changeID, file string) (*types.DiffData, error) {
	path := fmt.Sprintf("/api/changes/%s/diff?file=%s", url.PathEscape(changeID), url.QueryEscape(file))
	var diff types.DiffData
	if err := c.get(ctx, path, &diff); err != nil {
		return nil, err
	}
	return &diff, nil
}

// ExplainCode asks the agent to explain a snippet.
func (c *Client) ExplainCode(ctx context.Context, file, code string, lines []int) (string, error) {
	req := map[string]any{"file": file, "code": code}
	if len(lines) == 2 {
		req["lines"] = lines
	}
	var resp struct {
		Explanation string `json:"explanation"`
	}
	if err := c.post(ctx, "/api/explain", req, &resp); err != nil {
		return "", err
	}
	return resp.Explanation, nil
}

// FixError asks the agent to fix a reported error at a location.
func (c *Client) FixError(ctx context.Context, file, errText string, line int, code string) (*types.TaskResponse, error) {
	req := map[string]any{"file": file, "error": errText, "line": line}
	if code != "" {
		req["code"] = code
	}
	var resp types.TaskResponse
	if err := c.post(ctx, "/api/fix", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckHealth reports whether the agent API is reachable.
func (c *Client) CheckHealth(ctx context.Context) bool {
	err := c.get(ctx, "/health", nil)
	return err == nil
}

// postRetry posts with transient-failure retries.
func (c *Client) postRetry(ctx context.Context, path string, body, out any) error {
	log := logging.For("beamapi")
	operation := func() error {
		err := c.post(ctx, path, body, out)
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("retrying transient API failure")
		}
		return err
	}
	if err := backoff.Retry(operation, newRetryBackoff(ctx)); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// newStatusError builds a statusError, preferring the server-provided
// error field over the HTTP status text.
func newStatusError(resp *http.Response) error {
	se := &statusError{status: resp.StatusCode, message: http.StatusText(resp.StatusCode)}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return se
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		se.message = apiErr.Error
	}
	return se
}
