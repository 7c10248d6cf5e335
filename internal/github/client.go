// Package github fetches starred repositories and README documents from the
// GitHub REST API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Yrd980/starsearch/pkg/types"
)

const (
	DefaultBaseURL = "https://api.github.com"

	// Starred listing page size
	PerPage = 100

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// readmeCandidates are tried in order until one exists.
var readmeCandidates = []string{
	"README.md",
	"readme.md",
	"README.rst",
	"README.txt",
	"README",
}

// RetryConfig configures exponential backoff retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults for API retry
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// retryWithBackoff executes fn with exponential backoff retry logic.
// Retry is skipped on context cancellation.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}

// Client talks to the GitHub REST API on behalf of a single token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	retry      RetryConfig
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a GitHub API client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry:  DefaultRetryConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	return c.httpClient.Do(req)
}

// ListStarred fetches every starred repository for the authenticated user,
// following pagination until an empty page is returned.
func (c *Client) ListStarred(ctx context.Context) ([]types.RawRepo, error) {
	var all []types.RawRepo

	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("per_page", fmt.Sprintf("%d", PerPage))
		query.Set("page", fmt.Sprintf("%d", page))

		batch, err := retryWithBackoff(ctx, c.retry, func() ([]types.RawRepo, error) {
			return c.fetchStarredPage(ctx, query)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: starred page %d: %v", types.ErrFetchFailed, page, err)
		}
		if len(batch) == 0 {
			break
		}

		all = append(all, batch...)
		c.logger.Debug("fetched starred page", "page", page, "count", len(batch))
	}

	return all, nil
}

func (c *Client) fetchStarredPage(ctx context.Context, query url.Values) ([]types.RawRepo, error) {
	resp, err := c.get(ctx, "/user/starred", query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var page []types.RawRepo
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode starred page: %w", err)
	}
	return page, nil
}

// FetchReadme returns the decoded README for fullName, trying the common
// filename variants in order. A repository with no README returns
// types.ErrReadmeNotFound.
func (c *Client) FetchReadme(ctx context.Context, fullName string) (string, error) {
	for _, candidate := range readmeCandidates {
		result, err := retryWithBackoff(ctx, c.retry, func() (contentsResult, error) {
			return c.fetchContents(ctx, fullName, candidate)
		})
		if err != nil {
			return "", fmt.Errorf("%w: readme for %s: %v", types.ErrFetchFailed, fullName, err)
		}
		if result.found {
			return result.content, nil
		}
	}
	return "", types.ErrReadmeNotFound
}

type contentsResult struct {
	content string
	found   bool
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (c *Client) fetchContents(ctx context.Context, fullName, path string) (contentsResult, error) {
	var missing contentsResult

	resp, err := c.get(ctx, "/repos/"+fullName+"/contents/"+path, nil)
	if err != nil {
		return missing, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		// Not an error and not retryable; the candidate simply doesn't exist.
		_, _ = io.Copy(io.Discard, resp.Body)
		return missing, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return missing, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var contents contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return missing, fmt.Errorf("failed to decode contents: %w", err)
	}
	if contents.Encoding != "base64" {
		return missing, fmt.Errorf("unexpected contents encoding %q", contents.Encoding)
	}

	decoded, err := base64.StdEncoding.DecodeString(contents.Content)
	if err != nil {
		// GitHub wraps base64 payloads with newlines
		decoded, err = base64.StdEncoding.DecodeString(stripNewlines(contents.Content))
		if err != nil {
			return missing, fmt.Errorf("failed to decode readme content: %w", err)
		}
	}
	return contentsResult{content: string(decoded), found: true}, nil
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
