// Package catalog is a thin client for a remote skill index. It only
// searches: installation always goes through the source repository itself,
// so the catalog has no bearing on registry or filesystem state.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"

	"github.com/skillbox-dev/skillbox/pkg/logger"
)

// DefaultBaseURL is the public skill index.
const DefaultBaseURL = "https://skills.skillbox.dev"

// Entry is one catalog search hit.
type Entry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Source      string `json:"source"`
	SkillPath   string `json:"skillPath,omitempty"`
	Installs    int    `json:"installs,omitempty"`
}

type searchResponse struct {
	Skills []Entry `json:"skills"`
}

// Client queries the skill index.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the index endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithAttempts sets how many times a failed request is retried.
func WithAttempts(n uint) Option {
	return func(c *Client) { c.attempts = n }
}

// NewClient creates a catalog client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		attempts:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the index for skills matching a free-text query. Transient
// failures are retried with backoff; exhausted retries surface as an error.
func (c *Client) Search(ctx context.Context, query string) ([]Entry, error) {
	endpoint := c.baseURL + "/api/skills?q=" + url.QueryEscape(query)

	var entries []Entry
	err := retry.Do(
		func() error {
			found, err := c.search(ctx, endpoint)
			if err != nil {
				return err
			}
			entries = found
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Debug("retrying catalog search")
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "catalog search failed")
	}
	return entries, nil
}

func (c *Client) search(ctx context.Context, endpoint string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "catalog request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("catalog returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode catalog response")
	}
	return parsed.Skills, nil
}
