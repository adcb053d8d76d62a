// Package tracker is a read-only client for the issue tracker. It is
// used only to pull ticket text that enriches a document subject;
// nothing is ever written back.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docforge/docforge/internal/fpcache"
)

// Issue is the slice of a ticket the document pipeline cares about.
type Issue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// Client fetches issues over HTTP with fingerprint caching.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *fpcache.Cache
	ttl     time.Duration
}

// New creates a tracker client. token may be empty for anonymous
// access.
func New(baseURL, token string, timeout time.Duration, cache *fpcache.Cache, ttl time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     ttl,
	}
}

// Issue fetches one ticket by key.
func (c *Client) Issue(ctx context.Context, key string) (*Issue, error) {
	path := "/issues/" + url.PathEscape(key)

	fp := fpcache.Fingerprint("GET", c.baseURL+path, nil, nil)
	if data, ok := c.cache.Get(fp, c.ttl); ok {
		var issue Issue
		if err := json.Unmarshal(data, &issue); err == nil {
			return &issue, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building tracker request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tracker %s: %w", key, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tracker %s: %w", key, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracker %s: status %d", key, resp.StatusCode)
	}

	var issue Issue
	if err := json.Unmarshal(raw, &issue); err != nil {
		return nil, fmt.Errorf("tracker %s: decoding: %w", key, err)
	}

	c.cache.Put(fp, raw)
	return &issue, nil
}
