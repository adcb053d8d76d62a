// Package backend is the HTTP client for the document/knowledge
// backend. Every endpoint returns the same envelope —
// {success, message, data} — and the client treats success:false
// uniformly as an upstream failure regardless of endpoint.
//
// Successful responses are stored in the fingerprint cache; failures
// never are, so transient backend errors self-heal on retry.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docforge/docforge/internal/fpcache"
)

// ErrNotFound reports that the backend answered successfully but has
// no data for the requested resource (e.g. no template registered for
// a document type at a site).
var ErrNotFound = errors.New("backend: resource not found")

// UpstreamError reports a failed backend call: transport error,
// non-2xx status, or an envelope with success:false.
type UpstreamError struct {
	Path    string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("backend %s: status %d", e.Path, e.Status)
}

// envelope is the uniform backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Site is one canonical site record as served by GET /sites.
type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	Description string `json:"description,omitempty"`
}

// Template is a document template with its named variables. Variable
// values are default text or an authoring hint shown when the caller
// supplies nothing.
type Template struct {
	Text      string            `json:"content"`
	Variables map[string]string `json:"variables"`
}

// Guideline is one per-document-type authoring directive.
type Guideline struct {
	Title       string   `json:"title"`
	Priority    int      `json:"priority"`
	Scope       string   `json:"scope"`
	Role        string   `json:"role"`
	Objective   string   `json:"objective"`
	Constraints []string `json:"constraints,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// DocumentHit is one result from GET /documents/search.
type DocumentHit struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	DocumentType string `json:"document_type"`
	SiteID       string `json:"site_id"`
	UpdatedAt    string `json:"updated_at"`
	Snippet      string `json:"snippet,omitempty"`
}

// Column describes one table column from GET /analysis/schema.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Comment  string `json:"comment,omitempty"`
}

// TTLConfig holds the cache TTL per call class.
type TTLConfig struct {
	Backend   time.Duration
	Guideline time.Duration
	Site      time.Duration
}

// Client talks to the backend over HTTP with fingerprint caching.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *fpcache.Cache
	ttl     TTLConfig
	logger  *zap.Logger
}

// New creates a backend client. The request timeout bounds every
// outbound call; a timeout is an upstream failure and is never cached.
func New(baseURL string, timeout time.Duration, cache *fpcache.Cache, ttl TTLConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     ttl,
		logger:  logger,
	}
}

// Sites returns the full site list. bypassCache forces a live call so
// a directory refresh can observe newly created sites.
func (c *Client) Sites(ctx context.Context, bypassCache bool) ([]Site, error) {
	return fetch[[]Site](ctx, c, "GET", "/sites", nil, nil, c.ttl.Site, bypassCache)
}

// GuideTemplate returns the template for a (documentType, siteID)
// pair, or ErrNotFound when the backend has none registered.
func (c *Client) GuideTemplate(ctx context.Context, documentType, siteID string) (*Template, error) {
	path := "/templates/guide/" + url.PathEscape(documentType)
	params := map[string]string{"site_id": siteID}
	tpl, err := fetch[*Template](ctx, c, "GET", path, params, nil, c.ttl.Backend, false)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, ErrNotFound
	}
	return tpl, nil
}

// Guidelines returns the raw authoring guidelines for a
// (documentType, siteID) pair. An empty list is not an error.
func (c *Client) Guidelines(ctx context.Context, documentType, siteID string) ([]Guideline, error) {
	path := "/templates/guidelines/" + url.PathEscape(documentType)
	params := map[string]string{"site_id": siteID}
	return fetch[[]Guideline](ctx, c, "GET", path, params, nil, c.ttl.Guideline, false)
}

// SearchDocuments queries the backend's document index.
func (c *Client) SearchDocuments(ctx context.Context, query, siteID string) ([]DocumentHit, error) {
	params := map[string]string{"q": query}
	if siteID != "" {
		params["site_id"] = siteID
	}
	return fetch[[]DocumentHit](ctx, c, "GET", "/documents/search", params, nil, c.ttl.Backend, false)
}

// ProjectInfo asks the analysis engine for project context relevant to
// a subject. The result is free-form text included in generated
// documents; an empty answer is fine.
func (c *Client) ProjectInfo(ctx context.Context, subject, siteID string) (string, error) {
	body, err := json.Marshal(map[string]string{"subject": subject, "site_id": siteID})
	if err != nil {
		return "", fmt.Errorf("encoding analysis request: %w", err)
	}
	return fetch[string](ctx, c, "POST", "/analysis/project", nil, body, c.ttl.Backend, false)
}

// TableSchema returns the column layout the analysis engine knows for
// a table, or ErrNotFound when it has no schema data.
func (c *Client) TableSchema(ctx context.Context, tableName, siteID string) ([]Column, error) {
	params := map[string]string{"table_name": tableName, "site_id": siteID}
	cols, err := fetch[[]Column](ctx, c, "GET", "/analysis/schema", params, nil, c.ttl.Backend, false)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, ErrNotFound
	}
	return cols, nil
}

// fetch performs one cached backend call: cache check, live request on
// miss, cache write on success, decode into T. Only the envelope's
// data field is cached, so hits decode exactly like live responses.
func fetch[T any](ctx context.Context, c *Client, verb, path string, params map[string]string, body []byte, ttl time.Duration, bypassCache bool) (T, error) {
	var zero T

	fp := fpcache.Fingerprint(verb, path, params, body)
	if !bypassCache {
		if data, ok := c.cache.Get(fp, ttl); ok {
			var out T
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
			// Undecodable entry: treat as a miss and refetch.
			c.logger.Warn("discarding corrupt cache entry", zap.String("path", path))
		}
	}

	data, err := c.do(ctx, verb, path, params, body)
	if err != nil {
		return zero, err
	}

	c.cache.Put(fp, data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return zero, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("decoding %s response: %w", path, err)
	}
	return out, nil
}

// do executes one live HTTP call and returns the envelope's data
// bytes, or an UpstreamError.
func (c *Client) do(ctx context.Context, verb, path string, params map[string]string, body []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		values := make(url.Values, len(params))
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, verb, u, reader)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Path: path, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Path: path, Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Path: path, Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &UpstreamError{Path: path, Status: resp.StatusCode, Message: "malformed response envelope"}
	}
	if !env.Success {
		return nil, &UpstreamError{Path: path, Status: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}
