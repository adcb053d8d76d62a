// Package sites resolves caller-supplied site tokens against the
// backend's site list.
//
// The directory holds an in-memory snapshot that is replaced wholesale
// on refresh — never patched field-by-field — so a record can not
// drift out of sync with the backend. Resolution order: exact id,
// case-insensitive name, one refresh-and-retry, then edit-distance
// suggestions for the error message.
package sites

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/docforge/docforge/internal/backend"
)

// SuggestThreshold is the minimum normalized name similarity for a
// site to appear in suggestions.
const SuggestThreshold = 0.5

// maxSuggestions caps how many candidates a NotFoundError carries.
const maxSuggestions = 3

// NotFoundError reports that a site token matched nothing, with the
// closest-named candidates for an actionable message.
type NotFoundError struct {
	Token       string
	Suggestions []backend.Site
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("site %q not found", e.Token)
	}
	names := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		names[i] = s.Name
	}
	return fmt.Sprintf("site %q not found; closest matches: %s", e.Token, strings.Join(names, ", "))
}

// lister is the slice of the backend client the directory needs.
type lister interface {
	Sites(ctx context.Context, bypassCache bool) ([]backend.Site, error)
}

// Directory is the site snapshot plus resolution logic.
type Directory struct {
	client lister

	mu    sync.RWMutex
	sites []backend.Site
}

// NewDirectory creates an empty directory. The first resolution or an
// explicit Refresh populates the snapshot.
func NewDirectory(client lister) *Directory {
	return &Directory{client: client}
}

// Refresh replaces the snapshot with the backend's current site list.
// The refresh call bypasses the fingerprint cache so newly created
// sites are not masked by a stale entry.
func (d *Directory) Refresh(ctx context.Context) error {
	fresh, err := d.client.Sites(ctx, true)
	if err != nil {
		return fmt.Errorf("refreshing site directory: %w", err)
	}
	d.mu.Lock()
	d.sites = fresh
	d.mu.Unlock()
	return nil
}

// All returns a copy of the current snapshot, loading it on first use.
func (d *Directory) All(ctx context.Context) ([]backend.Site, error) {
	if err := d.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]backend.Site, len(d.sites))
	copy(out, d.sites)
	return out, nil
}

// Resolve finds the site for a token: exact id, then case-insensitive
// name. On a miss it refreshes once and retries; if the token still
// matches nothing it returns a NotFoundError carrying suggestions.
func (d *Directory) Resolve(ctx context.Context, token string) (*backend.Site, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &NotFoundError{Token: token}
	}

	if err := d.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if site := d.exactMatch(token); site != nil {
		return site, nil
	}

	// The token may name a site created after the snapshot was taken.
	if err := d.Refresh(ctx); err != nil {
		return nil, err
	}
	if site := d.exactMatch(token); site != nil {
		return site, nil
	}

	return nil, &NotFoundError{Token: token, Suggestions: d.Suggest(token)}
}

// Suggest ranks known sites by normalized name similarity to token and
// returns up to three at or above SuggestThreshold.
func (d *Directory) Suggest(token string) []backend.Site {
	d.mu.RLock()
	defer d.mu.RUnlock()

	type scored struct {
		site  backend.Site
		score float64
	}
	candidates := make([]scored, 0, len(d.sites))
	for _, s := range d.sites {
		if score := similarity(token, s.Name); score >= SuggestThreshold {
			candidates = append(candidates, scored{site: s, score: score})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}

	out := make([]backend.Site, len(candidates))
	for i, c := range candidates {
		out[i] = c.site
	}
	return out
}

func (d *Directory) ensureLoaded(ctx context.Context) error {
	d.mu.RLock()
	loaded := d.sites != nil
	d.mu.RUnlock()
	if loaded {
		return nil
	}

	// Initial load goes through the fingerprint cache: a snapshot up to
	// ten minutes old is acceptable for first resolution.
	fresh, err := d.client.Sites(ctx, false)
	if err != nil {
		return fmt.Errorf("loading site directory: %w", err)
	}
	if fresh == nil {
		fresh = []backend.Site{}
	}
	d.mu.Lock()
	d.sites = fresh
	d.mu.Unlock()
	return nil
}

func (d *Directory) exactMatch(token string) *backend.Site {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for i := range d.sites {
		if d.sites[i].ID == token {
			return &d.sites[i]
		}
	}
	for i := range d.sites {
		if strings.EqualFold(d.sites[i].Name, token) {
			return &d.sites[i]
		}
	}
	return nil
}

// similarity is 1 - editDistance/maxLen over case-folded strings, in
// [0, 1].
func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if lb := len([]rune(b)); lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
