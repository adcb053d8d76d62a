// Package guidelines folds per-document-type authoring directives into
// a single combined instruction and caches the folded result.
//
// The folded value — not the raw list — is cached, under its own TTL
// bucket independent of the fingerprint cache: a merge is cheap to
// recompute but the raw fetch is not.
package guidelines

import (
	"context"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/docforge/docforge/internal/backend"
	"github.com/docforge/docforge/internal/classify"
)

// CombinedInstruction is the priority-ordered merge of a guideline
// set. Role and Objective concatenate highest priority first — that
// ordering is an observable contract, since earlier directives carry
// more weight with the authoring model.
type CombinedInstruction struct {
	Role          string
	Objective     string
	Count         int
	TotalPriority int
}

// fetcher is the slice of the backend client this package needs.
type fetcher interface {
	Guidelines(ctx context.Context, documentType, siteID string) ([]backend.Guideline, error)
}

// Cache serves merged instructions for (documentType, siteID) pairs.
type Cache struct {
	fetcher fetcher
	merged  *gocache.Cache
}

// NewCache creates a merge cache whose entries live for ttl.
func NewCache(f fetcher, ttl time.Duration) *Cache {
	return &Cache{
		fetcher: f,
		merged:  gocache.New(ttl, 10*time.Minute),
	}
}

// GetMerged returns the combined instruction for a pair, fetching and
// folding the raw guidelines on a cache miss.
func (c *Cache) GetMerged(ctx context.Context, documentType classify.DocumentType, siteID string) (CombinedInstruction, error) {
	key := string(documentType) + "|" + siteID
	if v, ok := c.merged.Get(key); ok {
		return v.(CombinedInstruction), nil
	}

	raw, err := c.fetcher.Guidelines(ctx, string(documentType), siteID)
	if err != nil {
		return CombinedInstruction{}, err
	}

	combined := Merge(raw)
	c.merged.Set(key, combined, gocache.DefaultExpiration)
	return combined, nil
}

// Merge folds guidelines by descending priority. Count and
// TotalPriority are order-independent; the concatenated text is not.
func Merge(raw []backend.Guideline) CombinedInstruction {
	sorted := make([]backend.Guideline, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var roles, objectives []string
	total := 0
	for _, g := range sorted {
		total += g.Priority
		if r := strings.TrimSpace(g.Role); r != "" {
			roles = append(roles, r)
		}
		if o := strings.TrimSpace(g.Objective); o != "" {
			objectives = append(objectives, o)
		}
	}

	return CombinedInstruction{
		Role:          strings.Join(roles, "\n"),
		Objective:     strings.Join(objectives, "\n"),
		Count:         len(sorted),
		TotalPriority: total,
	}
}
