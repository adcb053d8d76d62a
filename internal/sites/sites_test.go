package sites

import (
	"context"
	"errors"
	"testing"

	"github.com/docforge/docforge/internal/backend"
)

// fakeLister serves a fixed site list and records how calls were made.
type fakeLister struct {
	sites       []backend.Site
	calls       int
	bypassCalls int
	err         error
}

func (f *fakeLister) Sites(ctx context.Context, bypassCache bool) ([]backend.Site, error) {
	f.calls++
	if bypassCache {
		f.bypassCalls++
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.sites, nil
}

func testSites() []backend.Site {
	return []backend.Site{
		{ID: "s1", Name: "Acme ERP", Company: "Acme"},
		{ID: "s2", Name: "Acme Billing", Company: "Acme"},
		{ID: "s3", Name: "Globex Portal", Company: "Globex"},
	}
}

func TestResolve_ExactIDNoRefresh(t *testing.T) {
	lister := &fakeLister{sites: testSites()}
	d := NewDirectory(lister)

	site, err := d.Resolve(context.Background(), "s2")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if site.Name != "Acme Billing" {
		t.Errorf("site = %+v", site)
	}
	if lister.bypassCalls != 0 {
		t.Errorf("bypass calls = %d, want 0 on exact hit", lister.bypassCalls)
	}
}

func TestResolve_NameCaseInsensitive(t *testing.T) {
	d := NewDirectory(&fakeLister{sites: testSites()})

	site, err := d.Resolve(context.Background(), "acme erp")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if site.ID != "s1" {
		t.Errorf("site = %+v", site)
	}
}

func TestResolve_MissRefreshesExactlyOnce(t *testing.T) {
	lister := &fakeLister{sites: testSites()}
	d := NewDirectory(lister)

	_, err := d.Resolve(context.Background(), "does-not-exist-at-all")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if lister.bypassCalls != 1 {
		t.Errorf("bypass calls = %d, want exactly 1 refresh before suggesting", lister.bypassCalls)
	}
}

func TestResolve_RefreshPicksUpNewSite(t *testing.T) {
	lister := &fakeLister{sites: testSites()}
	d := NewDirectory(lister)

	// Prime the snapshot, then add a site upstream.
	if _, err := d.All(context.Background()); err != nil {
		t.Fatal(err)
	}
	lister.sites = append(lister.sites, backend.Site{ID: "s4", Name: "Initech HR"})

	site, err := d.Resolve(context.Background(), "Initech HR")
	if err != nil {
		t.Fatalf("Resolve after upstream add: %v", err)
	}
	if site.ID != "s4" {
		t.Errorf("site = %+v", site)
	}
}

func TestResolve_EmptyToken(t *testing.T) {
	lister := &fakeLister{sites: testSites()}
	d := NewDirectory(lister)

	if _, err := d.Resolve(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty token")
	}
	if lister.calls != 0 {
		t.Errorf("calls = %d, want 0 for empty token", lister.calls)
	}
}

func TestSuggest_RanksByCloseness(t *testing.T) {
	d := NewDirectory(&fakeLister{sites: testSites()})
	if _, err := d.All(context.Background()); err != nil {
		t.Fatal(err)
	}

	got := d.Suggest("Acme ERPP")
	if len(got) == 0 {
		t.Fatal("expected suggestions for a near-miss")
	}
	if got[0].Name != "Acme ERP" {
		t.Errorf("top suggestion = %s, want Acme ERP", got[0].Name)
	}
}

func TestSuggest_EmptyBelowThreshold(t *testing.T) {
	d := NewDirectory(&fakeLister{sites: testSites()})
	if _, err := d.All(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := d.Suggest("zzzzzzzzzzzzzzzzzzzz"); len(got) != 0 {
		t.Errorf("suggestions = %v, want none below threshold", got)
	}
}

func TestSuggest_CapsAtThree(t *testing.T) {
	many := []backend.Site{
		{ID: "a", Name: "inventory one"},
		{ID: "b", Name: "inventory two"},
		{ID: "c", Name: "inventory ten"},
		{ID: "d", Name: "inventory six"},
	}
	d := NewDirectory(&fakeLister{sites: many})
	if _, err := d.All(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := d.Suggest("inventory onx"); len(got) > 3 {
		t.Errorf("suggestions = %d, want at most 3", len(got))
	}
}

func TestRefresh_ReplacesWholesale(t *testing.T) {
	lister := &fakeLister{sites: testSites()}
	d := NewDirectory(lister)
	if _, err := d.All(context.Background()); err != nil {
		t.Fatal(err)
	}

	lister.sites = []backend.Site{{ID: "only", Name: "Survivor"}}
	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	all, err := d.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].ID != "only" {
		t.Errorf("snapshot = %+v, want wholesale replacement", all)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	if s := similarity("acme", "acme"); s != 1 {
		t.Errorf("identical similarity = %f, want 1", s)
	}
	if s := similarity("Acme ERP", "acme erp"); s != 1 {
		t.Errorf("case-folded similarity = %f, want 1", s)
	}
	if s := similarity("", "anything"); s < 0 || s > 1 {
		t.Errorf("similarity out of bounds: %f", s)
	}
}
