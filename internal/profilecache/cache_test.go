package profilecache

import (
	"strings"
	"sync"
	"testing"

	"govtwool/internal/domain"
	"govtwool/internal/jsonvalue"
)

func rawJSON(t *testing.T, s string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Decode([]byte(s))
	if err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return v
}

func TestCache_SetGetStates(t *testing.T) {
	c := New()

	if p, st := c.Get("d1"); p != nil || st != Unchecked {
		t.Fatalf("expected unchecked, got %v %v", p, st)
	}
	if st := c.Set("d1", &domain.Profile{Name: "Alice"}); st != Present {
		t.Fatalf("expected present, got %v", st)
	}
	if st := c.Set("d2", &domain.Profile{Email: "x@example.com"}); st != Empty {
		t.Fatalf("email-only profile must be cached as empty, got %v", st)
	}
	if st := c.Set("d3", nil); st != Empty {
		t.Fatalf("nil profile must be empty, got %v", st)
	}
	c.SetFailed("d4")

	if p, st := c.Get("d1"); st != Present || p.Name != "Alice" {
		t.Fatalf("unexpected d1: %v %+v", st, p)
	}
	if p, st := c.Get("d2"); st != Empty || p != nil {
		t.Fatalf("empty entry must not keep a profile: %v %+v", st, p)
	}
	if !c.Has("d4") {
		t.Fatalf("failed entry must count as checked")
	}

	stats := c.Stats()
	if stats.Entries != 4 || stats.Present != 1 || stats.Empty != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCache_KeyFuncUnifiesIDs(t *testing.T) {
	c := New(WithKeyFunc(strings.ToLower))
	c.Set("DREP1ABC", &domain.Profile{Name: "N"})
	if !c.Has("drep1abc") {
		t.Fatalf("expected normalized key hit")
	}
}

func TestCache_ClaimIsExclusive(t *testing.T) {
	c := New()
	if !c.Claim("d1") {
		t.Fatalf("first claim should succeed")
	}
	if c.Claim("d1") {
		t.Fatalf("second claim should fail while in flight")
	}
	c.Release("d1")
	if !c.Claim("d1") {
		t.Fatalf("claim after release should succeed")
	}
	c.Set("d1", nil)
	if c.Claim("d1") {
		t.Fatalf("claim on checked id should fail")
	}
	if c.Stats().InFlight != 0 {
		t.Fatalf("set must release the claim")
	}
	if c.Claim("  ") {
		t.Fatalf("blank id must not be claimable")
	}
}

func TestCache_ClaimConcurrent(t *testing.T) {
	c := New()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		start = make(chan struct{})
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if c.Claim("same") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestCache_RememberStoresOnlyPresent(t *testing.T) {
	c := New()
	entities := []domain.Entity{
		{ID: "a", RawMetadata: rawJSON(t, `{"body":{"givenName":"A"}}`)},
		{ID: "b", RawMetadata: rawJSON(t, `{"body":{"email":"b@example.com"}}`)},
		{ID: "c"},
	}
	if n := c.Remember(entities); n != 1 {
		t.Fatalf("expected 1 remembered, got %d", n)
	}
	if c.Has("b") || c.Has("c") {
		t.Fatalf("absent results must not be cached by remember")
	}

	c.Set("a", &domain.Profile{Name: "Richer"})
	c.Remember(entities)
	if p, _ := c.Get("a"); p.Name != "Richer" {
		t.Fatalf("remember must not overwrite existing entries, got %+v", p)
	}
}

func TestCache_ApplyNegativeClearsMetadata(t *testing.T) {
	c := New(WithFallbackLabel(func(id string) string { return "label:" + id }))
	c.SetFailed("x")

	e := domain.Entity{ID: "x", RawMetadata: rawJSON(t, `{"body":{"email":"e@example.com","objectives":"o"}}`)}
	got := c.Apply(e)
	if got.HasProfile == nil || *got.HasProfile {
		t.Fatalf("expected has_profile=false, got %v", got.HasProfile)
	}
	if got.Metadata != nil || got.RawMetadata.Defined() || got.Objectives != "" {
		t.Fatalf("expected metadata cleared, got %+v", got)
	}
	if got.DisplayName != "label:x" {
		t.Fatalf("expected fallback label, got %q", got.DisplayName)
	}
	if !e.RawMetadata.Defined() {
		t.Fatalf("apply must not mutate its input")
	}
}

func TestCache_ApplyPresentCacheWins(t *testing.T) {
	c := New()
	c.Set("x", &domain.Profile{Name: "Cached", Website: "https://cached.example"})

	e := domain.Entity{ID: "x", RawMetadata: rawJSON(t, `{"body":{"givenName":"Embedded","description":"desc","image":"https://img.example"}}`)}
	got := c.Apply(e)
	if got.HasProfile == nil || !*got.HasProfile {
		t.Fatalf("expected has_profile=true")
	}
	if got.Metadata.Name != "Cached" || got.GivenName != "Cached" {
		t.Fatalf("cache must win on conflict, got %+v", got.Metadata)
	}
	if got.Metadata.Description != "desc" || got.ImageURL != "https://img.example" {
		t.Fatalf("embedded fields must fill gaps, got %+v", got.Metadata)
	}
	if got.Metadata.Title != "Embedded" {
		t.Fatalf("expected embedded title, got %q", got.Metadata.Title)
	}
}

func TestCache_ApplyUncheckedDoesNotPersist(t *testing.T) {
	c := New()
	present := c.Apply(domain.Entity{ID: "p", RawMetadata: rawJSON(t, `{"name":"P"}`)})
	if present.HasProfile == nil || !*present.HasProfile || present.GivenName != "P" {
		t.Fatalf("unexpected present apply: %+v", present)
	}
	pending := c.Apply(domain.Entity{ID: "q"})
	if pending.HasProfile != nil {
		t.Fatalf("unchecked entity without profile stays unresolved")
	}
	if pending.DisplayName != "q" {
		t.Fatalf("expected id as default label, got %q", pending.DisplayName)
	}
	if c.Has("p") || c.Has("q") {
		t.Fatalf("apply must not write to the cache")
	}
}

func TestCache_ResetKeepsClaims(t *testing.T) {
	c := New()
	c.Set("a", &domain.Profile{Name: "A"})
	c.Claim("b")
	c.Reset()
	if c.Has("a") {
		t.Fatalf("expected reset to drop entries")
	}
	if c.Claim("b") {
		t.Fatalf("in-flight claim must survive reset")
	}
}

func TestCache_PendingClosesWhenClaimSettles(t *testing.T) {
	c := New()
	if _, ok := c.Pending("d1"); ok {
		t.Fatalf("no claim yet, expected no pending channel")
	}
	c.Claim("d1")
	pending, ok := c.Pending("d1")
	if !ok {
		t.Fatalf("expected pending channel while in flight")
	}
	select {
	case <-pending:
		t.Fatalf("pending closed before the fetch settled")
	default:
	}
	c.Set("d1", &domain.Profile{Name: "D"})
	select {
	case <-pending:
	default:
		t.Fatalf("set must close the pending channel")
	}

	c.Claim("d2")
	released, _ := c.Pending("d2")
	c.Release("d2")
	select {
	case <-released:
	default:
		t.Fatalf("release must close the pending channel")
	}
}

func TestCache_ApplyWithoutIDIsResolved(t *testing.T) {
	c := New()
	e := c.Apply(domain.Entity{RawMetadata: rawJSON(t, `{"email":"x@example.com"}`)})
	if e.HasProfile == nil || *e.HasProfile {
		t.Fatalf("entity without id must resolve to has_profile=false, got %v", e.HasProfile)
	}

	named := c.Apply(domain.Entity{RawMetadata: rawJSON(t, `{"name":"N"}`)})
	if named.HasProfile == nil || !*named.HasProfile {
		t.Fatalf("embedded profile must still count without id")
	}
}
