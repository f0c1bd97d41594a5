// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citecheck/internal/cache"
	"github.com/pdiddy/citecheck/internal/fetch"
	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/internal/resolve"
	"github.com/pdiddy/citecheck/pkg/types"
)

const citationA = "Smith, J. (2020). Effects of vitamin D. Journal of Medicine, 105(3), 123-145."

func testConfig() types.EngineConfig {
	cfg := types.DefaultEngineConfig()
	cfg.Fetch.AllowPrivate = true
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Resolver.ChainDeadline = 2 * time.Second
	cfg.RateLimit.Services["fetch"] = types.ServiceLimit{PerSecond: 100, Burst: 100}
	return cfg
}

// newTestEngine wires an engine against a tempdir cache. fetcher and chain
// may be nil for offline tiers.
func newTestEngine(t *testing.T, cfg types.EngineConfig, withStore bool) *Engine {
	t.Helper()

	limiter := ratelimit.New(cfg.RateLimit)
	retry := httputil.RetryPolicy{MaxAttempts: 1}
	fetcher := fetch.New(cfg.Fetch, limiter, retry)
	chain := resolve.NewChainWithSources(cfg.Resolver.ChainDeadline, zerolog.Nop(), &resolve.DOISource{})

	var store *cache.Store
	if withStore {
		var err error
		store, err = cache.Open(types.CacheConfig{
			Path: filepath.Join(t.TempDir(), "cache.db"),
			TTL:  time.Hour,
		})
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
	}

	return New(cfg, fetcher, chain, store, nil, zerolog.Nop())
}

// matchingPage renders scholarly meta tags that agree with citationA.
func matchingPage(w http.ResponseWriter) {
	fmt.Fprint(w, `<html><head>
		<meta name="citation_title" content="Effects of vitamin D">
		<meta name="citation_author" content="Smith, Jane">
		<meta name="citation_publication_date" content="2020/03/15">
		</head><body></body></html>`)
}

func TestValidateQuickOffline(t *testing.T) {
	// No fetcher, chain, or store: QUICK must never need them.
	e := New(testConfig(), nil, nil, nil, nil, zerolog.Nop())

	r := e.Validate(context.Background(), citationA, types.TierQuick)
	if !r.IsValid {
		t.Fatalf("well-formed citation invalid: issues=%v warnings=%v", r.Issues, r.Warnings)
	}
	if r.Correspondence != nil {
		t.Error("QUICK tier produced a correspondence check")
	}
	// Title, authors, year, journal all present; no DOI or URL.
	if r.CredibilityScore != 88 {
		t.Errorf("credibility = %d, want 88 (35 of 40 format points)", r.CredibilityScore)
	}
	if len(r.Recommendations) == 0 {
		t.Error("missing identifier did not produce a recommendation")
	}
}

func TestValidateQuickUnparseable(t *testing.T) {
	e := New(testConfig(), nil, nil, nil, nil, zerolog.Nop())

	r := e.Validate(context.Background(), "???", types.TierQuick)
	if r.IsValid {
		t.Fatal("unparseable citation reported valid")
	}
	if r.CredibilityScore != 0 {
		t.Errorf("credibility = %d, want 0", r.CredibilityScore)
	}
	if len(r.Issues) == 0 {
		t.Error("unparseable citation produced no issues")
	}
}

func TestValidateStandardReachability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		matchingPage(w)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), false)

	r := e.Validate(context.Background(), citationA+" "+srv.URL, types.TierStandard)
	if !r.IsValid {
		t.Fatalf("invalid: issues=%v", r.Issues)
	}
	if r.Correspondence != nil {
		t.Error("STANDARD tier scored correspondence")
	}
	// All 40 format points (URL counts via reachability, not identifier)
	// minus the 5 identifier points, plus 20 reachability points.
	if r.CredibilityScore != 92 {
		t.Errorf("credibility = %d, want 92 (55 of 60 points)", r.CredibilityScore)
	}
}

func TestValidateStandardUnreachableURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := newTestEngine(t, testConfig(), false)

	r := e.Validate(context.Background(), citationA+" "+url, types.TierStandard)
	if r.HasErrors() {
		t.Errorf("unreachable URL escalated to error severity: %v", r.Issues)
	}
	found := false
	for _, is := range r.Issues {
		if is.Severity == types.SeverityWarning && strings.Contains(is.Message, "URL check failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("no reachability warning in %v", r.Issues)
	}
}

func TestValidateThoroughMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		matchingPage(w)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), false)

	r := e.Validate(context.Background(), citationA+" "+srv.URL, types.TierThorough)
	if !r.IsValid {
		t.Fatalf("invalid: issues=%v", r.Issues)
	}
	if r.Correspondence == nil {
		t.Fatal("THOROUGH tier produced no correspondence")
	}
	if !r.Correspondence.Matches {
		t.Errorf("matches = false, confidence %.2f, reasons %v",
			r.Correspondence.Confidence, r.Correspondence.MismatchReasons)
	}
	if r.Correspondence.Confidence < 0.9 {
		t.Errorf("confidence = %.2f, want >= 0.9", r.Correspondence.Confidence)
	}
	if r.CorrectedURL != "" {
		t.Errorf("matching URL got corrected to %q", r.CorrectedURL)
	}
}

func TestValidateThoroughMismatchCorrected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<meta name="citation_title" content="Quantum chromodynamics review">
			</head><body></body></html>`)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), false)

	// The URL points at the wrong page, but the DOI lets the chain propose
	// the canonical location.
	text := citationA + " " + srv.URL + " 10.1210/example"

	r := e.Validate(context.Background(), text, types.TierThorough)
	if r.IsValid {
		t.Fatal("mismatched URL reported valid")
	}
	if !r.HasErrors() {
		t.Errorf("mismatch produced no error issue: %v", r.Issues)
	}
	if r.CorrectedURL != "https://doi.org/10.1210/example" {
		t.Errorf("corrected url = %q", r.CorrectedURL)
	}
	if r.ResolvedBy != "doi" {
		t.Errorf("resolved by = %q, want doi", r.ResolvedBy)
	}
}

func TestValidateThoroughAmbiguousNotCorrected(t *testing.T) {
	// Title disagrees but authors and year agree: confidence lands in the
	// ambiguous band, which is flagged for review and never auto-corrected.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<meta name="citation_title" content="Quantum chromodynamics review">
			<meta name="citation_author" content="Smith, Jane">
			<meta name="citation_publication_date" content="2020/03/15">
			</head><body></body></html>`)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), false)

	text := citationA + " 10.1210/example " + srv.URL
	r := e.Validate(context.Background(), text, types.TierThorough)

	if r.Correspondence == nil {
		t.Fatal("no correspondence")
	}
	c := r.Correspondence
	if c.Matches {
		t.Fatalf("ambiguous page matched (confidence %.2f)", c.Confidence)
	}
	if c.Confidence < 0.40 || c.Confidence >= 0.70 {
		t.Fatalf("confidence %.2f outside the ambiguous band; test setup broken", c.Confidence)
	}
	if r.CorrectedURL != "" {
		t.Errorf("ambiguous correspondence auto-corrected to %q", r.CorrectedURL)
	}
	found := false
	for _, w := range r.Warnings {
		if strings.Contains(w, "flagged for review") {
			found = true
		}
	}
	if !found {
		t.Errorf("no review flag in warnings: %v", r.Warnings)
	}
}

func TestValidateThoroughResolvesMissingURL(t *testing.T) {
	e := newTestEngine(t, testConfig(), false)

	r := e.Validate(context.Background(), citationA+" 10.1210/example", types.TierThorough)
	if !r.IsValid {
		t.Fatalf("invalid: issues=%v", r.Issues)
	}
	if r.CorrectedURL != "https://doi.org/10.1210/example" {
		t.Errorf("corrected url = %q", r.CorrectedURL)
	}
	if r.ResolvedBy != "doi" {
		t.Errorf("resolved by = %q, want doi", r.ResolvedBy)
	}
}

func TestValidateCacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		matchingPage(w)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), true)
	text := citationA + " " + srv.URL

	first := e.Validate(context.Background(), text, types.TierThorough)
	if got := hits.Load(); got != 1 {
		t.Fatalf("first validation made %d fetches, want 1", got)
	}

	second := e.Validate(context.Background(), text, types.TierThorough)
	if got := hits.Load(); got != 1 {
		t.Errorf("cache hit made a network fetch (total %d)", got)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestValidateCacheTierScoped(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		matchingPage(w)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), true)
	text := citationA + " " + srv.URL

	e.Validate(context.Background(), text, types.TierStandard)
	r := e.Validate(context.Background(), text, types.TierThorough)

	if r.Tier != types.TierThorough {
		t.Errorf("tier = %q", r.Tier)
	}
	if r.Correspondence == nil {
		t.Error("THOROUGH run served the cached STANDARD result")
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2 (one per tier)", got)
	}
}

func TestValidateDeadlineMarksIncomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		matchingPage(w)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.ThoroughDeadline = 50 * time.Millisecond
	e := newTestEngine(t, cfg, true)

	r := e.Validate(context.Background(), citationA+" "+srv.URL, types.TierThorough)
	if !r.Incomplete {
		t.Error("deadline overrun not marked incomplete")
	}
}

func TestValidateAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		matchingPage(w)
	}))
	defer srv.Close()

	e := newTestEngine(t, testConfig(), false)

	citations := []string{
		citationA + " " + srv.URL,
		"???",
		"Jones, K. (2018). Health policy in the U.S. after 2010. Policy Review, 12(2), 5-19.",
	}

	results := e.ValidateAll(context.Background(), citations, types.TierQuick, io.Discard)
	if len(results) != len(citations) {
		t.Fatalf("got %d results for %d citations", len(results), len(citations))
	}
	// Order must follow the input regardless of scheduling.
	for i, text := range citations {
		if results[i].Citation.Raw != strings.Join(strings.Fields(text), " ") {
			t.Errorf("result %d is for %q", i, results[i].Citation.Raw)
		}
	}
	if results[1].IsValid {
		t.Error("unparseable citation valid in batch")
	}
}
