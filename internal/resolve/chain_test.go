// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/pkg/types"
)

// stubSource is a canned chain entry for ordering and fallback tests.
type stubSource struct {
	name string
	url  string
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Resolve(_ context.Context, _ types.CitationMetadata) (string, error) {
	return s.url, s.err
}

func TestChainDOIDirect(t *testing.T) {
	ch := NewChainWithSources(time.Second, zerolog.Nop(), &DOISource{})
	c := types.CitationMetadata{DOI: "10.1210/example"}

	res, ok := ch.FindCorrectURL(context.Background(), c)
	if !ok {
		t.Fatal("DOI citation did not resolve")
	}
	if res.URL != "https://doi.org/10.1210/example" {
		t.Errorf("url = %q", res.URL)
	}
	if res.Source != "doi" {
		t.Errorf("source = %q, want doi", res.Source)
	}
}

func TestChainFirstHitWins(t *testing.T) {
	ch := NewChainWithSources(time.Second, zerolog.Nop(),
		&stubSource{name: "first", url: "https://example.org/a"},
		&stubSource{name: "second", url: "https://example.org/b"},
	)

	res, ok := ch.FindCorrectURL(context.Background(), types.CitationMetadata{Title: "t"})
	if !ok || res.Source != "first" {
		t.Fatalf("resolution = %+v ok=%v, want first source", res, ok)
	}
}

// A failing source moves the chain along instead of aborting it.
func TestChainSkipsFailures(t *testing.T) {
	ch := NewChainWithSources(time.Second, zerolog.Nop(),
		&stubSource{name: "broken", err: errors.New("HTTP 503")},
		&stubSource{name: "empty"},
		&stubSource{name: "working", url: "https://example.org/found"},
	)

	res, ok := ch.FindCorrectURL(context.Background(), types.CitationMetadata{Title: "t"})
	if !ok {
		t.Fatal("chain gave up despite a working source")
	}
	if res.Source != "working" {
		t.Errorf("source = %q, want working", res.Source)
	}
}

func TestChainExhausted(t *testing.T) {
	ch := NewChainWithSources(time.Second, zerolog.Nop(),
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b"},
	)

	if res, ok := ch.FindCorrectURL(context.Background(), types.CitationMetadata{Title: "t"}); ok {
		t.Fatalf("exhausted chain reported success: %+v", res)
	}
}

// slowSource blocks until its context expires.
type slowSource struct{}

func (s *slowSource) Name() string { return "slow" }

func (s *slowSource) Resolve(ctx context.Context, _ types.CitationMetadata) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestChainDeadline(t *testing.T) {
	ch := NewChainWithSources(50*time.Millisecond, zerolog.Nop(),
		&slowSource{},
		&stubSource{name: "late", url: "https://example.org/late"},
	)

	start := time.Now()
	_, ok := ch.FindCorrectURL(context.Background(), types.CitationMetadata{Title: "t"})
	if ok {
		t.Fatal("chain resolved past its deadline")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("chain ran %v past a 50ms deadline", elapsed)
	}
}

func TestChainDefaultOrder(t *testing.T) {
	ch := NewChain(types.ResolverConfig{}, nil, httputil.DefaultPolicy(), zerolog.Nop())

	want := []string{"doi", "pubmed", "crossref", "semantic_scholar", "openalex"}
	if len(ch.sources) != len(want) {
		t.Fatalf("chain has %d sources, want %d", len(ch.sources), len(want))
	}
	for i, name := range want {
		if got := ch.sources[i].Name(); got != name {
			t.Errorf("source[%d] = %q, want %q", i, got, name)
		}
	}
}
