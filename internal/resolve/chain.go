// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve discovers the canonical URL for a citation by querying
// bibliographic services in priority order: DOI, PubMed, CrossRef, Semantic
// Scholar, OpenAlex. The first source to produce an acceptable URL wins;
// every failure along the way is swallowed and the chain moves on.
package resolve

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/pkg/types"
)

// Source resolves a citation to a canonical URL. An empty URL with a nil
// error means the source had nothing to offer (e.g. no PMID present).
type Source interface {
	Name() string
	Resolve(ctx context.Context, c types.CitationMetadata) (string, error)
}

// Resolution is the outcome of a successful chain run.
type Resolution struct {
	URL    string
	Source string
}

// Chain runs sources in priority order under a shared deadline.
type Chain struct {
	sources  []Source
	deadline time.Duration
	log      zerolog.Logger
}

// NewChain assembles the default source order. The limiter and retry policy
// are shared with the rest of the engine so external quotas hold across
// concurrent citations.
func NewChain(cfg types.ResolverConfig, limiter *ratelimit.Limiter, retry httputil.RetryPolicy, log zerolog.Logger) *Chain {
	client := &http.Client{Timeout: cfg.Timeout}
	return &Chain{
		sources: []Source{
			&DOISource{},
			&PubMedSource{Client: client, Limiter: limiter, Retry: retry, Config: cfg},
			&CrossRefSource{Client: client, Limiter: limiter, Retry: retry, Config: cfg},
			&SemanticScholarSource{Client: client, Limiter: limiter, Retry: retry, Config: cfg},
			&OpenAlexSource{Client: client, Limiter: limiter, Retry: retry, Config: cfg},
		},
		deadline: cfg.ChainDeadline,
		log:      log,
	}
}

// NewChainWithSources builds a chain over explicit sources, in order.
func NewChainWithSources(deadline time.Duration, log zerolog.Logger, sources ...Source) *Chain {
	return &Chain{sources: sources, deadline: deadline, log: log}
}

// FindCorrectURL walks the chain and returns the first accepted URL. The
// whole chain shares one deadline independent of per-call timeouts; a source
// failure (timeout, non-200, malformed response, rate-limit skip) only moves
// the chain to the next source.
func (ch *Chain) FindCorrectURL(ctx context.Context, c types.CitationMetadata) (Resolution, bool) {
	deadline := ch.deadline
	if deadline <= 0 {
		deadline = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	for _, src := range ch.sources {
		if ctx.Err() != nil {
			ch.log.Debug().Str("source", src.Name()).Msg("resolver chain deadline reached")
			return Resolution{}, false
		}

		url, err := src.Resolve(ctx, c)
		if err != nil {
			ch.log.Debug().Err(err).Str("source", src.Name()).Msg("resolver source failed")
			continue
		}
		if url != "" {
			ch.log.Info().Str("source", src.Name()).Str("url", url).Msg("resolved citation URL")
			return Resolution{URL: url, Source: src.Name()}, true
		}
	}
	return Resolution{}, false
}
