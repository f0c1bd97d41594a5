// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine sequences citation validation: parse, cache lookup, page
// fetch, correspondence scoring, URL resolution, and mismatch logging,
// gated by the requested tier. Every path ends in a ValidationResult;
// failures degrade the result instead of aborting the pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/citecheck/internal/cache"
	"github.com/pdiddy/citecheck/internal/cite"
	"github.com/pdiddy/citecheck/internal/fetch"
	"github.com/pdiddy/citecheck/internal/mismatch"
	"github.com/pdiddy/citecheck/internal/resolve"
	"github.com/pdiddy/citecheck/internal/score"
	"github.com/pdiddy/citecheck/pkg/types"
)

// Credibility point budgets per pipeline stage. The final score is the
// earned fraction of the points the executed tiers put in play, scaled
// to 0-100.
const (
	pointsTitle     = 10.0
	pointsAuthors   = 10.0
	pointsYear      = 10.0
	pointsJournal   = 5.0
	pointsID        = 5.0
	pointsReachable = 20.0
	pointsMatch     = 40.0
	pointsResolved  = 30.0
)

// Engine owns the lifetime of a validation request end to end. The cache
// store and rate limiter (inside the fetcher and chain) are the only state
// shared across concurrent validations.
type Engine struct {
	cfg types.EngineConfig

	fetcher *fetch.Fetcher
	chain   *resolve.Chain
	store   *cache.Store
	mlog    *mismatch.Logger
	log     zerolog.Logger
}

// New wires the engine from explicitly constructed dependencies. store may
// be nil to disable caching; mlog may be nil to disable mismatch logging.
func New(cfg types.EngineConfig, fetcher *fetch.Fetcher, chain *resolve.Chain, store *cache.Store, mlog *mismatch.Logger, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		fetcher: fetcher,
		chain:   chain,
		store:   store,
		mlog:    mlog,
		log:     log,
	}
}

// Validate runs one citation through the pipeline at the requested tier.
func (e *Engine) Validate(ctx context.Context, citationText string, tier types.Tier) types.ValidationResult {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.DeadlineFor(tier))
	defer cancel()

	meta := cite.Parse(citationText)

	// Cache lookup happens before any network work. QUICK results are too
	// cheap to be worth caching.
	key := cache.Key(citationText)
	if tier != types.TierQuick && e.store != nil {
		if cached, ok, err := e.store.Get(ctx, key); err == nil && ok && cached.Tier == tier {
			e.log.Debug().Str("key", key).Msg("cache hit")
			return cached
		} else if err != nil {
			e.log.Warn().Err(err).Msg("cache read failed, revalidating")
		}
	}

	result := types.ValidationResult{
		Citation:    meta,
		Tier:        tier,
		ValidatedAt: time.Now().UTC(),
	}

	var earned, possible float64
	e.checkFormat(&result, &earned, &possible)

	if tier != types.TierQuick && meta.Parseable() {
		e.checkTarget(ctx, &result, tier, &earned, &possible)
	}

	if ctx.Err() != nil {
		result.Incomplete = true
		result.Warnings = append(result.Warnings, "validation incomplete: deadline exceeded")
	}

	if possible > 0 {
		result.CredibilityScore = int(math.Round(100 * earned / possible))
	}
	result.IsValid = meta.Parseable() && !result.HasErrors() &&
		(result.Correspondence == nil || result.Correspondence.Matches || result.CorrectedURL != "")

	if tier != types.TierQuick && e.store != nil && !result.Incomplete {
		if err := e.store.Put(context.WithoutCancel(ctx), key, result); err != nil {
			e.log.Warn().Err(err).Msg("cache write failed")
		}
	}
	return result
}

// checkFormat runs the offline format lint every tier shares.
func (e *Engine) checkFormat(r *types.ValidationResult, earned, possible *float64) {
	m := r.Citation
	*possible += pointsTitle + pointsAuthors + pointsYear + pointsJournal + pointsID

	if m.Unparseable {
		r.AddIssue(types.SeverityWarning, "citation could not be parsed: %s", m.ParseNote)
		r.Warnings = append(r.Warnings, "correspondence checking skipped for unparseable citation")
		return
	}

	if m.Title != "" {
		*earned += pointsTitle
	} else {
		r.Warnings = append(r.Warnings, "no title could be extracted")
	}

	if len(m.Authors) > 0 {
		*earned += pointsAuthors
	} else {
		r.Warnings = append(r.Warnings, "no authors could be extracted")
	}

	switch {
	case m.Year == 0:
		r.Warnings = append(r.Warnings, "no publication year found")
	case m.Year < 1800 || m.Year > time.Now().Year()+1:
		r.AddIssue(types.SeverityWarning, "implausible publication year %d", m.Year)
	default:
		*earned += pointsYear
	}

	if m.Journal != "" {
		*earned += pointsJournal
	}

	if m.HasIdentifier() {
		*earned += pointsID
	} else if m.URL == "" {
		r.Recommendations = append(r.Recommendations, "add a DOI or URL so the citation can be verified")
	}
}

// checkTarget covers the network-dependent stages: URL reachability at
// STANDARD, correspondence scoring and URL resolution at THOROUGH.
func (e *Engine) checkTarget(ctx context.Context, r *types.ValidationResult, tier types.Tier, earned, possible *float64) {
	m := r.Citation

	var page types.FetchedPage
	var fetchErr error
	if m.URL != "" {
		*possible += pointsReachable
		page, fetchErr = e.fetcher.Fetch(ctx, m.URL)
		if fetchErr == nil {
			*earned += pointsReachable
		} else {
			var fe *fetch.Error
			if errors.As(fetchErr, &fe) {
				r.AddIssue(types.SeverityWarning, "URL check failed (%s): %s", fe.Kind, m.URL)
			} else {
				r.AddIssue(types.SeverityWarning, "URL check failed: %s", m.URL)
			}
		}
	} else if m.HasIdentifier() {
		// No URL to probe; identifier presence already scored in the
		// format lint, and THOROUGH can still resolve a canonical URL.
		r.Warnings = append(r.Warnings, "citation has no URL; reachability not checked")
	}

	if tier != types.TierThorough {
		return
	}

	*possible += pointsMatch

	var corr *types.URLCorrespondence
	if m.URL != "" {
		c := score.Score(m, page, e.cfg.Score)
		corr = &c
		r.Correspondence = corr
		*earned += pointsMatch * c.Confidence

		if !c.Matches && c.Confidence >= e.cfg.Score.AmbiguousFloor {
			// Ambiguous band: never auto-corrected, a human decides.
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"ambiguous correspondence (confidence %.2f); flagged for review", c.Confidence))
			e.recordMismatch(m, c, "")
			return
		}
	}

	needsResolution := m.URL == "" || (corr != nil && !corr.Matches)
	if !needsResolution {
		return
	}

	res, ok := e.chain.FindCorrectURL(ctx, m)
	if ok {
		r.CorrectedURL = res.URL
		r.ResolvedBy = res.Source
		if m.URL == "" {
			*earned += pointsResolved
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("add URL %s (via %s)", res.URL, res.Source))
		} else {
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("replace URL with %s (via %s)", res.URL, res.Source))
		}
	} else if m.URL == "" {
		r.Warnings = append(r.Warnings, "no canonical URL could be resolved")
	}

	if corr != nil && !corr.Matches {
		r.AddIssue(types.SeverityError, "URL does not correspond to the cited work (confidence %.2f)", corr.Confidence)
		e.recordMismatch(m, *corr, r.CorrectedURL)
	}
}

func (e *Engine) recordMismatch(m types.CitationMetadata, corr types.URLCorrespondence, correctedURL string) {
	if e.mlog == nil {
		return
	}
	e.mlog.Record(m, corr, m.URL, correctedURL)
}

// ValidateAll validates a batch of citations through a bounded worker pool.
// Results come back in input order. A citation hitting its deadline never
// cancels its siblings; progress lines go to w.
func (e *Engine) ValidateAll(ctx context.Context, citations []string, tier types.Tier, w io.Writer) []types.ValidationResult {
	results := make([]types.ValidationResult, len(citations))

	concurrency := e.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, text := range citations {
		i, text := i, text
		g.Go(func() error {
			results[i] = e.Validate(gctx, text, tier)
			status := "ok     "
			switch {
			case results[i].Incomplete:
				status = "partial"
			case !results[i].IsValid:
				status = "invalid"
			}
			fmt.Fprintf(w, "%s  score=%-3d  %s\n", status, results[i].CredibilityScore, snippet(text))
			return nil
		})
	}
	g.Wait()
	return results
}

func snippet(s string) string {
	s = cite.Normalize(s)
	if len(s) > 70 {
		return s[:67] + "..."
	}
	return s
}
