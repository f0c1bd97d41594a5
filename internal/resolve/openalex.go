// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/internal/score"
	"github.com/pdiddy/citecheck/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexSource searches OpenAlex by title. Last in the chain; OpenAlex has
// the broadest coverage but the loosest relevance ranking.
type OpenAlexSource struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Retry   httputil.RetryPolicy
	Config  types.ResolverConfig
}

// Name returns the source identifier.
func (s *OpenAlexSource) Name() string { return "openalex" }

// Resolve searches by title and returns the best hit's DOI URL (OpenAlex
// reports DOIs as full https://doi.org/ URLs) or its OpenAlex record URL.
func (s *OpenAlexSource) Resolve(ctx context.Context, c types.CitationMetadata) (string, error) {
	if c.Title == "" {
		return "", nil
	}

	if err := s.Limiter.Acquire(ctx, "openalex"); err != nil {
		return "", err
	}

	perPage := s.Config.MaxResults
	if perPage <= 0 {
		perPage = 5
	}

	params := url.Values{
		"search":   {c.Title},
		"per_page": {fmt.Sprintf("%d", perPage)},
		"page":     {"1"},
	}
	if s.Config.OpenAlexEmail != "" {
		params.Set("mailto", s.Config.OpenAlexEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := s.Retry.Do(ctx, s.Client, req)
	if err != nil {
		return "", fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return "", fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	for _, work := range oar.Results {
		if work.Title == "" {
			continue
		}
		if score.TitleSimilarity(c.Title, work.Title) < s.Config.AcceptThreshold {
			continue
		}
		if work.DOI != "" {
			return work.DOI, nil
		}
		if work.ID != "" {
			return work.ID, nil
		}
	}
	return "", nil
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	DOI             string `json:"doi"`
	PublicationYear int    `json:"publication_year"`
}
