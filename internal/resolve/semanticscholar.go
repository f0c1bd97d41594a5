// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/internal/score"
	"github.com/pdiddy/citecheck/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared as
// a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,externalIds,url,year"

// SemanticScholarSource searches Semantic Scholar by title.
type SemanticScholarSource struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Retry   httputil.RetryPolicy
	Config  types.ResolverConfig
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Resolve searches by title and returns the best hit's DOI URL (preferred)
// or its Semantic Scholar page, subject to the acceptance threshold.
func (s *SemanticScholarSource) Resolve(ctx context.Context, c types.CitationMetadata) (string, error) {
	if c.Title == "" {
		return "", nil
	}

	if err := s.Limiter.Acquire(ctx, "semantic_scholar"); err != nil {
		return "", err
	}

	limit := s.Config.MaxResults
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"query":  {c.Title},
		"limit":  {fmt.Sprintf("%d", limit)},
		"fields": {semanticFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)
	if s.Config.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", s.Config.SemanticScholarAPIKey)
	}

	resp, err := s.Retry.Do(ctx, s.Client, req)
	if err != nil {
		return "", fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	for _, paper := range sr.Data {
		if paper.Title == "" {
			continue
		}
		if score.TitleSimilarity(c.Title, paper.Title) < s.Config.AcceptThreshold {
			continue
		}
		if paper.ExternalIDs.DOI != "" {
			return doiBase + strings.ToLower(paper.ExternalIDs.DOI), nil
		}
		if paper.URL != "" {
			return paper.URL, nil
		}
	}
	return "", nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	URL         string              `json:"url"`
	Year        int                 `json:"year"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI  string `json:"DOI"`
	PMID string `json:"PubMed"`
}
