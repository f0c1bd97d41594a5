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

// crossrefSearchBase is the CrossRef works search endpoint. Declared as a
// var so tests can substitute an httptest server.
var crossrefSearchBase = "https://api.crossref.org/works"

// CrossRefSource searches CrossRef by bibliographic fields and accepts the
// top hit only when its title is close enough to the citation's.
type CrossRefSource struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Retry   httputil.RetryPolicy
	Config  types.ResolverConfig
}

// Name returns the source identifier.
func (s *CrossRefSource) Name() string { return "crossref" }

// Resolve searches by title and authors and returns a doi.org URL for the
// best hit above the acceptance threshold.
func (s *CrossRefSource) Resolve(ctx context.Context, c types.CitationMetadata) (string, error) {
	if c.Title == "" {
		return "", nil
	}

	if err := s.Limiter.Acquire(ctx, "crossref"); err != nil {
		return "", err
	}

	rows := s.Config.MaxResults
	if rows <= 0 {
		rows = 5
	}

	params := url.Values{
		"query.bibliographic": {bibliographicQuery(c)},
		"rows":                {fmt.Sprintf("%d", rows)},
		"select":              {"DOI,title,author"},
	}
	// CrossRef's polite pool gives identified callers better service.
	if s.Config.CrossrefMailto != "" {
		params.Set("mailto", s.Config.CrossrefMailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := s.Retry.Do(ctx, s.Client, req)
	if err != nil {
		return "", fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("CrossRef API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("parsing CrossRef response: %w", err)
	}

	for _, item := range cr.Message.Items {
		if len(item.Title) == 0 || item.DOI == "" {
			continue
		}
		if score.TitleSimilarity(c.Title, item.Title[0]) >= s.Config.AcceptThreshold {
			return doiBase + strings.ToLower(item.DOI), nil
		}
	}
	return "", nil
}

// bibliographicQuery joins the citation's title and author surnames into the
// free-form query CrossRef expects.
func bibliographicQuery(c types.CitationMetadata) string {
	parts := []string{c.Title}
	for _, a := range c.Authors {
		if s := score.Surname(a); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefItem `json:"items"`
}

type crossrefItem struct {
	DOI    string           `json:"DOI"`
	Title  []string         `json:"title"`
	Author []crossrefAuthor `json:"author"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}
