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
	"github.com/pdiddy/citecheck/pkg/types"
)

// E-utilities endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
	pubmedLinkBase    = "https://pubmed.ncbi.nlm.nih.gov/"
)

// PubMedSource confirms a citation's PMID against the E-utilities esummary
// endpoint and returns the article's PubMed URL. Unauthenticated callers get
// 3 req/s; an NCBI API key raises that to 10.
type PubMedSource struct {
	Client  *http.Client
	Limiter *ratelimit.Limiter
	Retry   httputil.RetryPolicy
	Config  types.ResolverConfig
}

// Name returns the source identifier.
func (s *PubMedSource) Name() string { return "pubmed" }

// Resolve looks up the PMID and returns its PubMed URL. An empty result
// means the citation has no PMID or PubMed does not know it.
func (s *PubMedSource) Resolve(ctx context.Context, c types.CitationMetadata) (string, error) {
	if c.PMID == "" {
		return "", nil
	}

	if err := s.Limiter.Acquire(ctx, "pubmed"); err != nil {
		return "", err
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {c.PMID},
		"retmode": {"json"},
	}
	if s.Config.NCBIAPIKey != "" {
		params.Set("api_key", s.Config.NCBIAPIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedSummaryBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.Config.UserAgent)

	resp, err := s.Retry.Do(ctx, s.Client, req)
	if err != nil {
		return "", fmt.Errorf("PubMed esummary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PubMed esummary returned HTTP %d", resp.StatusCode)
	}

	var sr pubmedSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing PubMed response: %w", err)
	}

	// The "result" object maps each UID to its summary document, next to a
	// "uids" array, so individual entries are decoded lazily.
	raw, ok := sr.Result[c.PMID]
	if !ok {
		return "", nil
	}
	var doc pubmedSummaryDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("parsing PubMed summary for %s: %w", c.PMID, err)
	}
	if doc.UID == "" || doc.Error != "" {
		// esummary reports unknown IDs inside the document rather than
		// with a non-200 status.
		return "", nil
	}
	return pubmedLinkBase + c.PMID + "/", nil
}

// PubMed esummary JSON structures.
type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedSummaryDoc struct {
	UID   string `json:"uid"`
	Title string `json:"title"`
	Error string `json:"error"`
}
