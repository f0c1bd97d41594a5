// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"

	"github.com/pdiddy/citecheck/pkg/types"
)

// doiBase is the DOI resolver prefix.
const doiBase = "https://doi.org/"

// DOISource turns a citation's DOI into its resolver URL. A DOI is treated
// as authoritative: no network call and no similarity check are needed, the
// registrar's redirect is the canonical location.
type DOISource struct{}

// Name returns the source identifier.
func (s *DOISource) Name() string { return "doi" }

// Resolve returns the doi.org URL when the citation carries a DOI.
func (s *DOISource) Resolve(_ context.Context, c types.CitationMetadata) (string, error) {
	if c.DOI == "" {
		return "", nil
	}
	return doiBase + c.DOI, nil
}
