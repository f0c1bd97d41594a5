// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Tier selects how deep a validation run goes. QUICK is format-only and
// fully offline, STANDARD adds identifier and reachability checks, THOROUGH
// runs correspondence scoring and URL resolution.
type Tier string

const (
	TierQuick    Tier = "quick"
	TierStandard Tier = "standard"
	TierThorough Tier = "thorough"
)

// ParseTier converts a user-supplied string into a Tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierQuick, TierStandard, TierThorough:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("unknown validation tier %q (expected quick, standard, or thorough)", s)
	}
}

// Severity classifies an issue found during validation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is a single problem detected in a citation.
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// ValidationResult is the per-citation outcome of a validation run. It is
// created fresh per call and never mutated after being returned; cached
// copies round-trip through JSON unchanged.
type ValidationResult struct {
	Citation CitationMetadata `json:"citation" yaml:"citation"`
	Tier     Tier             `json:"tier" yaml:"tier"`

	IsValid          bool `json:"is_valid" yaml:"is_valid"`
	CredibilityScore int  `json:"credibility_score" yaml:"credibility_score"`

	Issues          []Issue  `json:"issues,omitempty" yaml:"issues,omitempty"`
	Warnings        []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`

	// Correspondence is nil below the THOROUGH tier and for unparseable
	// citations.
	Correspondence *URLCorrespondence `json:"correspondence,omitempty" yaml:"correspondence,omitempty"`

	// CorrectedURL is set only when the resolver chain found a canonical
	// URL that passed its acceptance threshold.
	CorrectedURL string `json:"corrected_url,omitempty" yaml:"corrected_url,omitempty"`

	// ResolvedBy names the resolver source that produced CorrectedURL.
	ResolvedBy string `json:"resolved_by,omitempty" yaml:"resolved_by,omitempty"`

	// Incomplete is set when the per-citation deadline expired before the
	// pipeline finished; the result is best-effort.
	Incomplete bool `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`

	ValidatedAt time.Time `json:"validated_at" yaml:"validated_at"`
}

// HasErrors reports whether any issue carries error severity.
func (r ValidationResult) HasErrors() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// AddIssue appends an issue during result construction.
func (r *ValidationResult) AddIssue(sev Severity, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Message: fmt.Sprintf(format, args...)})
}
