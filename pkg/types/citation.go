// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across the validation
// pipeline: parsed citations, fetched page metadata, correspondence scores,
// and validation results.
package types

// CitationMetadata holds the structured fields extracted from a free-text
// citation. Any field may be empty; a citation is parseable as long as at
// least one of Title, DOI, or PMID was recovered.
type CitationMetadata struct {
	// Raw is the original citation text, whitespace-collapsed.
	Raw string `json:"raw" yaml:"raw"`

	// Title is the work's title, empty if it could not be isolated.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Authors holds "Surname, I." strings in citation order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year, 0 if absent.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Volume  string `json:"volume,omitempty" yaml:"volume,omitempty"`
	Issue   string `json:"issue,omitempty" yaml:"issue,omitempty"`
	Pages   string `json:"pages,omitempty" yaml:"pages,omitempty"`

	// DOI is normalized to lowercase with trailing punctuation stripped.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// PMID is the PubMed identifier as a numeric string.
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// URL is the address as written in the citation, if any.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Unparseable is set when none of Title, DOI, or PMID could be
	// recovered. Correspondence checking is skipped for such citations.
	Unparseable bool `json:"unparseable,omitempty" yaml:"unparseable,omitempty"`

	// ParseNote explains why the citation was tagged unparseable.
	ParseNote string `json:"parse_note,omitempty" yaml:"parse_note,omitempty"`
}

// Parseable reports whether the citation carries enough structure for
// correspondence checking.
func (m CitationMetadata) Parseable() bool { return !m.Unparseable }

// HasIdentifier reports whether the citation carries a DOI or PMID.
func (m CitationMetadata) HasIdentifier() bool { return m.DOI != "" || m.PMID != "" }

// FetchedPage holds the best-effort metadata extracted from the content at a
// candidate URL. Absent fields are zero values; absence is distinct from
// mismatch and contributes nothing to scoring.
type FetchedPage struct {
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	Year    int      `json:"year,omitempty" yaml:"year,omitempty"`
}

// IsEmpty reports whether no metadata at all was extracted.
func (p FetchedPage) IsEmpty() bool {
	return p.Title == "" && len(p.Authors) == 0 && p.Year == 0
}

// URLCorrespondence is the scorer's verdict on whether a fetched page is the
// cited work. Matches is true only when Confidence reaches the configured
// match threshold.
type URLCorrespondence struct {
	Matches    bool    `json:"matches" yaml:"matches"`
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// FoundTitle and FoundAuthors are copied from the fetched page for
	// traceability in logs and reports.
	FoundTitle   string   `json:"found_title,omitempty" yaml:"found_title,omitempty"`
	FoundAuthors []string `json:"found_authors,omitempty" yaml:"found_authors,omitempty"`

	// MismatchReasons lists each sub-component that scored below its
	// internal threshold, e.g. "title mismatch".
	MismatchReasons []string `json:"mismatch_reasons,omitempty" yaml:"mismatch_reasons,omitempty"`
}
