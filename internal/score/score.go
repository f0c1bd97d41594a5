// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the confidence that a fetched page is the work a
// citation refers to. Scoring is pure computation; absence of a field on
// either side is never treated as evidence for or against a match.
package score

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/pdiddy/citecheck/pkg/types"
)

// Score compares citation metadata against fetched page metadata and returns
// a weighted correspondence verdict. Title, author, and year components carry
// the configured weights; components missing on either side drop out of the
// denominator entirely.
func Score(citation types.CitationMetadata, page types.FetchedPage, cfg types.ScoreConfig) types.URLCorrespondence {
	corr := types.URLCorrespondence{
		FoundTitle:   page.Title,
		FoundAuthors: page.Authors,
	}

	if page.IsEmpty() {
		corr.MismatchReasons = []string{"target unreachable"}
		return corr
	}

	var earned, possible float64

	if citation.Title != "" && page.Title != "" {
		sim := TitleSimilarity(citation.Title, page.Title)
		earned += cfg.TitleWeight * sim
		possible += cfg.TitleWeight
		if sim < cfg.FieldThreshold {
			corr.MismatchReasons = append(corr.MismatchReasons, "title mismatch")
		}
	}

	if len(citation.Authors) > 0 && len(page.Authors) > 0 {
		overlap := authorOverlap(citation.Authors, page.Authors)
		earned += cfg.AuthorWeight * overlap
		possible += cfg.AuthorWeight
		if overlap < cfg.FieldThreshold {
			corr.MismatchReasons = append(corr.MismatchReasons, "author mismatch")
		}
	}

	if citation.Year != 0 && page.Year != 0 {
		var yearScore float64
		if citation.Year == page.Year {
			yearScore = 1.0
		}
		earned += cfg.YearWeight * yearScore
		possible += cfg.YearWeight
		if yearScore < cfg.FieldThreshold {
			corr.MismatchReasons = append(corr.MismatchReasons, "year mismatch")
		}
	}

	if possible == 0 {
		corr.MismatchReasons = []string{"no comparable metadata"}
		return corr
	}

	corr.Confidence = earned / possible
	corr.Matches = corr.Confidence >= cfg.MatchThreshold
	return corr
}

// TitleSimilarity returns a similarity in [0,1] between two titles. It takes
// the better of a token-set Jaccard overlap and a Levenshtein ratio over the
// normalized strings, so both word-reordering and small edits score well.
func TitleSimilarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	return max(tokenJaccard(na, nb), levenshteinRatio(na, nb))
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with collapsed whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenJaccard computes |A∩B| / |A∪B| over the word sets of two normalized
// strings.
func tokenJaccard(a, b string) float64 {
	setA := make(map[string]struct{})
	for _, tok := range strings.Fields(a) {
		setA[tok] = struct{}{}
	}
	setB := make(map[string]struct{})
	for _, tok := range strings.Fields(b) {
		setB[tok] = struct{}{}
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var inter int
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

// levenshteinRatio converts edit distance to a similarity in [0,1].
func levenshteinRatio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// authorOverlap returns the fraction of cited authors whose surname appears
// among the page's authors. Author order does not matter; surnames compare
// case-insensitively.
func authorOverlap(cited, found []string) float64 {
	foundSurnames := make(map[string]struct{})
	for _, a := range found {
		if s := Surname(a); s != "" {
			foundSurnames[s] = struct{}{}
		}
	}

	var matched, total int
	for _, a := range cited {
		s := Surname(a)
		if s == "" {
			continue
		}
		total++
		if _, ok := foundSurnames[s]; ok {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// Surname extracts the lowercased surname from an author string, handling
// both "Surname, I." and "First Last" forms.
func Surname(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return ""
	}
	if i := strings.IndexByte(author, ','); i >= 0 {
		return strings.ToLower(strings.TrimSpace(author[:i]))
	}
	fields := strings.Fields(author)
	return strings.ToLower(fields[len(fields)-1])
}
