// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite extracts structured metadata from free-text citations.
// APA 7 is the primary target format; the parser degrades gracefully on
// other styles rather than failing.
package cite

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/citecheck/pkg/types"
)

// Identifier and structure patterns.
var (
	// doiRe matches DOIs: "10.1145/1234567.1234568".
	doiRe = regexp.MustCompile(`10\.\d{4,9}/[^\s"<>]+`)

	// pmidRe matches labelled PubMed identifiers: "PMID: 12345678".
	pmidRe = regexp.MustCompile(`(?i)\bPMID:?\s*(\d{1,9})\b`)

	// urlRe matches an http(s) URL anywhere in the citation.
	urlRe = regexp.MustCompile(`https?://\S+`)

	// yearRe matches a parenthesized publication year, with an optional
	// disambiguating letter: "(2020)", "(2020a)".
	yearRe = regexp.MustCompile(`\((\d{4})[a-z]?\)`)

	// authorRe matches one "Surname, I." pair, allowing multiple initials,
	// hyphenated surnames, and particles like "van der".
	authorRe = regexp.MustCompile(`(\p{Lu}[\p{L}'’\-]+(?:\s\p{L}[\p{L}'’\-]+)*),\s*((?:\p{Lu}\.(?:\s?-?\p{Lu}\.)*)+)`)

	// volIssuePagesRe matches "105(3), 123-145" style journal tails.
	volIssuePagesRe = regexp.MustCompile(`(\d+)\s*(?:\(([^)]+)\))?\s*,\s*(e?\d+(?:\s*[-–]\s*\d+)?)`)
)

// trailingPunct is stripped from extracted URLs and DOIs. Citation text
// regularly ends identifiers with sentence punctuation that is not part of
// the identifier itself.
const trailingPunct = ".,;:)]}>\"'"

// Parse extracts structured metadata from citation text. It never returns a
// hard error: unrecognized structure yields a partially-populated record
// tagged unparseable with an explanatory note.
func Parse(text string) types.CitationMetadata {
	raw := Normalize(text)
	m := types.CitationMetadata{Raw: raw}
	if raw == "" {
		m.Unparseable = true
		m.ParseNote = "empty citation text"
		return m
	}

	working := raw

	// Trailing URL first, so identifier and title heuristics do not trip
	// over it. The DOI may live inside the URL (doi.org links).
	if loc := urlRe.FindStringIndex(working); loc != nil {
		m.URL = strings.TrimRight(working[loc[0]:loc[1]], trailingPunct)
		working = strings.TrimSpace(working[:loc[0]] + working[loc[1]:])
	}

	if doi := doiRe.FindString(raw); doi != "" {
		m.DOI = strings.ToLower(strings.TrimRight(doi, trailingPunct))
	}
	if pm := pmidRe.FindStringSubmatch(raw); pm != nil {
		m.PMID = pm[1]
	}
	// Keep the DOI out of the journal/pages heuristics below.
	working = strings.TrimSpace(doiRe.ReplaceAllString(pmidRe.ReplaceAllString(working, ""), ""))

	// Split on the first "(year)" to separate the author list from the
	// title/journal tail.
	if loc := yearRe.FindStringSubmatchIndex(working); loc != nil {
		m.Year, _ = strconv.Atoi(working[loc[2]:loc[3]])
		m.Authors = parseAuthors(working[:loc[0]])

		tail := strings.TrimSpace(working[loc[1]:])
		tail = strings.TrimLeft(tail, ". ")
		m.Title, m.Journal, m.Volume, m.Issue, m.Pages = splitTail(tail)
	} else {
		// No year: treat the leading sentence as the title if it does not
		// look like an author list.
		if authors := parseAuthors(working); len(authors) > 0 {
			m.Authors = authors
		} else {
			m.Title = firstSentence(working)
		}
	}

	// A "title" with no letters (stray punctuation, page numbers) is noise,
	// not a title.
	if !hasLetter(m.Title) {
		m.Title = ""
	}

	if m.Title == "" && m.DOI == "" && m.PMID == "" {
		m.Unparseable = true
		m.ParseNote = "no recoverable title, DOI, or PMID"
	}
	return m
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Normalize collapses runs of whitespace to single spaces, preserving case.
// Cache keys are derived from this form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// parseAuthors extracts "Surname, I." pairs from the leading author list.
// Segments that do not match the author-name shape ("et al.", editor notes,
// stray text) are dropped rather than aborting the parse.
func parseAuthors(s string) []string {
	var authors []string
	for _, pair := range authorRe.FindAllStringSubmatch(s, -1) {
		surname := pair[1]
		initials := strings.Join(strings.Fields(pair[2]), " ")
		authors = append(authors, surname+", "+initials)
	}
	return authors
}

// splitTail separates "Title. Journal, 105(3), 123-145." into its parts.
// The title ends at the first period; the remainder is journal, volume,
// issue, and pages.
func splitTail(tail string) (title, journal, volume, issue, pages string) {
	title = firstSentence(tail)
	rest := strings.TrimSpace(tail[min(len(title)+1, len(tail)):])
	if rest == "" {
		return title, "", "", "", ""
	}

	if loc := volIssuePagesRe.FindStringSubmatchIndex(rest); loc != nil {
		journal = strings.Trim(strings.TrimSpace(rest[:loc[0]]), ",. ")
		volume = rest[loc[2]:loc[3]]
		if loc[4] >= 0 {
			issue = rest[loc[4]:loc[5]]
		}
		pages = strings.ReplaceAll(rest[loc[6]:loc[7]], " ", "")
	} else {
		journal = strings.Trim(firstSentence(rest), ",. ")
	}
	return title, journal, volume, issue, pages
}

// firstSentence returns the text up to (not including) the first period that
// ends a word. Periods inside dotted abbreviations ("U.S.") do not split.
func firstSentence(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != '.' {
			continue
		}
		// Second period of a dotted abbreviation.
		if i >= 2 && s[i-2] == '.' {
			continue
		}
		if i == len(s)-1 || s[i+1] == ' ' {
			return strings.TrimSpace(s[:i])
		}
	}
	return strings.TrimSpace(s)
}
