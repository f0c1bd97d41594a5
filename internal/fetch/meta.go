// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/pdiddy/citecheck/pkg/types"
)

// Title sources in descending priority. Scholarly pages carry Highwire
// citation_* tags; general pages carry OpenGraph or Dublin Core.
var titleMetaNames = []string{"citation_title", "og:title", "dc.title", "twitter:title"}

// Author meta names; citation_author repeats once per author.
var authorMetaNames = []string{"citation_author", "dc.creator", "author", "article:author"}

// Date meta names; the first parseable year wins.
var dateMetaNames = []string{
	"citation_publication_date", "citation_date", "citation_year",
	"article:published_time", "dc.date", "date",
}

var yearTokenRe = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// ExtractMetadata pulls title, authors, and year hints out of an HTML page.
// Meta tags are preferred; the visible <title> and readability's byline are
// fallbacks. A page with no extractable metadata returns a zero FetchedPage,
// which the scorer treats as "correspondence unknown".
func ExtractMetadata(body []byte, pageURL *url.URL) types.FetchedPage {
	var page types.FetchedPage

	doc, err := html.Parse(bytes.NewReader(body))
	if err == nil {
		meta, docTitle := collectMeta(doc)

		for _, name := range titleMetaNames {
			if v := meta[name]; len(v) > 0 {
				page.Title = v[0]
				break
			}
		}
		if page.Title == "" {
			page.Title = docTitle
		}

		for _, name := range authorMetaNames {
			if v := meta[name]; len(v) > 0 {
				page.Authors = v
				break
			}
		}

		for _, name := range dateMetaNames {
			if v := meta[name]; len(v) > 0 {
				if y := yearFrom(v[0]); y != 0 {
					page.Year = y
					break
				}
			}
		}
	}

	// Readability fallback for pages without useful tags: its title and
	// byline cover most news and blog layouts.
	if page.Title == "" || (len(page.Authors) == 0 && page.Year == 0) {
		if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
			if page.Title == "" {
				page.Title = strings.TrimSpace(article.Title)
			}
			if len(page.Authors) == 0 && article.Byline != "" {
				page.Authors = parseByline(article.Byline)
			}
			if page.Year == 0 {
				page.Year = yearFrom(article.Byline)
			}
		}
	}

	page.Title = cleanTitle(page.Title)
	return page
}

// collectMeta walks the parse tree and returns meta name/property → content
// values (names lowercased) plus the document <title>.
func collectMeta(doc *html.Node) (map[string][]string, string) {
	meta := make(map[string][]string)
	var docTitle string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "meta":
				var name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "name", "property":
						name = strings.ToLower(strings.TrimSpace(attr.Val))
					case "content":
						content = strings.TrimSpace(attr.Val)
					}
				}
				if name != "" && content != "" {
					meta[name] = append(meta[name], content)
				}
			case "title":
				if docTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return meta, docTitle
}

// yearFrom extracts the first plausible four-digit year from a string.
func yearFrom(s string) int {
	tok := yearTokenRe.FindString(s)
	if tok == "" {
		return 0
	}
	year := 0
	for _, r := range tok {
		year = year*10 + int(r-'0')
	}
	return year
}

// parseByline splits a byline like "By Jane Smith and John Doe" into author
// names.
func parseByline(byline string) []string {
	byline = strings.TrimSpace(byline)
	byline = strings.TrimPrefix(byline, "By ")
	byline = strings.TrimPrefix(byline, "by ")
	byline = strings.ReplaceAll(byline, " and ", ",")

	var authors []string
	for _, part := range strings.FieldsFunc(byline, func(r rune) bool {
		return r == ',' || r == '&'
	}) {
		part = strings.TrimSpace(part)
		if part != "" && !yearTokenRe.MatchString(part) {
			authors = append(authors, part)
		}
	}
	return authors
}

// cleanTitle strips common site-name suffixes: "Paper Title - Nature" and
// "Paper Title | PLOS ONE" keep only the paper title.
func cleanTitle(title string) string {
	for _, sep := range []string{" | ", " — ", " – ", " - "} {
		if i := strings.LastIndex(title, sep); i > 0 {
			// Only strip when the suffix looks like a short site name.
			if suffix := title[i+len(sep):]; len(strings.Fields(suffix)) <= 4 {
				title = title[:i]
			}
			break
		}
	}
	return strings.TrimSpace(title)
}
