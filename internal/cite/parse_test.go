// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"reflect"
	"testing"
)

func TestParseAPA(t *testing.T) {
	text := "Smith, J. (2020). Effects of vitamin D. Journal of Medicine, 105(3), 123-145. https://doi.org/10.1210/example"
	m := Parse(text)

	if m.Unparseable {
		t.Fatalf("Parse(%q) unparseable: %s", text, m.ParseNote)
	}
	if m.Title != "Effects of vitamin D" {
		t.Errorf("title = %q, want %q", m.Title, "Effects of vitamin D")
	}
	if want := []string{"Smith, J."}; !reflect.DeepEqual(m.Authors, want) {
		t.Errorf("authors = %v, want %v", m.Authors, want)
	}
	if m.Year != 2020 {
		t.Errorf("year = %d, want 2020", m.Year)
	}
	if m.Journal != "Journal of Medicine" {
		t.Errorf("journal = %q, want %q", m.Journal, "Journal of Medicine")
	}
	if m.Volume != "105" || m.Issue != "3" || m.Pages != "123-145" {
		t.Errorf("volume/issue/pages = %q/%q/%q, want 105/3/123-145", m.Volume, m.Issue, m.Pages)
	}
	if m.DOI != "10.1210/example" {
		t.Errorf("doi = %q, want %q", m.DOI, "10.1210/example")
	}
	if m.URL != "https://doi.org/10.1210/example" {
		t.Errorf("url = %q, want %q", m.URL, "https://doi.org/10.1210/example")
	}
}

func TestParseAuthors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single author",
			text: "Smith, J. (2020). A title.",
			want: []string{"Smith, J."},
		},
		{
			name: "ampersand pair",
			text: "Smith, J., & Jones, K. L. (2019). Deep learning. Nature, 585(7), 33-44.",
			want: []string{"Smith, J.", "Jones, K. L."},
		},
		{
			name: "hyphenated surname",
			text: "García-Márquez, G. (1967). Cien años de soledad.",
			want: []string{"García-Márquez, G."},
		},
		{
			name: "particle surname",
			text: "Van der Berg, M. A. (2021). Soil dynamics.",
			want: []string{"Van der Berg, M. A."},
		},
		{
			name: "et al dropped",
			text: "Smith, J., et al. (2020). Something.",
			want: []string{"Smith, J."},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Parse(tc.text)
			if !reflect.DeepEqual(m.Authors, tc.want) {
				t.Errorf("Parse(%q).Authors = %v, want %v", tc.text, m.Authors, tc.want)
			}
		})
	}
}

func TestParseIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantDOI  string
		wantPMID string
		wantURL  string
	}{
		{
			name:    "bare doi with trailing period",
			text:    "Author, A. (2020). Title. Journal, 1(1), 1-2. doi: 10.1038/s41586-020-2649-2.",
			wantDOI: "10.1038/s41586-020-2649-2",
		},
		{
			name:    "doi uppercased in source",
			text:    "Author, A. (2020). Title. 10.1234/ABC.DEF",
			wantDOI: "10.1234/abc.def",
		},
		{
			name:     "labelled pmid",
			text:     "Author, A. (2020). Title. Journal, 1(1), 1-2. PMID: 32512345.",
			wantPMID: "32512345",
		},
		{
			name:    "url stripped of trailing punctuation",
			text:    "Author, A. (2020). Title. Retrieved from https://example.org/paper.",
			wantURL: "https://example.org/paper",
		},
		{
			name:    "doi inside url",
			text:    "Author, A. (2020). Title. https://doi.org/10.1210/example",
			wantDOI: "10.1210/example",
			wantURL: "https://doi.org/10.1210/example",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Parse(tc.text)
			if m.DOI != tc.wantDOI {
				t.Errorf("doi = %q, want %q", m.DOI, tc.wantDOI)
			}
			if m.PMID != tc.wantPMID {
				t.Errorf("pmid = %q, want %q", m.PMID, tc.wantPMID)
			}
			if m.URL != tc.wantURL {
				t.Errorf("url = %q, want %q", m.URL, tc.wantURL)
			}
		})
	}
}

func TestParseUnparseable(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace only", text: "   \t\n "},
		{name: "punctuation only", text: "????"},
		{name: "numbers only", text: "12345, 678."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := Parse(tc.text)
			if !m.Unparseable {
				t.Errorf("Parse(%q).Unparseable = false, want true (title=%q)", tc.text, m.Title)
			}
			if m.ParseNote == "" {
				t.Error("unparseable citation has no parse note")
			}
		})
	}
}

// A garbled citation that still carries a DOI stays parseable: the identifier
// alone is enough to resolve it.
func TestParseDOIOnlySalvage(t *testing.T) {
	m := Parse("%%% 10.1210/example %%%")
	if m.Unparseable {
		t.Fatalf("citation with DOI marked unparseable: %s", m.ParseNote)
	}
	if m.DOI != "10.1210/example" {
		t.Errorf("doi = %q, want %q", m.DOI, "10.1210/example")
	}
}

func TestParseNoYear(t *testing.T) {
	m := Parse("The silent structure of online communities. Retrieved from https://example.org/essay")
	if m.Year != 0 {
		t.Errorf("year = %d, want 0", m.Year)
	}
	if m.Title != "The silent structure of online communities" {
		t.Errorf("title = %q", m.Title)
	}
	if m.URL != "https://example.org/essay" {
		t.Errorf("url = %q", m.URL)
	}
}

func TestParseDottedAbbreviationTitle(t *testing.T) {
	m := Parse("Jones, K. (2018). Health policy in the U.S. after 2010. Policy Review, 12(2), 5-19.")
	if m.Title != "Health policy in the U.S. after 2010" {
		t.Errorf("title = %q, want dotted abbreviation kept intact", m.Title)
	}
	if m.Journal != "Policy Review" {
		t.Errorf("journal = %q, want %q", m.Journal, "Policy Review")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a  b", "a b"},
		{"  a\tb\nc  ", "a b c"},
		{"unchanged text", "unchanged text"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
