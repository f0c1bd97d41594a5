// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/citecheck/pkg/types"
)

func TestReadCitationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.yaml")
	content := `citations:
  - "Smith, J. (2020). Effects of vitamin D. Journal of Medicine, 105(3), 123-145."
  - "Jones, K. (2018). Health policy. Policy Review, 12(2), 5-19."
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	citations, err := ReadCitationFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 2 {
		t.Fatalf("got %d citations, want 2", len(citations))
	}
	if citations[1] != "Jones, K. (2018). Health policy. Policy Review, 12(2), 5-19." {
		t.Errorf("citations[1] = %q", citations[1])
	}
}

func TestReadCitationFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "citations.yaml")
	if err := os.WriteFile(path, []byte("citations: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadCitationFile(path); err == nil {
		t.Fatal("empty citation list accepted")
	}
}

func TestResultFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.yaml")

	results := []types.ValidationResult{
		{
			Citation:         types.CitationMetadata{Raw: "a", Title: "A"},
			Tier:             types.TierThorough,
			IsValid:          true,
			CredibilityScore: 95,
			CorrectedURL:     "https://doi.org/10.1210/example",
			ResolvedBy:       "doi",
			ValidatedAt:      time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		},
		{
			Citation:         types.CitationMetadata{Raw: "b", Unparseable: true},
			Tier:             types.TierThorough,
			CredibilityScore: 0,
			Incomplete:       true,
			ValidatedAt:      time.Date(2026, 8, 20, 12, 0, 1, 0, time.UTC),
		},
	}
	if err := WriteResultFile(path, types.TierThorough, results); err != nil {
		t.Fatal(err)
	}

	rf, err := ReadResultFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if rf.Tier != types.TierThorough {
		t.Errorf("tier = %q", rf.Tier)
	}
	if len(rf.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(rf.Results))
	}
	if rf.Results[0].CorrectedURL != results[0].CorrectedURL {
		t.Errorf("corrected url = %q", rf.Results[0].CorrectedURL)
	}
	if !rf.Results[1].Incomplete {
		t.Error("incomplete flag lost in round trip")
	}
}

func TestSummarize(t *testing.T) {
	results := []types.ValidationResult{
		{IsValid: true},
		{IsValid: true, CorrectedURL: "https://doi.org/x"},
		{IsValid: false, Incomplete: true},
	}

	s := Summarize(results)
	if s.Total != 3 || s.Valid != 2 || s.Invalid != 1 || s.Incomplete != 1 || s.Corrected != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Timestamp.IsZero() {
		t.Error("summary has no timestamp")
	}
}
