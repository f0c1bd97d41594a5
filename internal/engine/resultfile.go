// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citecheck/pkg/types"
)

// CitationFile is the on-disk input for batch validation: a list of
// citation strings.
type CitationFile struct {
	Citations []string `yaml:"citations"`
}

// ReadCitationFile loads citations from a YAML file.
func ReadCitationFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading citation file: %w", err)
	}
	var cf CitationFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing citation file: %w", err)
	}
	if len(cf.Citations) == 0 {
		return nil, fmt.Errorf("citation file %s lists no citations", path)
	}
	return cf.Citations, nil
}

// ResultFile is the on-disk output of a batch validation run.
type ResultFile struct {
	Tier    types.Tier               `yaml:"tier"`
	Summary ResultSummary            `yaml:"summary"`
	Results []types.ValidationResult `yaml:"results"`
}

// ResultSummary holds batch statistics and a timestamp.
type ResultSummary struct {
	Total      int       `yaml:"total"`
	Valid      int       `yaml:"valid"`
	Invalid    int       `yaml:"invalid"`
	Incomplete int       `yaml:"incomplete"`
	Corrected  int       `yaml:"corrected"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// Summarize computes batch statistics over results.
func Summarize(results []types.ValidationResult) ResultSummary {
	s := ResultSummary{Total: len(results), Timestamp: time.Now()}
	for _, r := range results {
		if r.IsValid {
			s.Valid++
		} else {
			s.Invalid++
		}
		if r.Incomplete {
			s.Incomplete++
		}
		if r.CorrectedURL != "" {
			s.Corrected++
		}
	}
	return s
}

// WriteResultFile saves a batch run to a YAML file.
func WriteResultFile(path string, tier types.Tier, results []types.ValidationResult) error {
	rf := ResultFile{
		Tier:    tier,
		Summary: Summarize(results),
		Results: results,
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}
