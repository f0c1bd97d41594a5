// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mismatch maintains an append-only structured log of every
// citation/URL mismatch the engine detects, with enough context to audit the
// decision later.
package mismatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/citecheck/pkg/types"
)

// Logger appends JSON-line mismatch records to a file. zerolog serializes
// each record into a single Write call, so concurrent validation workers can
// share one Logger.
type Logger struct {
	file *os.File
	log  zerolog.Logger
}

// Open creates or opens the log file in append mode. An empty path returns a
// no-op Logger.
func Open(path string) (*Logger, error) {
	if path == "" {
		return &Logger{log: zerolog.Nop()}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating mismatch log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening mismatch log: %w", err)
	}
	return &Logger{
		file: f,
		log:  zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

// Record appends one mismatch with its full diagnostic context.
func (l *Logger) Record(c types.CitationMetadata, corr types.URLCorrespondence, providedURL, correctedURL string) {
	ev := l.log.Log().
		Str("citation_title", c.Title).
		Strs("citation_authors", c.Authors).
		Int("citation_year", c.Year).
		Str("provided_url", providedURL).
		Float64("confidence", corr.Confidence).
		Str("found_title", corr.FoundTitle).
		Strs("reasons", corr.MismatchReasons)
	if correctedURL != "" {
		ev = ev.Str("corrected_url", correctedURL)
	}
	ev.Msg("citation url mismatch")
}

// Close releases the underlying file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
