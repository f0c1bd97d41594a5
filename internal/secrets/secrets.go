// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and caller identification from a directory
// of plain-text files: the filename is the key name, the trimmed file
// contents are the value.
//
// Keys the engine looks for: ncbi-api-key, semantic-scholar-api-key,
// crossref-mailto, openalex-email.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Engine key names.
const (
	KeyNCBI            = "ncbi-api-key"
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyCrossrefMailto  = "crossref-mailto"
	KeyOpenAlexEmail   = "openalex-email"
)

// Load reads every file in dir into a key→value map. A missing directory is
// not an error (all external services work anonymously, just slower).
// Unreadable files produce a warning on w but do not abort; dotfiles and
// subdirectories are skipped.
func Load(dir string, w io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	loaded := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			loaded[name] = value
		}
	}
	return loaded, nil
}
