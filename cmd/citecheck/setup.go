// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/citecheck/internal/cache"
	"github.com/pdiddy/citecheck/internal/engine"
	"github.com/pdiddy/citecheck/internal/fetch"
	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/mismatch"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/internal/resolve"
	"github.com/pdiddy/citecheck/internal/secrets"
	"github.com/pdiddy/citecheck/pkg/types"
)

// loadEngineConfig merges defaults, the viper config file, and loaded
// secrets into the engine configuration.
func loadEngineConfig() (types.EngineConfig, error) {
	cfg := types.DefaultEngineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	if v, ok := loadedSecrets[secrets.KeyNCBI]; ok {
		cfg.Resolver.NCBIAPIKey = v
		// An NCBI key raises PubMed's quota from 3 to 10 req/s.
		cfg.RateLimit.Services["pubmed"] = types.ServiceLimit{PerSecond: 10, Burst: 10}
	}
	if v, ok := loadedSecrets[secrets.KeySemanticScholar]; ok {
		cfg.Resolver.SemanticScholarAPIKey = v
	}
	if v, ok := loadedSecrets[secrets.KeyCrossrefMailto]; ok {
		cfg.Resolver.CrossrefMailto = v
	}
	if v, ok := loadedSecrets[secrets.KeyOpenAlexEmail]; ok {
		cfg.Resolver.OpenAlexEmail = v
	}
	return cfg, nil
}

// newLogger builds the CLI logger: human-readable on a terminal, JSON lines
// otherwise.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// buildEngine assembles the validation engine and its owned resources. The
// returned cleanup closes the cache store and mismatch log.
func buildEngine(cfg types.EngineConfig, log zerolog.Logger) (*engine.Engine, func(), error) {
	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	mlog, err := mismatch.Open(cfg.MismatchLog)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	limiter := ratelimit.New(cfg.RateLimit)
	retry := httputil.DefaultPolicy()
	fetcher := fetch.New(cfg.Fetch, limiter, retry)
	chain := resolve.NewChain(cfg.Resolver, limiter, retry, log)

	eng := engine.New(cfg, fetcher, chain, store, mlog, log)
	cleanup := func() {
		mlog.Close()
		store.Close()
	}
	return eng, cleanup, nil
}
