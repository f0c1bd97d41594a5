// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citecheck/internal/cite"
	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/internal/resolve"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [citation]",
	Short: "Find the canonical URL for a citation",
	Long: `Resolve runs only the resolver chain: it parses the citation and queries
DOI, PubMed, CrossRef, Semantic Scholar, and OpenAlex in priority order,
printing the first acceptable URL.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide citation text to resolve")
	}
	citation := strings.Join(args, " ")

	meta := cite.Parse(citation)
	if !meta.Parseable() {
		return fmt.Errorf("citation could not be parsed: %s", meta.ParseNote)
	}

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	log := newLogger(verbose)

	limiter := ratelimit.New(cfg.RateLimit)
	chain := resolve.NewChain(cfg.Resolver, limiter, httputil.DefaultPolicy(), log)

	res, ok := chain.FindCorrectURL(cmd.Context(), meta)
	if !ok {
		return fmt.Errorf("no canonical URL could be resolved")
	}
	fmt.Printf("%s\t(via %s)\n", res.URL, res.Source)
	return nil
}
