// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citecheck/internal/engine"
	"github.com/pdiddy/citecheck/pkg/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate [citations...]",
	Short: "Validate citations against their URLs",
	Long: `Validate parses each citation, checks its format, and (at higher tiers)
verifies that its URL points at the cited work. Citations come from the
command line or from a YAML file via --file. Unmatched URLs are corrected
through the resolver chain at the thorough tier.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("tier", "thorough", "validation tier: quick, standard, or thorough")
	validateCmd.Flags().String("file", "", "YAML file with a citations: list")
	validateCmd.Flags().String("out", "", "write results to a YAML file")
	validateCmd.Flags().Bool("json", false, "print results as JSON")
	validateCmd.Flags().Bool("verbose", false, "enable debug logging")
	validateCmd.Flags().Int("concurrency", 0, "batch worker pool size (default 4)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	tierName, _ := cmd.Flags().GetString("tier")
	tier, err := types.ParseTier(tierName)
	if err != nil {
		return err
	}

	citations := args
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		fromFile, err := engine.ReadCitationFile(file)
		if err != nil {
			return err
		}
		citations = append(citations, fromFile...)
	}
	if len(citations) == 0 {
		return fmt.Errorf("provide citation text as arguments or a citation file via --file")
	}

	cfg, err := loadEngineConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
		cfg.Concurrency = n
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	log := newLogger(verbose)

	eng, cleanup, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	results := eng.ValidateAll(cmd.Context(), citations, tier, os.Stderr)

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := engine.WriteResultFile(out, tier, results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Results written to %s\n", out)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
	} else {
		printResults(results)
	}

	summary := engine.Summarize(results)
	if summary.Invalid > 0 {
		return fmt.Errorf("%d of %d citation(s) failed validation", summary.Invalid, summary.Total)
	}
	return nil
}

// printResults writes a human-readable report to stdout.
func printResults(results []types.ValidationResult) {
	for i, r := range results {
		status := "VALID"
		if !r.IsValid {
			status = "INVALID"
		}
		if r.Incomplete {
			status += " (incomplete)"
		}
		fmt.Printf("%d. [%s] credibility %d/100\n", i+1, status, r.CredibilityScore)
		if r.Citation.Title != "" {
			fmt.Printf("   title:  %s\n", r.Citation.Title)
		}
		if r.Citation.URL != "" {
			fmt.Printf("   url:    %s\n", r.Citation.URL)
		}
		if r.Correspondence != nil {
			fmt.Printf("   match:  %v (confidence %.2f)\n", r.Correspondence.Matches, r.Correspondence.Confidence)
		}
		if r.CorrectedURL != "" {
			fmt.Printf("   fix:    %s (via %s)\n", r.CorrectedURL, r.ResolvedBy)
		}
		for _, is := range r.Issues {
			fmt.Printf("   %s: %s\n", is.Severity, is.Message)
		}
		for _, w := range r.Warnings {
			fmt.Printf("   warning: %s\n", w)
		}
		for _, rec := range r.Recommendations {
			fmt.Printf("   recommend: %s\n", rec)
		}
	}
}
