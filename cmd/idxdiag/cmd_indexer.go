package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/idxdiag/internal/config"
	"github.com/DreamCats/idxdiag/internal/diag"
)

// parseWithTrailingFlags parses subcommand arguments, accepting flags
// both before and after the first positional argument. Stdlib flag
// stops at the first positional, so the remainder is parsed again.
func parseWithTrailingFlags(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", nil
	}
	positional := fs.Arg(0)
	if fs.NArg() > 1 {
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return "", err
		}
	}
	return positional, nil
}

// handleIndexer implements the indexer subcommand
func handleIndexer(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("indexer", flag.ExitOnError)
	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output the parsed status payload as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    idxdiag indexer [options] [name]

DESCRIPTION:
    Report an indexer's overall status, its last run (items processed,
    errors, warnings), and the run before it. The configured default
    indexer is used when no name is given.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Check the configured default indexer
    idxdiag indexer

    # Check a specific indexer
    idxdiag indexer pp-prod-docs-ix

    # JSON output for scripting
    idxdiag indexer pp-prod-docs-ix -json
`)
	}

	positional, err := parseWithTrailingFlags(fs, args)
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	indexerName := cfg.Indexer.Name
	if positional != "" {
		indexerName = positional
	}

	reporter := diag.NewIndexerReporter(newServiceClient(cfg), os.Stdout)
	if !jsonOutput {
		reporter.Progress = diag.NewFetchProgress(diag.ShouldShowProgress())
	}

	ctx := context.Background()
	if jsonOutput {
		status, err := reporter.Fetch(ctx, indexerName)
		if err != nil {
			log.Fatalf("Failed to get indexer status: %v", err)
		}
		if status == nil {
			os.Exit(1)
		}
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if _, err := reporter.Run(ctx, indexerName); err != nil {
		log.Fatalf("Failed to get indexer status: %v", err)
	}
}
