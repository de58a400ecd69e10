package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/idxdiag/cmd/idxdiag/internal"
	"github.com/DreamCats/idxdiag/internal/config"
	"github.com/DreamCats/idxdiag/internal/diag"
	"github.com/DreamCats/idxdiag/internal/searchsvc"
	"github.com/DreamCats/idxdiag/internal/store"
)

// handleInspect implements the inspect subcommand
func handleInspect(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)

	var indexName, probeText string
	var sampleTop, probeK int
	var noHistory bool
	var fieldPatterns internal.StringList

	fs.StringVar(&indexName, "index", cfg.Index.Name, "Index to inspect")
	fs.StringVar(&probeText, "probe", cfg.Index.ProbeText, "Text for the vector similarity probe")
	fs.IntVar(&sampleTop, "top", cfg.Index.SampleTop, "Number of sample documents to fetch")
	fs.IntVar(&probeK, "k", cfg.Index.ProbeK, "Nearest neighbors to request from the vector probe")
	fs.BoolVar(&noHistory, "no-history", false, "Skip the local snapshot history")
	fs.Var(&fieldPatterns, "fields", "Glob pattern for displayed document fields (repeatable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    idxdiag inspect [options]

DESCRIPTION:
    Report index statistics, a sample of documents, and the outcome of a
    vector similarity probe. A failed stats fetch aborts the report.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Inspect the configured index
    idxdiag inspect

    # More sample documents, only content fields
    idxdiag inspect -top 5 -fields "content*"

    # Probe with different text
    idxdiag inspect -probe "billing export formats"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	patterns := cfg.Display.Fields
	if len(fieldPatterns) > 0 {
		patterns = fieldPatterns
	}

	inspector := diag.NewInspector(newServiceClient(cfg), diag.InspectorConfig{
		Index:         indexName,
		SampleTop:     sampleTop,
		ProbeText:     probeText,
		VectorField:   cfg.Index.VectorField,
		ProbeK:        probeK,
		ProbeSelect:   cfg.Index.ProbeSelect,
		FieldPatterns: patterns,
		MaxFieldChars: cfg.Display.MaxFieldChars,
		MaxItemChars:  cfg.Display.MaxItemChars,
	}, os.Stdout)
	inspector.Progress = diag.NewFetchProgress(diag.ShouldShowProgress())

	if !noHistory && !cfg.History.Disabled {
		snapshots, err := store.Open(cfg.History.Path)
		if err != nil {
			log.Printf("Warning: snapshot history unavailable: %v", err)
		} else {
			defer snapshots.Close()
			inspector.History = snapshots
		}
	}

	if err := inspector.Run(context.Background()); err != nil {
		// The report already printed the status code and raw body for
		// non-2xx responses; don't repeat them.
		var statusErr *searchsvc.StatusError
		if errors.As(err, &statusErr) {
			os.Exit(1)
		}
		log.Fatalf("Inspection failed: %v", err)
	}
}
