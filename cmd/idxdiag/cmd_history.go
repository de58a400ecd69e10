package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/idxdiag/internal/config"
	"github.com/DreamCats/idxdiag/internal/store"
)

// handleHistory implements the history subcommand
func handleHistory(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)

	var indexName string
	var limit int
	fs.StringVar(&indexName, "index", cfg.Index.Name, "Index whose snapshots to list")
	fs.IntVar(&limit, "n", 10, "Number of snapshots to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    idxdiag history [options]

DESCRIPTION:
    List index stats snapshots recorded locally by 'idxdiag inspect',
    most recent first, with document count deltas between runs.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Last 10 snapshots of the configured index
    idxdiag history

    # Last 30 snapshots of another index
    idxdiag history -index idx-prod-docs -n 30
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if cfg.History.Disabled {
		fmt.Println("Snapshot history is disabled in the configuration")
		return
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		fmt.Println("No snapshots recorded yet (run 'idxdiag inspect' first)")
		return
	}

	snapshots, err := store.Open(cfg.History.Path)
	if err != nil {
		log.Fatalf("Failed to open snapshot history: %v", err)
	}
	defer snapshots.Close()

	snaps, err := snapshots.Recent(context.Background(), indexName, limit)
	if err != nil {
		log.Fatalf("Failed to read snapshots: %v", err)
	}
	if len(snaps) == 0 {
		fmt.Printf("No snapshots recorded for %s\n", indexName)
		return
	}

	fmt.Printf("=== Snapshot History for %s ===\n\n", indexName)
	for i, snap := range snaps {
		fmt.Printf("%s  documents: %d", snap.TakenAt.Local().Format("2006-01-02 15:04:05"), snap.DocumentCount)
		if i+1 < len(snaps) {
			fmt.Printf("  (%+d)", snap.DocumentCount-snaps[i+1].DocumentCount)
		}
		fmt.Printf("  storage: %d bytes  vectors: %d bytes\n", snap.StorageSize, snap.VectorIndexSize)
	}
}
