package internal

import (
	"fmt"
	"os"
	"strings"
)

const Version = "0.3.1"

// PrintUsage writes the tool usage and subcommand list to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `idxdiag - Diagnostics for a hosted search service

Version: %s

USAGE:
    idxdiag [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.idxdiag/config/idxdiag.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    inspect
        Report index statistics, sample documents, and a vector search probe

    indexer [name]
        Report an indexer's run status, errors, and warnings

    history
        List locally recorded index stats snapshots

EXAMPLES:
    # Inspect the configured index
    idxdiag inspect

    # Inspect with a different sample size and field filter
    idxdiag inspect -top 5 -fields "content*"

    # Check the default indexer
    idxdiag indexer

    # Check a specific indexer, JSON output for scripting
    idxdiag indexer pp-prod-docs-ix -json

    # Show the last 10 recorded stats snapshots
    idxdiag history

For detailed help on each command, use:
    idxdiag <command> -help
`, Version)
}

// StringList is a flag.Value that collects multiple strings
type StringList []string

func (s *StringList) String() string {
	return strings.Join(*s, ",")
}

// Set appends one value, allowing the flag to be passed repeatedly.
func (s *StringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}
