package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/idxdiag/cmd/idxdiag/internal"
	"github.com/DreamCats/idxdiag/internal/config"
	"github.com/DreamCats/idxdiag/internal/searchsvc"
)

// main parses global flags, loads configuration, and dispatches to the
// requested subcommand. Invalid arguments print usage and exit.
func main() {
	if len(os.Args) < 2 {
		internal.PrintUsage()
		os.Exit(1)
	}

	configPath := ""
	args := os.Args[1:]

	// Handle special flags that don't require a subcommand
	for _, arg := range args {
		if arg == "-h" || arg == "-help" || arg == "--help" {
			internal.PrintUsage()
			os.Exit(0)
		}
		if arg == "-v" || arg == "-version" || arg == "--version" {
			fmt.Printf("idxdiag version %s\n", internal.Version)
			os.Exit(0)
		}
	}

	validSubcommands := map[string]bool{
		"inspect": true,
		"indexer": true,
		"history": true,
	}

	subcommandIndex := -1
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && validSubcommands[arg] {
			subcommandIndex = i
			break
		}
	}

	if subcommandIndex == -1 {
		fmt.Fprintf(os.Stderr, "Error: No subcommand specified\n\n")
		internal.PrintUsage()
		os.Exit(1)
	}

	// Parse global flags (before subcommand)
	globalFlags := args[:subcommandIndex]
	for i := 0; i < len(globalFlags); i++ {
		flag := globalFlags[i]
		if flag == "-config" || flag == "--config" {
			if i+1 < len(globalFlags) {
				configPath = globalFlags[i+1]
				i++
			}
		} else if strings.HasPrefix(flag, "-") {
			fmt.Fprintf(os.Stderr, "Error: Unknown global flag: %s\n\n", flag)
			internal.PrintUsage()
			os.Exit(1)
		}
	}

	subcommand := args[subcommandIndex]
	subcommandArgs := args[subcommandIndex+1:]

	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		if config.IsConfigNotFound(err) {
			if notFoundErr, ok := err.(*config.ConfigNotFoundError); ok && subcommand == "inspect" {
				created, createErr := config.WriteDefaultTemplate(notFoundErr.RequestedPath)
				if createErr == nil && created {
					fmt.Fprintf(os.Stderr, "Created default config at %s\n", notFoundErr.RequestedPath)
					fmt.Fprintln(os.Stderr, "Please update service.endpoint and service.api_key and rerun `idxdiag inspect`.")
					os.Exit(1)
				}
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			internal.PrintConfigExample()
			os.Exit(1)
		}
		log.Fatalf("Failed to load config: %v\n", err)
	}

	if err := internal.SetupLogging(subcommand); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize log file: %v\n", err)
	}

	switch subcommand {
	case "inspect":
		handleInspect(cfg, subcommandArgs)
	case "indexer":
		handleIndexer(cfg, subcommandArgs)
	case "history":
		handleHistory(cfg, subcommandArgs)
	default:
		fmt.Printf("Unknown subcommand: %s\n\n", subcommand)
		internal.PrintUsage()
		os.Exit(1)
	}
}

// newServiceClient builds the search service client from configuration.
func newServiceClient(cfg *config.Config) *searchsvc.Client {
	client, err := searchsvc.NewClient(searchsvc.ClientConfig{
		Endpoint:   cfg.Service.Endpoint,
		APIKey:     cfg.Service.APIKey,
		APIVersion: cfg.Service.APIVersion,
		Timeout:    cfg.Service.Timeout(),
	})
	if err != nil {
		log.Fatalf("Failed to create service client: %v", err)
	}
	return client
}
