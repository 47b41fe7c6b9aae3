// Command memory-nexus is the thin CLI entrypoint over the core:
// argument parsing, help text, and output formatting live here so the
// core packages never import flag, os.Stdout, or a terminal library.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/memory-nexus/memory-nexus/internal/config"
	"github.com/memory-nexus/memory-nexus/internal/errs"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		runHook(os.Args[1:])
		return
	}

	switch os.Args[1] {
	case "sync":
		runSync(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	case "stats":
		runStats(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "install":
		runInstall(os.Args[2:])
	case "uninstall":
		runUninstall(os.Args[2:])
	case "export":
		runExport(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("memory-nexus %s (commit %s)\n", version, commit)
	case "help", "--help", "-h":
		printUsage()
	default:
		// No subcommand matched: treat this invocation as a host hook
		// call, reading its JSON payload from stdin, per §4.10.
		runHook(os.Args[1:])
	}
}

func printUsage() {
	fmt.Print(`memory-nexus - local searchable knowledge base for coding-assistant sessions

Usage:
  memory-nexus sync [--session ID] [--project NAME] [--force] [--quiet]
  memory-nexus search QUERY [--limit N] [--project P] [--role R] [--session S]
                            [--since DATE] [--before DATE] [--case-sensitive]
  memory-nexus stats [--project-limit N]
  memory-nexus status
  memory-nexus install | uninstall [--restore]
  memory-nexus export PATH
  memory-nexus import PATH [--clear-existing]
  memory-nexus version
  memory-nexus help

Invoked with no recognized subcommand, memory-nexus reads a host hook
payload from stdin and exits 0 unconditionally.

"memory-nexus sync --quiet" with no --session or --project daemonizes
and stays resident, watching the session root for changes and falling
back to a periodic full resync, until it receives SIGTERM or SIGINT.
Disable this with "watchEnabled": false in config.json.

Data is stored in ~/.memory-nexus/ by default; override the database
path with the MEMORY_NEXUS_DB environment variable.
`)
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if errors.Is(err, errs.ErrConfigInvalid) {
		log.Printf("warning: %v; using defaults", err)
		return cfg
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	return cfg
}
