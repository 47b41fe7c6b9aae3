package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}

	cfg := loadConfig()

	installed := false
	if settings, err := readHostSettings(hostSettingsPath()); err == nil {
		for _, event := range []string{"SessionEnd", "PreCompact"} {
			if hasHook(settings.Hooks[event]) {
				installed = true
			}
		}
	}
	fmt.Printf("hook installed: %v\n", installed)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	defer db.Close()

	extraction := store.NewExtractionStateRepository(db)

	pending, err := extraction.FilesNeedingRecovery()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	fmt.Printf("pending sessions: %d\n", len(pending))

	lastSync, err := extraction.LastSyncTime()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	if lastSync == "" {
		fmt.Println("last sync: never")
	} else {
		fmt.Printf("last sync: %s\n", lastSync)
	}
}
