package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/export"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: memory-nexus export PATH")
		os.Exit(errs.ExitValidation)
	}
	path := fs.Arg(0)

	cfg := loadConfig()
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	defer db.Close()

	exportedAt := time.Now().UTC().Format(time.RFC3339)
	if err := export.NewService(db).Export(path, exportedAt); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	fmt.Printf("exported to %s\n", path)
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	clearExisting := fs.Bool("clear-existing", false, "Delete existing rows before importing")
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: memory-nexus import PATH [--clear-existing]")
		os.Exit(errs.ExitValidation)
	}
	path := fs.Arg(0)

	cfg := loadConfig()
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	defer db.Close()

	if err := export.NewService(db).Import(path, *clearExisting); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	fmt.Printf("imported from %s\n", path)
}
