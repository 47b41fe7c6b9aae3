package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/stats"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	projectLimit := fs.Int("project-limit", stats.DefaultProjectLimit, "Maximum project rows in the breakdown")
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}

	cfg := loadConfig()
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	defer db.Close()

	totals, err := stats.NewService(db).Collect(*projectLimit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}

	fmt.Printf("%d sessions, %d messages, %d tool uses\n", totals.TotalSessions, totals.TotalMessages, totals.TotalToolUses)
	fmt.Printf("database size: %s\n", totals.DatabaseSizeHuman())
	fmt.Println("\nby project:")
	for _, b := range totals.Breakdown {
		fmt.Printf("  %-40s %6d sessions  %6d messages\n", b.ProjectName, b.SessionCount, b.MessageCount)
	}
}
