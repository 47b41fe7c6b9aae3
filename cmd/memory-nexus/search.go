package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/search"
	"github.com/memory-nexus/memory-nexus/internal/store"
)

type roleFlags []string

func (r *roleFlags) String() string { return strings.Join(*r, ",") }
func (r *roleFlags) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", search.DefaultLimit, "Maximum results")
	project := fs.String("project", "", "Restrict to this encoded project directory")
	session := fs.String("session", "", "Restrict to this session id")
	since := fs.String("since", "", "Only messages at or after this ISO timestamp")
	before := fs.String("before", "", "Only messages before this ISO timestamp")
	caseSensitive := fs.Bool("case-sensitive", false, "Require an exact-case substring match")
	var roles roleFlags
	fs.Var(&roles, "role", "Restrict to this message role (repeatable)")

	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: memory-nexus search QUERY [flags]")
		os.Exit(errs.ExitValidation)
	}
	query := strings.Join(fs.Args(), " ")

	cfg := loadConfig()
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}
	defer db.Close()

	results, err := search.NewService(db).Search(query, search.Options{
		Limit:         *limit,
		ProjectFilter: *project,
		RoleFilter:    roles,
		SessionFilter: *session,
		SinceDate:     *since,
		BeforeDate:    *before,
		CaseSensitive: *caseSensitive,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitCode(err))
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, r := range results {
		fmt.Printf("[%.2f] %s (%s) %s\n  %s\n", r.Score, r.SessionID, r.Role, r.Timestamp, r.Snippet)
	}
}
