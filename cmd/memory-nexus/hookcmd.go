package main

import (
	"errors"
	"log"
	"os"

	"github.com/memory-nexus/memory-nexus/internal/config"
	"github.com/memory-nexus/memory-nexus/internal/errs"
	"github.com/memory-nexus/memory-nexus/internal/hook"
)

// runHook implements the default (no-subcommand) invocation: a host
// lifecycle hook payload on stdin. It never exits non-zero, per
// §4.10's "exit status MUST be 0 regardless of internal outcome".
func runHook(_ []string) {
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, errs.ErrConfigInvalid) {
		log.Printf("loading config: %v", err)
		os.Exit(0)
	}

	logger, closeLogger, err := hook.NewLogger(cfg)
	if err != nil {
		log.Printf("starting hook logger: %v", err)
		os.Exit(0)
	}
	defer closeLogger()

	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}

	_ = hook.Run(os.Stdin, cfg, logger, self)
	os.Exit(0)
}
