package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/memory-nexus/memory-nexus/internal/errs"
)

// hookCommand is the entry this tool installs into the host's own
// hook configuration. install/uninstall only edit that file; they
// never touch this process's own config.json.
const hookCommand = "memory-nexus"

type hookEntry struct {
	Hooks []struct {
		Type    string `json:"type"`
		Command string `json:"command"`
	} `json:"hooks"`
}

type hostSettings struct {
	Hooks map[string][]hookEntry `json:"hooks"`
}

func hostSettingsPath() string {
	if v := os.Getenv("MEMORY_NEXUS_HOST_SETTINGS"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "settings.json")
}

func readHostSettings(path string) (hostSettings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return hostSettings{Hooks: map[string][]hookEntry{}}, nil
	}
	if err != nil {
		return hostSettings{}, err
	}
	var s hostSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return hostSettings{}, err
	}
	if s.Hooks == nil {
		s.Hooks = map[string][]hookEntry{}
	}
	return s, nil
}

func writeHostSettings(path string, s hostSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func hasHook(entries []hookEntry) bool {
	for _, e := range entries {
		for _, h := range e.Hooks {
			if h.Command == hookCommand {
				return true
			}
		}
	}
	return false
}

func runInstall(args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}

	path := hostSettingsPath()
	settings, err := readHostSettings(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitIO)
	}

	for _, event := range []string{"SessionEnd", "PreCompact"} {
		if hasHook(settings.Hooks[event]) {
			continue
		}
		settings.Hooks[event] = append(settings.Hooks[event], hookEntry{
			Hooks: []struct {
				Type    string `json:"type"`
				Command string `json:"command"`
			}{{Type: "command", Command: hookCommand}},
		})
	}

	if err := writeHostSettings(path, settings); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitIO)
	}
	fmt.Printf("installed hooks into %s\n", path)
}

func runUninstall(args []string) {
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	restore := fs.Bool("restore", false, "Remove the backup file left from a prior install, if any")
	if err := fs.Parse(args); err != nil {
		os.Exit(errs.ExitValidation)
	}

	path := hostSettingsPath()
	settings, err := readHostSettings(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitIO)
	}

	for event, entries := range settings.Hooks {
		var kept []hookEntry
		for _, e := range entries {
			if !hasHook([]hookEntry{e}) {
				kept = append(kept, e)
			}
		}
		settings.Hooks[event] = kept
	}

	if err := writeHostSettings(path, settings); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(errs.ExitIO)
	}

	if *restore {
		backup := path + ".bak"
		if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "warning: removing backup:", err)
		}
	}
	fmt.Printf("removed hooks from %s\n", path)
}
