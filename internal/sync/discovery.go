package sync

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoveredFile is one session source file found under the host's
// session root, paired with the project directory name it lives
// under (the host's encoded path form).
type DiscoveredFile struct {
	Path        string
	EncodedPath string
}

// Discover walks the host session root (one subdirectory per
// encoded project path, each holding .jsonl session files) and
// returns every session file found, sorted by path for deterministic
// processing order.
func Discover(sessionRoot string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(sessionRoot)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []DiscoveredFile
	for _, entry := range entries {
		if !isDirOrDirSymlink(entry, sessionRoot) {
			continue
		}
		projDir := filepath.Join(sessionRoot, entry.Name())
		sessionFiles, err := os.ReadDir(projDir)
		if err != nil {
			continue
		}
		for _, sf := range sessionFiles {
			if sf.IsDir() || !strings.HasSuffix(sf.Name(), ".jsonl") {
				continue
			}
			files = append(files, DiscoveredFile{
				Path:        filepath.Join(projDir, sf.Name()),
				EncodedPath: entry.Name(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// DiscoverProject is like Discover but restricted to a single
// project's encoded directory name.
func DiscoverProject(sessionRoot, encodedPath string) ([]DiscoveredFile, error) {
	projDir := filepath.Join(sessionRoot, encodedPath)
	entries, err := os.ReadDir(projDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []DiscoveredFile
	for _, sf := range entries {
		if sf.IsDir() || !strings.HasSuffix(sf.Name(), ".jsonl") {
			continue
		}
		files = append(files, DiscoveredFile{
			Path:        filepath.Join(projDir, sf.Name()),
			EncodedPath: encodedPath,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// FindSessionFile locates the source file for a single session id
// anywhere under the session root, checking both naming conventions.
func FindSessionFile(sessionRoot, sessionID string) (string, error) {
	entries, err := os.ReadDir(sessionRoot)
	if err != nil {
		return "", err
	}
	candidates := []string{sessionID + ".jsonl", "agent-" + sessionID + ".jsonl"}
	for _, entry := range entries {
		if !isDirOrDirSymlink(entry, sessionRoot) {
			continue
		}
		projDir := filepath.Join(sessionRoot, entry.Name())
		for _, c := range candidates {
			candidate := filepath.Join(projDir, c)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}
	return "", os.ErrNotExist
}

func isDirOrDirSymlink(entry os.DirEntry, parentDir string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(filepath.Join(parentDir, entry.Name()))
	return err == nil && fi.IsDir()
}
