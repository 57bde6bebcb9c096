package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir lists session directories directly under root whose names start
// with prefix. A missing root yields no sessions and no error; any other
// listing failure is returned.
func ScanDir(root, prefix string) ([]DiscoveredSession, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	var sessions []DiscoveredSession
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		path := filepath.Join(root, name)
		if !isDir(e, path) {
			continue
		}
		sessions = append(sessions, DiscoveredSession{ID: name, Path: path})
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

// isDir follows symlinks, which DirEntry.IsDir does not.
func isDir(e os.DirEntry, path string) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CountMessages returns the number of message files across sessions without
// decoding them.
func CountMessages(sessions []DiscoveredSession) int {
	n := 0
	for _, s := range sessions {
		files, _ := messageFiles(s.Path)
		n += len(files)
	}
	return n
}
