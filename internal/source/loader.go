// Package source discovers opencode session directories and loads their
// per-message JSON files.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theirongolddev/ocburn/internal/model"
)

// ErrNoSession is returned when a session directory is missing, holds no
// message files, or none of its files decode.
var ErrNoSession = errors.New("source: no session data")

// maxMessageSize bounds a single message file. Larger files are skipped.
const maxMessageSize = 16 << 20

// LoadMessages reads every *.json file in dir. Files that cannot be read or
// decoded are skipped; the result is ErrNoSession if nothing usable remains.
func LoadMessages(dir string) (LoadResult, error) {
	files, err := messageFiles(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LoadResult{}, ErrNoSession
		}
		return LoadResult{}, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(files) == 0 {
		return LoadResult{}, ErrNoSession
	}

	res := LoadResult{
		Files:    len(files),
		Messages: make([]model.Message, 0, len(files)),
	}
	for _, path := range files {
		msg, err := readMessage(path)
		if err != nil {
			res.Skipped++
			slog.Debug("skipping message file", "path", path, "error", err)
			continue
		}
		res.Messages = append(res.Messages, msg)
	}

	if len(res.Messages) == 0 {
		return res, ErrNoSession
	}
	return res, nil
}

func readMessage(path string) (model.Message, error) {
	var msg model.Message

	info, err := os.Stat(path)
	if err != nil {
		return msg, err
	}
	if info.Size() > maxMessageSize {
		return msg, fmt.Errorf("message file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the store listing
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decoding message: %w", err)
	}
	return msg, nil
}

// messageFiles returns the *.json regular files in dir in name order.
func messageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
