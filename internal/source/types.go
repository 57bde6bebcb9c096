package source

import "github.com/theirongolddev/ocburn/internal/model"

// DiscoveredSession is a session directory found during store scanning.
type DiscoveredSession struct {
	ID   string // directory name, e.g. "ses_5f2c..."
	Path string
}

// LoadResult holds the output of loading one session directory.
type LoadResult struct {
	Messages []model.Message
	Files    int // *.json files seen
	Skipped  int // files that could not be read or decoded
}
