package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/ocburn/internal/model"
	"github.com/theirongolddev/ocburn/internal/source"
	"github.com/theirongolddev/ocburn/internal/stats"
)

// LoadResult holds the output of loading one machine's session store.
type LoadResult struct {
	Sessions      []model.SessionStats
	TotalSessions int // session directories discovered
	EmptySessions int // directories with no usable message file
	SkippedFiles  int // message files that failed to read or decode
	FileErrors    int // directories that could not be listed
}

// ProgressFunc is called during loading to report progress.
// current is the number of sessions processed so far, total is the total count.
type ProgressFunc func(current, total int)

type loadSlot struct {
	stats   model.SessionStats
	ok      bool
	skipped int
	empty   bool
	err     error
}

// LoadLocal discovers session directories under dir and reduces each to its
// statistics using a bounded worker pool. A missing dir yields an empty
// result; any other listing failure is returned. Sessions come back in
// directory order; callers sort.
func LoadLocal(ctx context.Context, dir, prefix string, now time.Time, progressFn ProgressFunc) (*LoadResult, error) {
	sessions, err := source.ScanDir(dir, prefix)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(sessions) {
		numWorkers = len(sessions)
	}

	work := make(chan int, len(sessions))
	results := make([]loadSlot, len(sessions))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range sessions {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				results[idx] = loadSession(sessions[idx], now)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(sessions))
				}
			}
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range results {
		result.SkippedFiles += r.skipped
		switch {
		case r.err != nil:
			result.FileErrors++
		case r.empty:
			result.EmptySessions++
		case r.ok:
			result.Sessions = append(result.Sessions, r.stats)
		}
	}

	return result, nil
}

func loadSession(ds source.DiscoveredSession, now time.Time) loadSlot {
	lr, err := source.LoadMessages(ds.Path)
	if errors.Is(err, source.ErrNoSession) {
		return loadSlot{empty: true, skipped: lr.Skipped}
	}
	if err != nil {
		slog.Warn("skipping session", "path", ds.Path, "error", err)
		return loadSlot{err: err}
	}
	s, ok := stats.Calculate(ds.ID, lr.Messages, now)
	return loadSlot{stats: s, ok: ok, empty: !ok, skipped: lr.Skipped}
}
