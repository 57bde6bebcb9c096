package pipeline

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoadLocal(t *testing.T) {
	root := t.TempDir()
	writeStore(t, root, "ses_a", exchange(1000, 3000, "build", "stop", 10, 20, 0.01)...)
	writeStore(t, root, "ses_b", append(exchange(5000, 9000, "plan", "length", 1, 2, 0), `{broken`)...)
	writeStore(t, root, "ses_empty")
	writeStore(t, root, "tmp_ignored", exchange(1, 2, "x", "stop", 1, 1, 0)...)

	var calls atomic.Int64
	res, err := LoadLocal(context.Background(), root, "ses_", time.Now(), func(current, total int) {
		calls.Add(1)
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}

	if res.TotalSessions != 3 {
		t.Errorf("TotalSessions = %d, want 3", res.TotalSessions)
	}
	if len(res.Sessions) != 2 {
		t.Fatalf("Sessions = %d, want 2", len(res.Sessions))
	}
	if res.EmptySessions != 1 || res.SkippedFiles != 1 {
		t.Errorf("EmptySessions = %d SkippedFiles = %d, want 1 and 1", res.EmptySessions, res.SkippedFiles)
	}
	if calls.Load() != 3 {
		t.Errorf("progress calls = %d, want 3", calls.Load())
	}
	if res.Sessions[0].ID != "ses_a" || res.Sessions[0].TotalTokens != 30 {
		t.Errorf("first session = %s with %d tokens", res.Sessions[0].ID, res.Sessions[0].TotalTokens)
	}
}

func TestLoadLocal_MissingDir(t *testing.T) {
	res, err := LoadLocal(context.Background(), filepath.Join(t.TempDir(), "none"), "ses_", time.Now(), nil)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if len(res.Sessions) != 0 {
		t.Errorf("Sessions = %d, want 0", len(res.Sessions))
	}
}

func TestLoadLocal_Canceled(t *testing.T) {
	root := t.TempDir()
	writeStore(t, root, "ses_a", exchange(1000, 3000, "build", "stop", 10, 20, 0.01)...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadLocal(ctx, root, "ses_", time.Now(), nil); err == nil {
		t.Error("expected context error")
	}
}
