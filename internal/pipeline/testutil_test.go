package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeStore creates a session directory under root with one JSON file per
// message body.
func writeStore(t testing.TB, root, id string, messages ...string) {
	t.Helper()
	dir := filepath.Join(root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for i, body := range messages {
		name := fmt.Sprintf("msg_%03d.json", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

// exchange returns a user prompt and a completed assistant reply.
func exchange(created, completed int64, agent, finish string, input, output int64, cost float64) []string {
	return []string{
		fmt.Sprintf(`{"role":"user","time":{"created":%d},"agent":%q}`, created, agent),
		fmt.Sprintf(`{"role":"assistant","time":{"created":%d,"completed":%d},"agent":%q,"modelID":"claude-sonnet-4","providerID":"anthropic","finish":%q,"tokens":{"input":%d,"output":%d,"cache":{"read":0,"write":0}},"cost":%g}`,
			created, completed, agent, finish, input, output, cost),
	}
}
