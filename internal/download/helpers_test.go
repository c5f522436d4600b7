package download

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/ytget/vdl/internal/model"
)

const (
	eventually = 5 * time.Second
	tick       = 10 * time.Millisecond
)

// fakeYtDlp writes an executable shell script standing in for yt-dlp
func fakeYtDlp(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func testRunner(binary string) *Runner {
	return NewRunner(binary, 200*time.Millisecond, zerolog.Nop())
}

// recordingSink keeps every published event
type recordingSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingSink) Publish(e model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSink) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) Count(kind model.EventKind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func kinds(events []model.Event) []model.EventKind {
	out := make([]model.EventKind, 0, len(events))
	for _, e := range events {
		out = append(out, e.Kind)
	}
	return out
}

// lineCollector gathers lines handed to a LineHandler
type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) handle(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *lineCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}
