// Package ui renders session events in the terminal.
package ui

import (
	"strconv"
	"strings"

	"github.com/ytget/vdl/internal/model"
)

// Display consumes session events. Handle is called from a single goroutine.
type Display interface {
	Handle(e model.Event)
	Close()
}

// Run feeds events to d until the channel is closed, then closes d
func Run(d Display, events <-chan model.Event) {
	for e := range events {
		d.Handle(e)
	}
	d.Close()
}

// parsePercent turns "45.2%" into 45.2. ok is false for anything else.
func parsePercent(percent string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(percent), "%"), 64)
	if err != nil {
		return 0, false
	}
	return min(max(value, 0), 100), true
}

// rowName is how a label row is named next to the session title
func rowName(title, label string) string {
	if title == "" {
		title = "…"
	}
	if label == "" {
		return title
	}
	return title + " [" + label + "]"
}
