package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/ytget/vdl/internal/model"
)

func withoutColor(t *testing.T) {
	t.Helper()
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })
}

func TestPrinter(t *testing.T) {
	withoutColor(t)

	var buf bytes.Buffer
	events := make(chan model.Event, 8)
	events <- model.Event{SessionID: "s1", Kind: model.EventReset, Label: "1", PlaylistCurrent: 1, PlaylistMax: 2}
	events <- model.Event{SessionID: "s1", Kind: model.EventTitle, Title: "Clip"}
	events <- model.Event{SessionID: "s1", Kind: model.EventProgress, Label: "140", Progress: model.ProgressRecord{
		Label: "140", Percent: "45.2%", Size: "10.00MiB", Rate: "1.50MiB/s", ETA: "00:07",
	}}
	events <- model.Event{SessionID: "s1", Kind: model.EventCompleted, Label: ""}
	events <- model.Event{SessionID: "s1", Kind: model.EventStopped, Completed: true}
	close(events)

	Run(NewPrinter(&buf), events)

	assert.Equal(t, "● playlist item 1 of 2\n"+
		"▶ Clip\n"+
		"  [140] 45.2% 10.00MiB 1.50MiB/s ETA 00:07\n"+
		"  [-] already downloaded\n"+
		"✔ Clip\n", buf.String())
}

func TestSummaryLine(t *testing.T) {
	withoutColor(t)

	tests := []struct {
		name     string
		title    string
		event    model.Event
		expected string
	}{
		{"completed", "Clip", model.Event{Completed: true}, "✔ Clip"},
		{"cancelled", "Clip", model.Event{Cancelled: true}, "■ Clip (stopped)"},
		{"error", "Clip", model.Event{ExitCode: 1, Error: "Video unavailable"}, "✘ Clip: Video unavailable"},
		{"exit code", "Clip", model.Event{ExitCode: 2}, "✘ Clip: exit status 2"},
		{"no title", "", model.Event{SessionID: "s9", Completed: true}, "✔ s9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, summaryLine(tt.title, tt.event))
		})
	}
}
