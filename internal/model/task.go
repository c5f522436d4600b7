package model

import (
	"strings"
	"time"
)

// DownloadTask is a snapshot of one download session as the service tracks it
type DownloadTask struct {
	ID              string
	URL             string
	Status          TaskStatus
	Title           string           // video title, from the destination line
	Rows            []ProgressRecord // label rows in display order
	PlaylistCurrent int              // 1-based index of the playlist item, 0 outside playlists
	PlaylistMax     int
	LastError       string    // last error message if any
	ExitCode        int       // exit status of the last invocation
	Attempts        int       // number of subprocess invocations so far
	StartedAt       time.Time // when download started
	FinishedAt      time.Time // when download finished
}

// Clone returns a deep copy safe to hand to another goroutine
func (dt *DownloadTask) Clone() *DownloadTask {
	c := *dt
	c.Rows = make([]ProgressRecord, len(dt.Rows))
	copy(c.Rows, dt.Rows)
	return &c
}

// Row returns the row for label
func (dt *DownloadTask) Row(label string) (ProgressRecord, bool) {
	for _, row := range dt.Rows {
		if row.Label == label {
			return row, true
		}
	}
	return ProgressRecord{}, false
}

// ApplyEvent folds one event into the snapshot
func (dt *DownloadTask) ApplyEvent(e Event) {
	switch e.Kind {
	case EventTitle:
		dt.Title = e.Title
	case EventProgress:
		for i := range dt.Rows {
			if dt.Rows[i].Label == e.Progress.Label {
				dt.Rows[i] = e.Progress
				return
			}
		}
		dt.Rows = append(dt.Rows, e.Progress)
	case EventReset:
		dt.Rows = nil
		dt.PlaylistCurrent = e.PlaylistCurrent
		dt.PlaylistMax = e.PlaylistMax
	case EventStopped:
		dt.ExitCode = e.ExitCode
		if e.Error != "" {
			dt.LastError = e.Error
		}
	}
}

// GetDisplayTitle returns title or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	// First priority: video title (non-URL)
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}
	return dt.URL
}
