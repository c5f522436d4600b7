package model

import "time"

// EventKind identifies what an Event reports
type EventKind string

const (
	// EventTitle announces the human-readable title of the item being downloaded
	EventTitle EventKind = "title"

	// EventProgress carries the merged progress row of one label
	EventProgress EventKind = "progress"

	// EventReset tells observers a new playlist item started and all rows are gone
	EventReset EventKind = "reset"

	// EventCompleted reports a label that yt-dlp found already downloaded
	EventCompleted EventKind = "completed"

	// EventStopped is the single terminal event of one subprocess invocation
	EventStopped EventKind = "stopped"
)

// Event is one structured update published to observers.
// Only the fields relevant to Kind are set.
type Event struct {
	SessionID string    `json:"session_id"`
	Kind      EventKind `json:"kind"`
	Time      time.Time `json:"time"`

	// Title
	Title string `json:"title,omitempty"`

	// Progress, Completed, Reset and Stopped
	Label    string         `json:"label,omitempty"`
	Progress ProgressRecord `json:"progress"`

	// Reset
	PlaylistCurrent int `json:"playlist_current,omitempty"`
	PlaylistMax     int `json:"playlist_max,omitempty"`

	// Stopped
	Completed bool   `json:"completed,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	ExitCode  int    `json:"exit_code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// IsTerminal reports whether the event ends a subprocess invocation
func (e Event) IsTerminal() bool {
	return e.Kind == EventStopped
}
