package model

import "time"

// SessionRecord is the persisted outcome of one download session
type SessionRecord struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Title      string     `json:"title,omitempty"`
	Status     TaskStatus `json:"status"`
	Labels     []string   `json:"labels,omitempty"`
	ExitCode   int        `json:"exit_code"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}

// NewSessionRecord builds a record from a finished task snapshot
func NewSessionRecord(task *DownloadTask) SessionRecord {
	labels := make([]string, 0, len(task.Rows))
	for _, row := range task.Rows {
		labels = append(labels, row.Label)
	}
	return SessionRecord{
		ID:         task.ID,
		URL:        task.URL,
		Title:      task.Title,
		Status:     task.Status,
		Labels:     labels,
		ExitCode:   task.ExitCode,
		Error:      task.LastError,
		Attempts:   task.Attempts,
		StartedAt:  task.StartedAt,
		FinishedAt: task.FinishedAt,
	}
}
