package model

// TaskStatus represents the status of a download session
type TaskStatus string

const (
	// TaskStatusPending means the task is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusStarting means the subprocess is being spawned
	TaskStatusStarting TaskStatus = "Starting"

	// TaskStatusDownloading means the subprocess is alive and its output is consumed
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusStopping means a cancel was requested and the process is being killed
	TaskStatusStopping TaskStatus = "Stopping"

	// TaskStatusStopped means the task was stopped by user
	TaskStatusStopped TaskStatus = "Stopped"

	// TaskStatusCompleted means the subprocess exited with status 0
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the binary could not be spawned or exited with a non-zero status
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the task is in an active state
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusStarting || ts == TaskStatusDownloading || ts == TaskStatusStopping
}

// IsFinished returns true if the task is in a finished state (completed, stopped, or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusStopped || ts == TaskStatusError
}

// CanResume reports whether a fresh invocation may be started from this state.
func (ts TaskStatus) CanResume() bool {
	return ts == TaskStatusStopped || ts == TaskStatusError
}
