package download

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when no task has the given id
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotActive is returned when stopping a task that is not running or queued
	ErrTaskNotActive = errors.New("task is not active")

	// ErrTaskNotResumable is returned when resuming a task that did not stop or fail
	ErrTaskNotResumable = errors.New("task cannot be resumed")

	// ErrDuplicateTask is returned when the URL already has an unfinished task
	ErrDuplicateTask = errors.New("task already exists")

	// ErrServiceClosed is returned by AddTask after Shutdown
	ErrServiceClosed = errors.New("download service is shut down")
)

// SpawnError reports that the yt-dlp binary could not be located or executed.
// No handle exists when it is returned.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// StreamDecodeError reports an output line that is not valid UTF-8.
// The line is skipped and the session keeps running.
type StreamDecodeError struct {
	Stream string
	Line   []byte
}

func (e *StreamDecodeError) Error() string {
	return fmt.Sprintf("undecodable line on %s: %q", e.Stream, e.Line)
}
