package download

import (
	"context"

	"github.com/ytget/vdl/internal/config"
	"github.com/ytget/vdl/internal/model"
)

// EventSink receives events in the order they were produced for a session.
// Publish must not block the caller on a slow consumer.
type EventSink interface {
	Publish(event model.Event)
}

// SinkFunc adapts a function to EventSink
type SinkFunc func(event model.Event)

// Publish calls f(event)
func (f SinkFunc) Publish(event model.Event) {
	f(event)
}

// HistoryRecorder persists the outcome of finished sessions
type HistoryRecorder interface {
	Put(record model.SessionRecord) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	AddTask(url string) (*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask
	StopTask(id string) error
	ResumeTask(id string) error
	RemoveTask(id string) error

	// SetOptions replaces the options snapshot handed to tasks added afterwards
	SetOptions(opts config.VideoDownloaderOptions)

	// SetMaxParallelDownloads sets the maximum number of parallel downloads
	SetMaxParallelDownloads(count int)

	// Wait blocks until no task is queued or running
	Wait(ctx context.Context) error

	// Shutdown halts every running task and rejects new ones
	Shutdown()
}
