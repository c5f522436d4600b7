package download

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ytget/vdl/internal/config"
	"github.com/ytget/vdl/internal/model"
)

// Parallelism bounds
const (
	MinParallelDownloads = 1
	MaxParallelDownloads = 10
)

var _ Downloader = (*Service)(nil)

// Service schedules download sessions under a parallelism limit
type Service struct {
	tasks       map[string]*taskEntry
	order       []string // insertion order
	pending     []string // FIFO of queued task ids
	tasksMutex  sync.RWMutex
	maxParallel int
	activeCount int
	outstanding int           // queued or running tasks
	idle        chan struct{} // closed while outstanding == 0
	closed      bool

	options  config.VideoDownloaderOptions
	runner   *Runner
	sink     EventSink
	history  HistoryRecorder
	onUpdate func(*model.DownloadTask) // callback for UI updates
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

type taskEntry struct {
	task    *model.DownloadTask
	session *Session
	startMu sync.Mutex // serializes spawning against halting
}

func (e *taskEntry) halt() {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	e.session.Halt()
}

// NewService creates a new download service
func NewService(runner *Runner, opts config.VideoDownloaderOptions, maxParallel int, logger zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Service{
		tasks:       make(map[string]*taskEntry),
		maxParallel: clampParallel(maxParallel),
		idle:        idle,
		options:     opts,
		runner:      runner,
		logger:      logger.With().Str("component", "service").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.onUpdate = callback
}

// SetSink forwards every session event to sink
func (s *Service) SetSink(sink EventSink) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.sink = sink
}

// SetHistory records finished tasks in h
func (s *Service) SetHistory(h HistoryRecorder) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.history = h
}

// SetOptions replaces the options snapshot handed to tasks added afterwards
func (s *Service) SetOptions(opts config.VideoDownloaderOptions) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.options = opts
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Service) SetMaxParallelDownloads(count int) {
	s.tasksMutex.Lock()
	s.maxParallel = clampParallel(count)
	s.tasksMutex.Unlock()

	s.schedule()
}

// AddTask queues a download of url and starts it when a slot is free
func (s *Service) AddTask(url string) (*model.DownloadTask, error) {
	s.tasksMutex.Lock()

	if s.closed {
		s.tasksMutex.Unlock()
		return nil, ErrServiceClosed
	}

	// Check for duplicate URLs
	for _, entry := range s.tasks {
		if entry.task.URL == url && !entry.task.Status.IsFinished() {
			s.tasksMutex.Unlock()
			return nil, fmt.Errorf("%w for URL: %s", ErrDuplicateTask, url)
		}
	}

	task := &model.DownloadTask{
		ID:        generateTaskID(),
		URL:       url,
		Status:    model.TaskStatusPending,
		StartedAt: time.Now(),
	}
	entry := &taskEntry{task: task}
	entry.session = NewSession(task.ID, url, s.options, s.runner, SinkFunc(func(e model.Event) {
		s.handleEvent(entry, e)
	}), s.logger)

	s.tasks[task.ID] = entry
	s.order = append(s.order, task.ID)
	s.enqueueLocked(task.ID)
	snapshot := task.Clone()
	s.tasksMutex.Unlock()

	s.logger.Info().Str("task_id", task.ID).Str("url", url).Msg("task added")
	s.notifyUpdate(snapshot)
	s.schedule()

	return snapshot, nil
}

// GetTask returns a snapshot of a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	entry, exists := s.tasks[id]
	if !exists {
		return nil, false
	}
	return entry.task.Clone(), true
}

// GetAllTasks returns snapshots of all tasks in the order they were added
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id].task.Clone())
	}
	return tasks
}

// StopTask stops a running or queued task. It returns once the task is stopped.
func (s *Service) StopTask(id string) error {
	s.tasksMutex.Lock()

	entry, exists := s.tasks[id]
	if !exists {
		s.tasksMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	task := entry.task
	if task.Status == model.TaskStatusPending {
		s.dequeueLocked(id)
		task.Status = model.TaskStatusStopped
		task.FinishedAt = time.Now()
		snapshot := task.Clone()
		s.tasksMutex.Unlock()

		s.finish(snapshot)
		return nil
	}

	if !task.Status.IsActive() {
		s.tasksMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotActive, task.Status)
	}

	// Set stopping status
	task.Status = model.TaskStatusStopping
	snapshot := task.Clone()
	s.tasksMutex.Unlock()

	s.notifyUpdate(snapshot)

	// The stopped event finishes the task before halt returns
	entry.halt()
	return nil
}

// ResumeTask queues a stopped or failed task again. Its label rows are kept.
func (s *Service) ResumeTask(id string) error {
	s.tasksMutex.Lock()

	entry, exists := s.tasks[id]
	if !exists {
		s.tasksMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if s.closed {
		s.tasksMutex.Unlock()
		return ErrServiceClosed
	}

	task := entry.task
	if !task.Status.CanResume() {
		s.tasksMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotResumable, task.Status)
	}

	task.Status = model.TaskStatusPending
	task.LastError = ""
	task.FinishedAt = time.Time{}
	s.enqueueLocked(id)
	snapshot := task.Clone()
	s.tasksMutex.Unlock()

	s.notifyUpdate(snapshot)
	s.schedule()
	return nil
}

// RemoveTask stops a task if needed and forgets it
func (s *Service) RemoveTask(id string) error {
	s.tasksMutex.RLock()
	entry, exists := s.tasks[id]
	var status model.TaskStatus
	if exists {
		status = entry.task.Status
	}
	s.tasksMutex.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	if status == model.TaskStatusPending || status.IsActive() {
		if err := s.StopTask(id); err != nil {
			return err
		}
	}

	s.tasksMutex.Lock()
	delete(s.tasks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.tasksMutex.Unlock()

	return nil
}

// Wait blocks until no task is queued or running
func (s *Service) Wait(ctx context.Context) error {
	s.tasksMutex.RLock()
	idle := s.idle
	s.tasksMutex.RUnlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops queued tasks, halts running ones and rejects new tasks
func (s *Service) Shutdown() {
	s.tasksMutex.Lock()
	s.closed = true

	var stopped []*model.DownloadTask
	for _, id := range s.pending {
		entry, exists := s.tasks[id]
		if !exists || entry.task.Status != model.TaskStatusPending {
			continue
		}
		entry.task.Status = model.TaskStatusStopped
		entry.task.FinishedAt = time.Now()
		stopped = append(stopped, entry.task.Clone())
	}
	s.pending = nil

	var running []*taskEntry
	for _, id := range s.order {
		entry := s.tasks[id]
		if entry.task.Status.IsActive() {
			entry.task.Status = model.TaskStatusStopping
			running = append(running, entry)
		}
	}
	s.tasksMutex.Unlock()

	for _, snapshot := range stopped {
		s.finish(snapshot)
	}

	var wg sync.WaitGroup
	for _, entry := range running {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry.halt()
		}()
	}
	wg.Wait()

	s.cancel()
}

// schedule starts pending tasks while slots are free
func (s *Service) schedule() {
	s.tasksMutex.Lock()
	var starting []*taskEntry
	for !s.closed && s.activeCount < s.maxParallel && len(s.pending) > 0 {
		id := s.pending[0]
		s.pending = s.pending[1:]

		entry, exists := s.tasks[id]
		if !exists || entry.task.Status != model.TaskStatusPending {
			continue
		}
		entry.task.Status = model.TaskStatusStarting
		s.activeCount++
		starting = append(starting, entry)
	}
	s.tasksMutex.Unlock()

	for _, entry := range starting {
		go s.startTask(entry)
	}
}

// startTask spawns the subprocess of a task unless it was stopped while waiting for its slot
func (s *Service) startTask(entry *taskEntry) {
	entry.startMu.Lock()
	defer entry.startMu.Unlock()

	s.tasksMutex.Lock()
	task := entry.task
	if task.Status == model.TaskStatusStopping {
		task.Status = model.TaskStatusStopped
		task.FinishedAt = time.Now()
		s.activeCount--
		snapshot := task.Clone()
		s.tasksMutex.Unlock()

		s.finish(snapshot)
		go s.schedule()
		return
	}
	task.Status = model.TaskStatusDownloading
	task.Attempts++
	snapshot := task.Clone()
	s.tasksMutex.Unlock()

	s.notifyUpdate(snapshot)

	err := entry.session.Start(s.ctx)
	if err == nil {
		return
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.ExitCode = -1
	task.FinishedAt = time.Now()
	s.activeCount--
	snapshot = task.Clone()
	sink := s.sink
	s.tasksMutex.Unlock()

	if sink != nil {
		sink.Publish(model.Event{
			SessionID: task.ID,
			Kind:      model.EventStopped,
			Time:      time.Now(),
			ExitCode:  -1,
			Error:     err.Error(),
		})
	}
	s.finish(snapshot)
	go s.schedule()
}

// handleEvent folds a session event into its task and forwards it
func (s *Service) handleEvent(entry *taskEntry, e model.Event) {
	s.tasksMutex.Lock()
	task := entry.task
	task.ApplyEvent(e)

	if e.IsTerminal() {
		switch {
		case e.Cancelled:
			task.Status = model.TaskStatusStopped
		case e.Completed:
			task.Status = model.TaskStatusCompleted
		default:
			task.Status = model.TaskStatusError
			if task.LastError == "" {
				task.LastError = fmt.Sprintf("yt-dlp exited with status %d", e.ExitCode)
			}
		}
		task.FinishedAt = time.Now()
		s.activeCount--
	}
	snapshot := task.Clone()
	sink := s.sink
	s.tasksMutex.Unlock()

	if sink != nil {
		sink.Publish(e)
	}

	if !e.IsTerminal() {
		s.notifyUpdate(snapshot)
		return
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("status", snapshot.Status.String()).
		Msg("task finished")
	s.finish(snapshot)
	s.schedule()
}

func (s *Service) enqueueLocked(id string) {
	s.pending = append(s.pending, id)
	if s.outstanding == 0 {
		s.idle = make(chan struct{})
	}
	s.outstanding++
}

func (s *Service) dequeueLocked(id string) {
	s.pending = slices.DeleteFunc(s.pending, func(v string) bool { return v == id })
}

// finish reports a task that reached a terminal status and releases its
// outstanding slot, so Wait returns only after history and callbacks saw it
func (s *Service) finish(snapshot *model.DownloadTask) {
	s.notifyUpdate(snapshot)
	s.record(snapshot)

	s.tasksMutex.Lock()
	s.outstanding--
	if s.outstanding == 0 {
		close(s.idle)
	}
	s.tasksMutex.Unlock()
}

func (s *Service) record(task *model.DownloadTask) {
	s.tasksMutex.RLock()
	history := s.history
	s.tasksMutex.RUnlock()

	if history == nil {
		return
	}
	if err := history.Put(model.NewSessionRecord(task)); err != nil {
		s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("failed to record history")
	}
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	s.tasksMutex.RLock()
	onUpdate := s.onUpdate
	s.tasksMutex.RUnlock()

	if onUpdate != nil {
		onUpdate(task)
	}
}

func clampParallel(count int) int {
	if count < MinParallelDownloads {
		return MinParallelDownloads
	}
	if count > MaxParallelDownloads {
		return MaxParallelDownloads
	}
	return count
}

// generateTaskID returns a time-ordered unique task ID
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
