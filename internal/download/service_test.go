package download

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ytget/vdl/internal/config"
	"github.com/ytget/vdl/internal/model"
)

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Put(record model.SessionRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

const sleepingScript = `
echo '[download] Destination: /tmp/Slow.mp4'
exec sleep 30
`

func newTestService(t *testing.T, binary string, maxParallel int) *Service {
	t.Helper()
	s := NewService(testRunner(binary), config.DefaultOptions(), maxParallel, zerolog.Nop())
	t.Cleanup(s.Shutdown)
	return s
}

func waitIdle(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventually)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func statusOf(s *Service, id string) model.TaskStatus {
	task, ok := s.GetTask(id)
	if !ok {
		return ""
	}
	return task.Status
}

func TestNewService(t *testing.T) {
	service := newTestService(t, "yt-dlp", 2)

	assert.Equal(t, 2, service.maxParallel)
	assert.Empty(t, service.GetAllTasks())

	service.SetMaxParallelDownloads(0)
	assert.Equal(t, 1, service.maxParallel)
	service.SetMaxParallelDownloads(50)
	assert.Equal(t, 10, service.maxParallel)
}

func TestAddTaskCompletes(t *testing.T) {
	bin := fakeYtDlp(t, endToEndScript)
	service := newTestService(t, bin, 2)

	history := &mockHistory{}
	history.On("Put", mock.MatchedBy(func(r model.SessionRecord) bool {
		return r.Status == model.TaskStatusCompleted && r.Title == "My Title"
	})).Return(nil).Once()
	service.SetHistory(history)

	sink := &recordingSink{}
	service.SetSink(sink)

	var mu sync.Mutex
	var statuses []model.TaskStatus
	service.SetUpdateCallback(func(task *model.DownloadTask) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, task.Status)
	})

	task, err := service.AddTask("https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)

	_, err = uuid.Parse(task.ID)
	assert.NoError(t, err, "task ids are UUIDs")

	waitIdle(t, service)

	got, ok := service.GetTask(task.ID)
	require.True(t, ok)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
	assert.Equal(t, "My Title", got.Title)
	assert.Equal(t, 1, got.Attempts)
	assert.False(t, got.FinishedAt.IsZero())

	row, ok := got.Row("140")
	require.True(t, ok)
	assert.Equal(t, model.PercentComplete, row.Percent)

	assert.Equal(t, 1, sink.Count(model.EventStopped))
	history.AssertExpectations(t)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, statuses)
	assert.Equal(t, model.TaskStatusPending, statuses[0])
	assert.Equal(t, model.TaskStatusCompleted, statuses[len(statuses)-1])
}

func TestAddTaskDuplicate(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := newTestService(t, bin, 1)

	_, err := service.AddTask("https://youtube.com/watch?v=test1")
	require.NoError(t, err)

	_, err = service.AddTask("https://youtube.com/watch?v=test1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTask))

	_, err = service.AddTask("https://youtube.com/watch?v=test2")
	assert.NoError(t, err)
}

func TestParallelLimitAndStop(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := newTestService(t, bin, 1)

	first, err := service.AddTask("https://youtube.com/watch?v=first")
	require.NoError(t, err)
	second, err := service.AddTask("https://youtube.com/watch?v=second")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, _ := service.GetTask(first.ID)
		return task.Status == model.TaskStatusDownloading && task.Title == "Slow"
	}, eventually, tick)
	assert.Equal(t, model.TaskStatusPending, statusOf(service, second.ID))

	// a queued task stops without ever running
	require.NoError(t, service.StopTask(second.ID))
	assert.Equal(t, model.TaskStatusStopped, statusOf(service, second.ID))

	require.NoError(t, service.StopTask(first.ID))
	assert.Equal(t, model.TaskStatusStopped, statusOf(service, first.ID))

	waitIdle(t, service)

	task, _ := service.GetTask(second.ID)
	assert.Equal(t, 0, task.Attempts)
}

func TestStoppedTaskFreesSlot(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := newTestService(t, bin, 1)

	first, err := service.AddTask("https://youtube.com/watch?v=first")
	require.NoError(t, err)
	second, err := service.AddTask("https://youtube.com/watch?v=second")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return statusOf(service, first.ID) == model.TaskStatusDownloading
	}, eventually, tick)

	require.NoError(t, service.StopTask(first.ID))

	require.Eventually(t, func() bool {
		return statusOf(service, second.ID) == model.TaskStatusDownloading
	}, eventually, tick)
}

func TestTaskErrorAndResume(t *testing.T) {
	bin := fakeYtDlp(t, `
echo 'ERROR: [youtube] abc: Video unavailable' >&2
exit 1
`)
	service := newTestService(t, bin, 1)

	task, err := service.AddTask("https://youtube.com/watch?v=abc")
	require.NoError(t, err)
	waitIdle(t, service)

	got, _ := service.GetTask(task.ID)
	assert.Equal(t, model.TaskStatusError, got.Status)
	assert.Equal(t, "[youtube] abc: Video unavailable", got.LastError)
	assert.Equal(t, 1, got.ExitCode)

	require.NoError(t, service.ResumeTask(task.ID))
	waitIdle(t, service)

	got, _ = service.GetTask(task.ID)
	assert.Equal(t, model.TaskStatusError, got.Status)
	assert.Equal(t, 2, got.Attempts)
}

func TestTaskExitCodeWithoutStderr(t *testing.T) {
	bin := fakeYtDlp(t, `exit 2`)
	service := newTestService(t, bin, 1)

	task, err := service.AddTask("abc")
	require.NoError(t, err)
	waitIdle(t, service)

	got, _ := service.GetTask(task.ID)
	assert.Equal(t, model.TaskStatusError, got.Status)
	assert.Equal(t, "yt-dlp exited with status 2", got.LastError)
}

func TestTaskSpawnError(t *testing.T) {
	service := newTestService(t, filepath.Join(t.TempDir(), "missing"), 1)
	sink := &recordingSink{}
	service.SetSink(sink)

	history := &mockHistory{}
	history.On("Put", mock.AnythingOfType("model.SessionRecord")).Return(errors.New("disk full")).Once()
	service.SetHistory(history)

	task, err := service.AddTask("abc")
	require.NoError(t, err)
	waitIdle(t, service)

	got, _ := service.GetTask(task.ID)
	assert.Equal(t, model.TaskStatusError, got.Status)
	assert.Contains(t, got.LastError, "failed to spawn")

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventStopped, events[0].Kind)
	assert.Contains(t, events[0].Error, "failed to spawn")
	history.AssertExpectations(t)
}

func TestTaskStateErrors(t *testing.T) {
	bin := fakeYtDlp(t, `exit 0`)
	service := newTestService(t, bin, 1)

	assert.True(t, errors.Is(service.StopTask("missing"), ErrTaskNotFound))
	assert.True(t, errors.Is(service.ResumeTask("missing"), ErrTaskNotFound))
	assert.True(t, errors.Is(service.RemoveTask("missing"), ErrTaskNotFound))

	task, err := service.AddTask("abc")
	require.NoError(t, err)
	waitIdle(t, service)

	require.Equal(t, model.TaskStatusCompleted, statusOf(service, task.ID))
	assert.True(t, errors.Is(service.StopTask(task.ID), ErrTaskNotActive))
	assert.True(t, errors.Is(service.ResumeTask(task.ID), ErrTaskNotResumable))
}

func TestRemoveTask(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := newTestService(t, bin, 1)

	task, err := service.AddTask("https://youtube.com/watch?v=abc")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return statusOf(service, task.ID) == model.TaskStatusDownloading
	}, eventually, tick)

	require.NoError(t, service.RemoveTask(task.ID))

	_, exists := service.GetTask(task.ID)
	assert.False(t, exists)
	assert.Empty(t, service.GetAllTasks())
	waitIdle(t, service)

	// the URL is free again
	_, err = service.AddTask("https://youtube.com/watch?v=abc")
	assert.NoError(t, err)
}

func TestGetAllTasksOrder(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := newTestService(t, bin, 1)

	urls := []string{"https://a", "https://b", "https://c"}
	for _, url := range urls {
		_, err := service.AddTask(url)
		require.NoError(t, err)
	}

	tasks := service.GetAllTasks()
	require.Len(t, tasks, 3)
	for i, task := range tasks {
		assert.Equal(t, urls[i], task.URL)
	}
}

func TestShutdown(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := NewService(testRunner(bin), config.DefaultOptions(), 1, zerolog.Nop())

	running, err := service.AddTask("https://a")
	require.NoError(t, err)
	queued, err := service.AddTask("https://b")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return statusOf(service, running.ID) == model.TaskStatusDownloading
	}, eventually, tick)

	service.Shutdown()
	waitIdle(t, service)

	assert.Equal(t, model.TaskStatusStopped, statusOf(service, running.ID))
	assert.Equal(t, model.TaskStatusStopped, statusOf(service, queued.ID))

	_, err = service.AddTask("https://c")
	assert.True(t, errors.Is(err, ErrServiceClosed))
}

func TestWaitHonorsContext(t *testing.T) {
	bin := fakeYtDlp(t, sleepingScript)
	service := newTestService(t, bin, 1)

	_, err := service.AddTask("https://a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, service.Wait(ctx), context.DeadlineExceeded)
}
