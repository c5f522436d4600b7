package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/ytget/vdl/internal/config"
	"github.com/ytget/vdl/internal/download"
	"github.com/ytget/vdl/internal/history"
	"github.com/ytget/vdl/internal/logging"
	"github.com/ytget/vdl/internal/model"
	"github.com/ytget/vdl/internal/platform"
	"github.com/ytget/vdl/internal/ui"
)

// ErrInterrupted is returned when a signal stopped the downloads
var ErrInterrupted = errors.New("interrupted")

// App holds the state shared by the commands of one vdl invocation
type App struct {
	Settings *config.Settings
	Logger   zerolog.Logger

	logOut io.Writer
}

func newApp(settings *config.Settings, logOut io.Writer) *App {
	a := &App{Settings: settings, logOut: logOut}
	a.Logger = a.newLogger(logOut)
	return a
}

func (a *App) newLogger(w io.Writer) zerolog.Logger {
	cfg := logging.NewConfig(a.Settings.GetLogLevel(), a.Settings.GetLogFormat())
	return logging.New(cfg, w)
}

// openHistory opens the configured store, or an in-memory one when the file is unavailable
func (a *App) openHistory(logger zerolog.Logger) *history.Store {
	path := a.Settings.GetHistoryPath()
	store, err := history.Open(path)
	if err == nil {
		return store
	}

	logger.Warn().Err(err).Str("path", path).Msg("history unavailable, keeping it in memory")
	store, _ = history.Open("")
	return store
}

// Download runs one session per URL until all of them finished or a signal arrived.
// Progress goes to out, as bars when out is a terminal and plain is false.
func (a *App) Download(ctx context.Context, urls []string, out io.Writer, plain bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var display ui.Display
	logOut := a.logOut
	if plain || !isTerminal(out) {
		display = ui.NewPrinter(out)
	} else {
		renderer := ui.NewRenderer(out)
		logOut = renderer.Writer()
		display = renderer
	}
	logger := a.newLogger(logOut)

	opts := a.Settings.GetDownloaderOptions()
	if err := platform.CreateDirectoryIfNotExists(opts.OutputPath); err != nil {
		logger.Warn().Err(err).Str("dir", opts.OutputPath).Msg("failed to ensure download directory")
	}

	store := a.openHistory(logger)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close history")
		}
	}()

	runner := download.NewRunner(a.Settings.GetBinary(), a.Settings.GetKillWaitDelay(), logger)
	svc := download.NewService(runner, opts, a.Settings.GetMaxParallelDownloads(), logger)
	queue := download.NewEventQueue()
	svc.SetSink(queue)
	svc.SetHistory(store)
	svc.SetUpdateCallback(func(task *model.DownloadTask) {
		logger.Debug().Str("task_id", task.ID).Str("status", task.Status.String()).Msg("task updated")
	})

	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		ui.Run(display, queue.Events())
	}()

	for _, url := range urls {
		if _, err := svc.AddTask(url); err != nil {
			logger.Warn().Err(err).Str("url", url).Msg("skipping URL")
		}
	}

	waitErr := svc.Wait(ctx)
	if waitErr != nil {
		logger.Info().Msg("stopping downloads")
	}
	svc.Shutdown()
	queue.Close()
	<-rendered

	if waitErr != nil {
		return ErrInterrupted
	}
	return failures(svc.GetAllTasks())
}

// ListFormats copies what yt-dlp lists for url to out
func (a *App) ListFormats(ctx context.Context, url string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lastError string
	runner := download.NewRunner(a.Settings.GetBinary(), a.Settings.GetKillWaitDelay(), a.Logger)
	handle, err := runner.Start(ctx, url, []string{download.ListFormatsFlag},
		func(line string) {
			fmt.Fprintln(out, line)
		},
		func(line string) {
			if strings.HasPrefix(line, download.StderrErrorPrefix) {
				lastError = strings.TrimSpace(strings.TrimPrefix(line, download.StderrErrorPrefix))
			}
			a.Logger.Debug().Str("stream", download.StreamStderr).Msg(line)
		})
	if err != nil {
		return err
	}

	status := handle.Wait()
	switch {
	case ctx.Err() != nil:
		return ErrInterrupted
	case status.Success():
		return nil
	case lastError != "":
		return fmt.Errorf("failed to list formats: %s", lastError)
	default:
		return fmt.Errorf("failed to list formats: yt-dlp exited with status %d", status.Code)
	}
}

func failures(tasks []*model.DownloadTask) error {
	failed := 0
	for _, task := range tasks {
		if task.Status == model.TaskStatusError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(tasks))
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
