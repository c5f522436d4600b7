package download

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/ytget/vdl/internal/platform"
	"golang.org/x/sync/errgroup"
)

// NewlineFlag makes yt-dlp print every progress update on its own line
const NewlineFlag = "--newline"

// ListFormatsFlag makes yt-dlp print the available formats instead of downloading
const ListFormatsFlag = "-F"

// Stream names used in logs and decode errors
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// DefaultWaitDelay bounds how long Wait waits for the output pipes after the process exited
const DefaultWaitDelay = 5 * time.Second

// LineHandler receives one decoded line without its terminator
type LineHandler func(line string)

// ExitStatus is how a subprocess ended. Code is -1 when it was killed by a signal.
type ExitStatus struct {
	Code int
	Err  error
}

// Success reports a zero exit status
func (s ExitStatus) Success() bool {
	return s.Err == nil && s.Code == 0
}

// Runner spawns yt-dlp and drains its output
type Runner struct {
	binary    string
	waitDelay time.Duration
	logger    zerolog.Logger
}

// NewRunner creates a runner for binary, resolved through PATH when it has no separator
func NewRunner(binary string, waitDelay time.Duration, logger zerolog.Logger) *Runner {
	if binary == "" {
		binary = platform.DefaultBinary
	}
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}
	return &Runner{
		binary:    binary,
		waitDelay: waitDelay,
		logger:    logger.With().Str("component", "runner").Logger(),
	}
}

// Binary returns the configured executable
func (r *Runner) Binary() string {
	return r.binary
}

// Start spawns `<binary> --newline <flags...> <ref>` and returns without
// waiting. stdout and stderr lines are delivered to their handlers from two
// goroutines, each in read order. Cancelling ctx kills the process.
func (r *Runner) Start(ctx context.Context, ref string, flags []string, stdout, stderr LineHandler) (*Handle, error) {
	path, err := platform.LookupBinary(r.binary)
	if err != nil {
		return nil, &SpawnError{Binary: r.binary, Err: err}
	}

	args := make([]string, 0, len(flags)+2)
	args = append(args, NewlineFlag)
	args = append(args, flags...)
	args = append(args, ref)

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.WaitDelay = r.waitDelay

	if err := cmd.Start(); err != nil {
		_ = stdoutW.Close()
		_ = stderrW.Close()
		return nil, &SpawnError{Binary: r.binary, Err: err}
	}

	logger := r.logger.With().Int("pid", cmd.Process.Pid).Logger()
	logger.Debug().Strs("args", args).Msg("process started")

	h := &Handle{
		cmd:    cmd,
		done:   make(chan struct{}),
		logger: logger,
	}

	var group errgroup.Group
	group.Go(func() error {
		return readLines(stdoutR, StreamStdout, stdout, logger)
	})
	group.Go(func() error {
		return readLines(stderrR, StreamStderr, stderr, logger)
	})
	group.Go(func() error {
		err := cmd.Wait()
		_ = stdoutW.Close()
		_ = stderrW.Close()
		h.status = exitStatus(cmd, err, logger)
		return nil
	})

	go func() {
		if err := group.Wait(); err != nil {
			logger.Warn().Err(err).Msg("output reader failed")
		}
		logger.Debug().Int("exit_code", h.status.Code).Msg("process finished")
		close(h.done)
	}()

	return h, nil
}

// Handle is one live yt-dlp process
type Handle struct {
	cmd      *exec.Cmd
	done     chan struct{}
	status   ExitStatus
	killOnce sync.Once
	logger   zerolog.Logger
}

// Pid returns the process id
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Done is closed once the process was reaped and both streams were drained
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until Done and returns the exit status
func (h *Handle) Wait() ExitStatus {
	<-h.done
	return h.status
}

// Cancel kills the process and waits for it. Safe to call repeatedly and after exit.
func (h *Handle) Cancel() {
	h.killOnce.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}
		if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			h.logger.Warn().Err(err).Msg("failed to kill process")
		}
	})
	<-h.done
}

func exitStatus(cmd *exec.Cmd, err error, logger zerolog.Logger) ExitStatus {
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}

	if errors.Is(err, exec.ErrWaitDelay) {
		logger.Debug().Msg("output pipes outlived the process")
		err = nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// the code already says it
		err = nil
	}

	return ExitStatus{Code: code, Err: err}
}

// readLines delivers every newline-terminated line of r, and a final
// unterminated one, to handle. Lines that are not valid UTF-8 are skipped.
func readLines(r io.Reader, stream string, handle LineHandler, logger zerolog.Logger) error {
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadBytes('\n')
		if line := bytes.TrimRight(raw, "\r\n"); len(line) > 0 {
			if !utf8.Valid(line) {
				logger.Warn().Err(&StreamDecodeError{Stream: stream, Line: line}).Msg("skipping line")
			} else if handle != nil {
				handle(string(line))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read %s: %w", stream, err)
		}
	}
}
