package download

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/ytget/vdl/internal/config"
)

// StderrErrorPrefix marks the yt-dlp diagnostics reported with a stopped event
const StderrErrorPrefix = "ERROR:"

// Session is one logical download. It owns at most one live Handle and
// publishes exactly one stopped event per subprocess invocation.
type Session struct {
	id     string
	url    string
	opts   config.VideoDownloaderOptions
	runner *Runner
	sink   EventSink
	logger zerolog.Logger
	state  *SessionState

	// startMu serializes Start and Halt so at most one process is live
	startMu  sync.Mutex
	mu       sync.Mutex
	inv      *invocation
	attempts int
}

// invocation is the bookkeeping of one subprocess
type invocation struct {
	handle *Handle
	done   chan struct{}

	mu        sync.Mutex
	cancelled bool
	lastError string
}

func (inv *invocation) isCancelled() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.cancelled
}

// NewSession creates a session for url. opts is copied and used for every invocation.
func NewSession(id, url string, opts config.VideoDownloaderOptions, runner *Runner, sink EventSink, logger zerolog.Logger) *Session {
	logger = logger.With().Str("component", "session").Str("session_id", id).Logger()
	return &Session{
		id:     id,
		url:    url,
		opts:   opts,
		runner: runner,
		sink:   sink,
		logger: logger,
		state:  NewSessionState(id, opts.WantsSubtitles(), logger),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// URL returns the video reference handed to yt-dlp
func (s *Session) URL() string {
	return s.url
}

// Attempts returns how many subprocesses were spawned
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Start halts a live invocation, if any, then spawns a new subprocess.
// A *SpawnError is returned when yt-dlp cannot be started; no event is published then.
func (s *Session) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.halt()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.BeginInvocation()
	inv := &invocation{done: make(chan struct{})}

	handle, err := s.runner.Start(ctx, s.url, s.opts.Args(), s.stdoutHandler(inv), s.stderrHandler(inv))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to start download")
		return err
	}

	inv.handle = handle
	s.inv = inv
	s.attempts++
	s.logger.Info().Int("pid", handle.Pid()).Int("attempt", s.attempts).Msg("download started")

	go s.monitor(ctx, inv)

	return nil
}

// Halt kills the live subprocess and returns after its stopped event was
// published. Events stop flowing before Halt returns. A no-op when nothing runs.
func (s *Session) Halt() {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.halt()
}

func (s *Session) halt() {
	s.mu.Lock()
	inv := s.inv
	s.mu.Unlock()

	if inv == nil {
		return
	}

	inv.mu.Lock()
	select {
	case <-inv.handle.Done():
	default:
		inv.cancelled = true
	}
	inv.mu.Unlock()

	inv.handle.Cancel()
	<-inv.done
}

// Done is closed when the current invocation published its stopped event.
// It is closed already when nothing was started.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inv == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return s.inv.done
}

// Running reports whether a subprocess is alive
func (s *Session) Running() bool {
	select {
	case <-s.Done():
		return false
	default:
		return true
	}
}

// State exposes the label bookkeeping. Only read it while the session is not running.
func (s *Session) State() *SessionState {
	return s.state
}

func (s *Session) stdoutHandler(inv *invocation) LineHandler {
	return func(line string) {
		if inv.isCancelled() {
			return
		}
		for _, e := range s.state.HandleLine(line) {
			s.sink.Publish(e)
		}
	}
}

func (s *Session) stderrHandler(inv *invocation) LineHandler {
	return func(line string) {
		if strings.HasPrefix(line, StderrErrorPrefix) {
			s.logger.Warn().Str("stream", StreamStderr).Msg(line)
			inv.mu.Lock()
			inv.lastError = strings.TrimSpace(strings.TrimPrefix(line, StderrErrorPrefix))
			inv.mu.Unlock()
			return
		}
		s.logger.Debug().Str("stream", StreamStderr).Msg(line)
	}
}

func (s *Session) monitor(ctx context.Context, inv *invocation) {
	status := inv.handle.Wait()

	inv.mu.Lock()
	// a zero exit is a finished download even when a halt raced with it
	cancelled := (inv.cancelled || ctx.Err() != nil) && !status.Success()
	errMsg := inv.lastError
	inv.mu.Unlock()

	if errMsg == "" && status.Err != nil && !cancelled {
		errMsg = status.Err.Error()
	}

	s.logger.Info().
		Int("exit_code", status.Code).
		Bool("cancelled", cancelled).
		Msg("download finished")

	for _, e := range s.state.Finish(status.Code, status.Success(), cancelled, errMsg) {
		s.sink.Publish(e)
	}
	close(inv.done)
}
