package download

import (
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/ytget/vdl/internal/model"
	"github.com/ytget/vdl/internal/platform"
)

// SessionState turns classified stdout lines of one session into events.
// It is owned by the goroutine draining stdout and is not safe for concurrent use.
//
// Rows are created lazily, on the first destination or progress line of a
// label. knownLabels and the table survive across invocations of the same
// session; only currentLabel is cleared by BeginInvocation.
type SessionState struct {
	sessionID  string
	subtitles  bool
	classifier *platform.Classifier
	logger     zerolog.Logger

	currentLabel    string
	knownLabels     []string
	playlistCurrent int
	playlistMax     int
	table           *model.LabelTable
	lastTitle       string

	now func() time.Time
}

// NewSessionState creates the state of one session. Subtitle announcements
// only contribute labels when subtitles is true.
func NewSessionState(sessionID string, subtitles bool, logger zerolog.Logger) *SessionState {
	return &SessionState{
		sessionID:  sessionID,
		subtitles:  subtitles,
		classifier: platform.NewClassifier(),
		logger:     logger,
		table:      model.NewLabelTable(),
		now:        time.Now,
	}
}

// BeginInvocation prepares the state for a fresh subprocess
func (s *SessionState) BeginInvocation() {
	s.currentLabel = ""
}

// HandleLine classifies one stdout line and returns the events it produces, in order
func (s *SessionState) HandleLine(text string) []model.Event {
	line := s.classifier.Classify(text)

	switch line.Kind {
	case platform.LineFormats:
		s.addKnownLabels(line.Labels)
		return nil

	case platform.LineSubtitles:
		if !s.subtitles {
			s.logger.Debug().Strs("labels", line.Labels).Msg("ignoring subtitle labels")
			return nil
		}
		s.addKnownLabels(line.Labels)
		return nil

	case platform.LineDestination:
		return s.handleDestination(line.Path)

	case platform.LineAlreadyDownloaded:
		return s.handleAlreadyDownloaded(line.Path)

	case platform.LinePlaylistItem:
		return s.handlePlaylistItem(line.Current, line.Max)

	case platform.LineProgress:
		return s.handleProgress(line.Progress)

	default:
		s.logger.Trace().Str("line", text).Msg("unrecognized output")
		return nil
	}
}

// Finish returns the events closing an invocation. Rows are forced to 100%
// only when the process exited successfully and was not cancelled; the
// single stopped event always comes last.
func (s *SessionState) Finish(exitCode int, success, cancelled bool, errMsg string) []model.Event {
	var events []model.Event

	completed := success && !cancelled
	if completed {
		for _, label := range s.table.Labels() {
			row, _ := s.table.Row(label)
			if row.Complete() {
				events = append(events, s.progressEvent(*row))
			}
		}
	}

	stopped := s.event(model.EventStopped)
	stopped.Label = s.currentLabel
	stopped.Completed = completed
	stopped.Cancelled = cancelled
	stopped.ExitCode = exitCode
	stopped.Error = errMsg

	return append(events, stopped)
}

// CurrentLabel returns the label unlabeled progress lines apply to
func (s *SessionState) CurrentLabel() string {
	return s.currentLabel
}

// KnownLabels returns the announced labels of the current item in order
func (s *SessionState) KnownLabels() []string {
	return slices.Clone(s.knownLabels)
}

// rows returns the label rows in display order
func (s *SessionState) rows() []model.ProgressRecord {
	return s.table.Rows()
}

// playlist returns the playlist position, zero outside playlists
func (s *SessionState) playlist() (current, total int) {
	return s.playlistCurrent, s.playlistMax
}

func (s *SessionState) handleDestination(path string) []model.Event {
	title, label := platform.SplitTitle(path, s.knownLabels)
	s.currentLabel = label
	s.table.Row(label)

	if title == s.lastTitle {
		return nil
	}
	s.lastTitle = title

	e := s.event(model.EventTitle)
	e.Title = title
	return []model.Event{e}
}

func (s *SessionState) handleAlreadyDownloaded(path string) []model.Event {
	events := s.handleDestination(path)

	row, _ := s.table.Row(s.currentLabel)
	if row.Complete() {
		events = append(events, s.progressEvent(*row))
	}

	completed := s.event(model.EventCompleted)
	completed.Label = s.currentLabel
	completed.Progress = *row
	completed.Completed = true
	return append(events, completed)
}

func (s *SessionState) handlePlaylistItem(current, total int) []model.Event {
	s.knownLabels = nil
	s.table.Reset()
	s.currentLabel = ""
	s.lastTitle = ""
	s.playlistCurrent = current
	s.playlistMax = total

	e := s.event(model.EventReset)
	e.Label = strconv.Itoa(current)
	e.PlaylistCurrent = current
	e.PlaylistMax = total
	return []model.Event{e}
}

func (s *SessionState) handleProgress(record model.ProgressRecord) []model.Event {
	if !record.Valid() {
		return nil
	}

	record.Label = s.currentLabel
	row, _ := s.table.Row(record.Label)
	if !row.Merge(record) {
		return nil
	}
	return []model.Event{s.progressEvent(*row)}
}

func (s *SessionState) addKnownLabels(labels []string) {
	for _, label := range labels {
		if label != "" && !slices.Contains(s.knownLabels, label) {
			s.knownLabels = append(s.knownLabels, label)
		}
	}
}

func (s *SessionState) progressEvent(row model.ProgressRecord) model.Event {
	e := s.event(model.EventProgress)
	e.Label = row.Label
	e.Progress = row
	return e
}

func (s *SessionState) event(kind model.EventKind) model.Event {
	return model.Event{
		SessionID: s.sessionID,
		Kind:      kind,
		Time:      s.now(),
	}
}
