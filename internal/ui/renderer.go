package ui

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/ytget/vdl/internal/model"
)

// barTotal is the resolution of a bar: one step per tenth of a percent
const barTotal = 1000

type barKey struct {
	session string
	label   string
}

// barState is read by mpb's render goroutine through atomics only
type barState struct {
	bar    *mpb.Bar
	label  string
	name   atomic.Value // string
	detail atomic.Value // string
}

type sessionView struct {
	title           string
	playlistCurrent int
	playlistMax     int
	bars            map[string]*barState
}

func (v *sessionView) displayName(label string) string {
	name := rowName(v.title, label)
	if v.playlistMax > 0 {
		name = fmt.Sprintf("(%d/%d) %s", v.playlistCurrent, v.playlistMax, name)
	}
	return name
}

// Renderer draws one mpb bar per session label. Handle must be called from
// a single goroutine, as Run does.
type Renderer struct {
	progress *mpb.Progress
	sessions map[string]*sessionView
}

// NewRenderer creates a renderer writing to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{
		progress: mpb.New(mpb.WithOutput(out), mpb.WithAutoRefresh(), mpb.WithWidth(40)),
		sessions: make(map[string]*sessionView),
	}
}

// Writer prints above the bars; hand it to the logger while bars are shown
func (r *Renderer) Writer() io.Writer {
	return r.progress
}

// Handle applies one event to the bars
func (r *Renderer) Handle(e model.Event) {
	view := r.session(e.SessionID)

	switch e.Kind {
	case model.EventTitle:
		view.title = e.Title
		for _, state := range view.bars {
			state.name.Store(view.displayName(state.label))
		}

	case model.EventProgress:
		state := r.bar(view, e.Label)
		state.detail.Store(e.Progress.String())
		if pct, ok := parsePercent(e.Progress.Percent); ok {
			state.bar.SetCurrent(int64(pct * barTotal / 100))
		}
		if e.Progress.IsComplete() {
			state.bar.SetTotal(-1, true)
		}

	case model.EventCompleted:
		state := r.bar(view, e.Label)
		state.detail.Store("already downloaded")
		state.bar.SetTotal(-1, true)

	case model.EventReset:
		for _, state := range view.bars {
			state.bar.Abort(true)
		}
		view.bars = make(map[string]*barState)
		view.title = ""
		view.playlistCurrent = e.PlaylistCurrent
		view.playlistMax = e.PlaylistMax

	case model.EventStopped:
		for _, state := range view.bars {
			if e.Completed {
				state.bar.SetTotal(-1, true)
			} else {
				state.bar.Abort(false)
			}
		}
		view.bars = make(map[string]*barState)
		fmt.Fprintln(r.progress, summaryLine(view.title, e))
	}
}

// Close aborts the remaining bars and stops rendering
func (r *Renderer) Close() {
	for _, view := range r.sessions {
		for _, state := range view.bars {
			state.bar.Abort(false)
		}
		view.bars = nil
	}
	r.progress.Shutdown()
}

// barCount returns the number of live bars
func (r *Renderer) barCount() int {
	n := 0
	for _, view := range r.sessions {
		n += len(view.bars)
	}
	return n
}

func (r *Renderer) session(id string) *sessionView {
	view, ok := r.sessions[id]
	if !ok {
		view = &sessionView{bars: make(map[string]*barState)}
		r.sessions[id] = view
	}
	return view
}

func (r *Renderer) bar(view *sessionView, label string) *barState {
	if state, ok := view.bars[label]; ok {
		return state
	}

	state := &barState{label: label}
	state.name.Store(view.displayName(label))
	state.detail.Store("")
	state.bar = r.progress.New(barTotal,
		mpb.BarStyle(),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return state.name.Load().(string) }, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Any(func(decor.Statistics) string { return state.detail.Load().(string) }),
		),
	)
	view.bars[label] = state
	return state
}

func summaryLine(title string, e model.Event) string {
	name := title
	if name == "" {
		name = e.SessionID
	}

	switch {
	case e.Completed:
		return color.GreenString("✔ %s", name)
	case e.Cancelled:
		return color.YellowString("■ %s (stopped)", name)
	case e.Error != "":
		return color.RedString("✘ %s: %s", name, e.Error)
	default:
		return color.RedString("✘ %s: exit status %d", name, e.ExitCode)
	}
}
