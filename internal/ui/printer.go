package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ytget/vdl/internal/model"
)

// Printer writes one colored line per event. It suits logs and non-interactive output.
type Printer struct {
	out    io.Writer
	titles map[string]string

	title   *color.Color
	info    *color.Color
	success *color.Color
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:     out,
		titles:  make(map[string]string),
		title:   color.New(color.FgCyan, color.Bold),
		info:    color.New(color.FgWhite),
		success: color.New(color.FgGreen),
	}
}

// Handle prints the event
func (p *Printer) Handle(e model.Event) {
	switch e.Kind {
	case model.EventTitle:
		p.titles[e.SessionID] = e.Title
		p.title.Fprintf(p.out, "▶ %s\n", e.Title)

	case model.EventProgress:
		p.info.Fprintf(p.out, "  %s %s\n", labelTag(e.Label), e.Progress)

	case model.EventCompleted:
		p.success.Fprintf(p.out, "  %s already downloaded\n", labelTag(e.Label))

	case model.EventReset:
		p.info.Fprintf(p.out, "● playlist item %d of %d\n", e.PlaylistCurrent, e.PlaylistMax)

	case model.EventStopped:
		line := summaryLine(p.titles[e.SessionID], e)
		fmt.Fprintln(p.out, line)
	}
}

// Close implements Display
func (p *Printer) Close() {}

func labelTag(label string) string {
	if label == "" {
		return "[-]"
	}
	return fmt.Sprintf("[%s]", label)
}
