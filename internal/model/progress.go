package model

import "strings"

// PercentComplete is the percent token yt-dlp prints once a part is fully downloaded.
const PercentComplete = "100%"

// ProgressRecord is the parsed state of one download part. Every field keeps
// the token exactly as yt-dlp printed it.
type ProgressRecord struct {
	Label    string `json:"label"`
	Percent  string `json:"percent,omitempty"`
	Rate     string `json:"rate,omitempty"`
	Size     string `json:"size,omitempty"`
	ETA      string `json:"eta,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

// Valid reports whether the record carries enough information to be shown.
// Lines without a percent token still count when size, ETA and rate are all present.
func (p ProgressRecord) Valid() bool {
	if p.Percent != "" {
		return true
	}
	return p.Size != "" && p.ETA != "" && p.Rate != ""
}

// IsComplete reports whether the record reached 100%.
func (p ProgressRecord) IsComplete() bool {
	return p.Percent == PercentComplete
}

// Merge overwrites every field except Label with next. A complete record is
// terminal and is never changed. Returns true when a field changed.
func (p *ProgressRecord) Merge(next ProgressRecord) bool {
	if p.IsComplete() {
		return false
	}

	changed := p.Percent != next.Percent ||
		p.Rate != next.Rate ||
		p.Size != next.Size ||
		p.ETA != next.ETA ||
		p.Fragment != next.Fragment

	p.Percent = next.Percent
	p.Rate = next.Rate
	p.Size = next.Size
	p.ETA = next.ETA
	p.Fragment = next.Fragment

	return changed
}

// Complete marks the record as fully downloaded. Returns true when it was not already.
func (p *ProgressRecord) Complete() bool {
	if p.IsComplete() {
		return false
	}
	p.Percent = PercentComplete
	p.ETA = ""
	return true
}

// String renders the record the way a status line shows it
func (p ProgressRecord) String() string {
	parts := make([]string, 0, 5)
	if p.Percent != "" {
		parts = append(parts, p.Percent)
	}
	if p.Size != "" {
		parts = append(parts, p.Size)
	}
	if p.Rate != "" {
		parts = append(parts, p.Rate)
	}
	if p.ETA != "" {
		parts = append(parts, "ETA "+p.ETA)
	}
	if p.Fragment != "" {
		parts = append(parts, "frag "+p.Fragment)
	}
	return strings.Join(parts, " ")
}

// LabelTable keeps one ProgressRecord per label in insertion order.
// It is not safe for concurrent use.
type LabelTable struct {
	order []string
	rows  map[string]*ProgressRecord
}

// NewLabelTable creates an empty table
func NewLabelTable() *LabelTable {
	return &LabelTable{rows: make(map[string]*ProgressRecord)}
}

// Row returns the record for label, creating it when missing.
func (t *LabelTable) Row(label string) (*ProgressRecord, bool) {
	if row, ok := t.rows[label]; ok {
		return row, false
	}
	row := &ProgressRecord{Label: label}
	t.rows[label] = row
	t.order = append(t.order, label)
	return row, true
}

// Get returns a copy of the record for label
func (t *LabelTable) Get(label string) (ProgressRecord, bool) {
	row, ok := t.rows[label]
	if !ok {
		return ProgressRecord{}, false
	}
	return *row, true
}

// Labels returns the labels in display order
func (t *LabelTable) Labels() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Rows returns copies of all records in display order
func (t *LabelTable) Rows() []ProgressRecord {
	out := make([]ProgressRecord, 0, len(t.order))
	for _, label := range t.order {
		out = append(out, *t.rows[label])
	}
	return out
}

// Len returns the number of rows
func (t *LabelTable) Len() int {
	return len(t.order)
}

// Reset drops every row
func (t *LabelTable) Reset() {
	t.order = nil
	t.rows = make(map[string]*ProgressRecord)
}
