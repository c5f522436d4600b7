package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRecord_Valid(t *testing.T) {
	tests := []struct {
		name     string
		record   ProgressRecord
		expected bool
	}{
		{"empty", ProgressRecord{}, false},
		{"percent only", ProgressRecord{Percent: "1.0%"}, true},
		{"size rate eta", ProgressRecord{Size: "10MiB", Rate: "1MiB/s", ETA: "00:10"}, true},
		{"size and rate", ProgressRecord{Size: "10MiB", Rate: "1MiB/s"}, false},
		{"fragment only", ProgressRecord{Fragment: "1/4"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.Valid())
		})
	}
}

func TestProgressRecord_Merge(t *testing.T) {
	row := ProgressRecord{Label: "140"}

	changed := row.Merge(ProgressRecord{Label: "other", Percent: "10.0%", Size: "3.00MiB"})
	assert.True(t, changed)
	assert.Equal(t, "140", row.Label, "label is never overwritten")
	assert.Equal(t, "10.0%", row.Percent)

	changed = row.Merge(ProgressRecord{Percent: "10.0%", Size: "3.00MiB"})
	assert.False(t, changed, "identical input is idempotent")

	changed = row.Merge(ProgressRecord{Percent: "55.0%", Rate: "1.00MiB/s"})
	assert.True(t, changed)
	assert.Empty(t, row.Size, "merge overwrites all fields")
}

func TestProgressRecord_MergeNeverRegressesComplete(t *testing.T) {
	row := ProgressRecord{Label: "251"}
	require.True(t, row.Merge(ProgressRecord{Percent: "100%", Size: "4.00MiB"}))

	inputs := []ProgressRecord{
		{Percent: "0.0%"},
		{Percent: "99.9%", Size: "1MiB"},
		{},
		{Size: "1MiB", Rate: "1MiB/s", ETA: "00:01"},
	}
	for _, in := range inputs {
		assert.False(t, row.Merge(in))
		assert.Equal(t, "100%", row.Percent)
		assert.Equal(t, "4.00MiB", row.Size)
	}
}

func TestProgressRecord_Complete(t *testing.T) {
	row := ProgressRecord{Percent: "40%", ETA: "00:03"}
	assert.True(t, row.Complete())
	assert.Equal(t, PercentComplete, row.Percent)
	assert.Empty(t, row.ETA)
	assert.False(t, row.Complete())
}

func TestProgressRecord_String(t *testing.T) {
	row := ProgressRecord{Percent: "45.2%", Size: "10.00MiB", Rate: "1.50MiB/s", ETA: "00:07", Fragment: "3/9"}
	assert.Equal(t, "45.2% 10.00MiB 1.50MiB/s ETA 00:07 frag 3/9", row.String())
	assert.Equal(t, "", ProgressRecord{}.String())
}

func TestLabelTable(t *testing.T) {
	table := NewLabelTable()

	row, created := table.Row("140")
	require.True(t, created)
	row.Percent = "5%"

	_, created = table.Row("137")
	require.True(t, created)

	again, created := table.Row("140")
	assert.False(t, created)
	assert.Same(t, row, again)

	assert.Equal(t, []string{"140", "137"}, table.Labels())
	assert.Equal(t, 2, table.Len())

	got, ok := table.Get("140")
	require.True(t, ok)
	assert.Equal(t, "5%", got.Percent)

	rows := table.Rows()
	require.Len(t, rows, 2)
	rows[0].Percent = "mutated"
	got, _ = table.Get("140")
	assert.Equal(t, "5%", got.Percent, "Rows returns copies")

	table.Reset()
	assert.Equal(t, 0, table.Len())
	_, ok = table.Get("140")
	assert.False(t, ok)
}
