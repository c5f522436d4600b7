package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ytget/vdl/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Line
	}{
		{
			name:     "destination with format fragment",
			line:     "[download] Destination: /x/y/My Title.f140.m4a",
			expected: Line{Kind: LineDestination, Path: "/x/y/My Title.f140.m4a"},
		},
		{
			name:     "destination with windows path",
			line:     `[download] Destination: C:\Videos\Clip.mp4`,
			expected: Line{Kind: LineDestination, Path: `C:\Videos\Clip.mp4`},
		},
		{
			name:     "already downloaded",
			line:     "[download] /x/My Title.mp4 has already been downloaded",
			expected: Line{Kind: LineAlreadyDownloaded, Path: "/x/My Title.mp4"},
		},
		{
			name:     "already downloaded and merged",
			line:     "[download] My Title.mkv has already been downloaded and merged",
			expected: Line{Kind: LineAlreadyDownloaded, Path: "My Title.mkv"},
		},
		{
			name:     "playlist item",
			line:     "[download] Downloading item 2 of 5",
			expected: Line{Kind: LinePlaylistItem, Current: 2, Max: 5},
		},
		{
			name:     "playlist video wording",
			line:     "[download] Downloading video 10 of 12",
			expected: Line{Kind: LinePlaylistItem, Current: 10, Max: 12},
		},
		{
			name: "progress",
			line: "[download]  45.2% of 10.00MiB at 1.50MiB/s ETA 00:07",
			expected: Line{Kind: LineProgress, Progress: model.ProgressRecord{
				Percent: "45.2%", Size: "10.00MiB", Rate: "1.50MiB/s", ETA: "00:07",
			}},
		},
		{
			name:     "unparseable download line is an empty progress line",
			line:     "[download] Resuming download at byte 1024",
			expected: Line{Kind: LineProgress},
		},
		{
			name:     "formats",
			line:     "[info] dQw4w9WgXcQ: Downloading 2 format(s): 140+251",
			expected: Line{Kind: LineFormats, Labels: []string{"140", "251"}},
		},
		{
			name:     "formats without id",
			line:     "[info] ... Downloading 2 format(s): 140+251",
			expected: Line{Kind: LineFormats, Labels: []string{"140", "251"}},
		},
		{
			name:     "subtitles",
			line:     "[info] dQw4w9WgXcQ: Downloading subtitles: en, de, pt-BR",
			expected: Line{Kind: LineSubtitles, Labels: []string{"en", "de", "pt-BR"}},
		},
		{
			name:     "other info line",
			line:     "[info] Writing video subtitles to: x.en.vtt",
			expected: Line{Kind: LineUnrecognized},
		},
		{
			name:     "other channel",
			line:     "[Merger] Merging formats into \"x.mkv\"",
			expected: Line{Kind: LineUnrecognized},
		},
		{
			name:     "empty",
			line:     "",
			expected: Line{Kind: LineUnrecognized},
		},
		{
			name:     "trailing carriage return",
			line:     "[download] Downloading item 1 of 3\r",
			expected: Line{Kind: LinePlaylistItem, Current: 1, Max: 3},
		},
	}

	c := NewClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.line))
		})
	}
}

func TestClassify_DestinationWinsOverProgress(t *testing.T) {
	// The path contains tokens that would otherwise parse as progress fields.
	line := "[download] Destination: /tmp/100% of 5MiB at 12:00.mp4"
	got := NewClassifier().Classify(line)
	assert.Equal(t, LineDestination, got.Kind)
	assert.Equal(t, "/tmp/100% of 5MiB at 12:00.mp4", got.Path)
}

func TestLineKind_String(t *testing.T) {
	assert.Equal(t, "progress", LineProgress.String())
	assert.Equal(t, "LineKind(99)", LineKind(99).String())
}
