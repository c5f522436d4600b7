package platform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/vdl/internal/model"
)

// Channel markers yt-dlp prefixes its lines with
const (
	DownloadMarker = "[download]"
	InfoMarker     = "[info]"
)

// Separators of the announced label lists
const (
	FormatSeparator   = "+"
	SubtitleSeparator = ", "
)

// LineKind classifies one line of yt-dlp output
type LineKind int

const (
	LineUnrecognized LineKind = iota
	LineDestination
	LineAlreadyDownloaded
	LinePlaylistItem
	LineProgress
	LineFormats
	LineSubtitles
)

var lineKindNames = map[LineKind]string{
	LineUnrecognized:      "unrecognized",
	LineDestination:       "destination",
	LineAlreadyDownloaded: "already-downloaded",
	LinePlaylistItem:      "playlist-item",
	LineProgress:          "progress",
	LineFormats:           "formats",
	LineSubtitles:         "subtitles",
}

func (k LineKind) String() string {
	if name, ok := lineKindNames[k]; ok {
		return name
	}
	return "LineKind(" + strconv.Itoa(int(k)) + ")"
}

// Line is the result of classifying one output line. Only the fields
// belonging to Kind are set.
type Line struct {
	Kind     LineKind
	Path     string               // destination / already downloaded
	Current  int                  // playlist item
	Max      int                  // playlist item
	Labels   []string             // formats / subtitles
	Progress model.ProgressRecord // progress
}

// Classifier maps yt-dlp output lines to Line values. Patterns are compiled
// once per Classifier; a Classifier is safe for concurrent use.
type Classifier struct {
	destination       *regexp.Regexp
	alreadyDownloaded *regexp.Regexp
	playlistItem      *regexp.Regexp
	formats           *regexp.Regexp
	subtitles         *regexp.Regexp
}

// NewClassifier compiles the recognized line patterns
func NewClassifier() *Classifier {
	return &Classifier{
		destination:       regexp.MustCompile(`^\[download\] Destination: (.+)$`),
		alreadyDownloaded: regexp.MustCompile(`^\[download\] (.+?) has already been downloaded(?: and merged)?$`),
		playlistItem:      regexp.MustCompile(`^\[download\] Downloading (?:item|video) (\d+) of (\d+)`),
		formats:           regexp.MustCompile(`^\[info\] .*Downloading (\d+) format\(s\): (.+)$`),
		subtitles:         regexp.MustCompile(`^\[info\] .*Downloading subtitles: (.+)$`),
	}
}

// Classify returns the first matching classification for line. The order of
// the checks matters: the structural [download] patterns are more specific
// than a progress line.
func (c *Classifier) Classify(line string) Line {
	line = strings.TrimRight(line, "\r\n")

	switch {
	case strings.HasPrefix(line, DownloadMarker):
		return c.classifyDownload(line)
	case strings.HasPrefix(line, InfoMarker):
		return c.classifyInfo(line)
	}
	return Line{Kind: LineUnrecognized}
}

func (c *Classifier) classifyDownload(line string) Line {
	if m := c.destination.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineDestination, Path: strings.TrimSpace(m[1])}
	}
	if m := c.alreadyDownloaded.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineAlreadyDownloaded, Path: strings.TrimSpace(m[1])}
	}
	if m := c.playlistItem.FindStringSubmatch(line); m != nil {
		current, err1 := strconv.Atoi(m[1])
		total, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return Line{Kind: LinePlaylistItem, Current: current, Max: total}
		}
		return Line{Kind: LineUnrecognized}
	}
	return Line{
		Kind:     LineProgress,
		Progress: ParseProgress(strings.TrimPrefix(line, DownloadMarker)),
	}
}

func (c *Classifier) classifyInfo(line string) Line {
	if m := c.formats.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineFormats, Labels: splitLabels(m[2], FormatSeparator)}
	}
	if m := c.subtitles.FindStringSubmatch(line); m != nil {
		return Line{Kind: LineSubtitles, Labels: splitLabels(m[1], SubtitleSeparator)}
	}
	return Line{Kind: LineUnrecognized}
}

func splitLabels(list, sep string) []string {
	parts := strings.Split(strings.TrimSpace(list), sep)
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}
