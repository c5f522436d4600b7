package platform

import (
	"regexp"
	"strings"
)

// FormatLabelPrefix is the letter yt-dlp puts before a format code in
// intermediate file names, e.g. "My Title.f140.m4a".
const FormatLabelPrefix = "f"

var formatFragment = regexp.MustCompile(`\.f\d+$`)

// SplitTitle extracts the human-readable title and the label of the part a
// file belongs to. The label is matched against known by suffix; when several
// labels match the longest one wins. An unmatched label is returned empty and
// means the file is the only or primary track.
func SplitTitle(path string, known []string) (title, label string) {
	stem := fileStem(path)

	for _, candidate := range known {
		if candidate == "" || len(candidate) <= len(label) {
			continue
		}
		for _, suffix := range []string{"." + FormatLabelPrefix + candidate, "." + candidate} {
			if strings.HasSuffix(stem, suffix) && len(stem) > len(suffix) {
				label = candidate
				title = strings.TrimSuffix(stem, suffix)
				break
			}
		}
	}

	if label == "" {
		title = formatFragment.ReplaceAllString(stem, "")
	}
	return title, label
}

// fileStem returns the last path segment without its final extension. Both
// separators are accepted because yt-dlp prints native paths.
func fileStem(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i > 0 {
		path = path[:i]
	}
	return path
}
