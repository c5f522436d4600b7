package platform

// Package platform contains OS/platform integration and external tooling glue:
// classification of yt-dlp output lines, progress token parsing, binary and
// directory lookup, and playlist lookup via the ytdlp library.
