package config

import "strconv"

// Defaults for the yt-dlp selection flags
const (
	DefaultFormat         = "bv*+ba/b"
	DefaultFormatSort     = "vcodec:av1,acodec:opus"
	DefaultOutputTemplate = "%(upload_date)s - %(title)s.%(ext)s"
)

// VideoDownloaderOptions is the immutable snapshot of yt-dlp options handed
// to a session when it starts.
type VideoDownloaderOptions struct {
	AgeLimit          int
	ConvertSubs       string
	ConvertThumbnails string
	DownloadPlaylist  bool
	EmbedMetadata     bool
	FfmpegLocation    string
	Format            string
	FormatSort        string
	LimitRate         string
	Output            string
	OutputPath        string
	PreferFreeFormats bool
	SubFormat         string
	SubLangs          string
	Username          string
	WriteAutoSubs     bool
	WriteSubs         bool
	WriteThumbnail    bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() VideoDownloaderOptions {
	return VideoDownloaderOptions{
		Format:     DefaultFormat,
		FormatSort: DefaultFormatSort,
		Output:     DefaultOutputTemplate,
	}
}

// WantsSubtitles reports whether subtitle tracks will be written, which is
// what makes subtitle labels meaningful in the output.
func (o VideoDownloaderOptions) WantsSubtitles() bool {
	return o.WriteSubs || o.WriteAutoSubs
}

// Args maps the options to yt-dlp flags. Booleans always emit one side of
// their --x/--no-x pair, empty strings are omitted.
func (o VideoDownloaderOptions) Args() []string {
	args := make([]string, 0, 32)

	if o.AgeLimit > 0 {
		args = append(args, "--age-limit", strconv.Itoa(o.AgeLimit))
	}

	args = appendString(args, "--convert-subs", o.ConvertSubs)
	args = appendString(args, "--convert-thumbnails", o.ConvertThumbnails)
	args = appendBool(args, o.DownloadPlaylist, "--yes-playlist", "--no-playlist")
	args = appendBool(args, o.EmbedMetadata, "--embed-metadata", "--no-embed-metadata")
	args = appendString(args, "--ffmpeg-location", o.FfmpegLocation)
	args = appendString(args, "-f", o.Format)
	args = appendString(args, "-S", o.FormatSort)
	args = appendString(args, "-r", o.LimitRate)
	args = appendString(args, "-o", o.Output)
	args = appendString(args, "-P", o.OutputPath)
	args = appendBool(args, o.PreferFreeFormats, "--prefer-free-formats", "--no-prefer-free-formats")
	args = appendString(args, "--sub-format", o.SubFormat)
	args = appendString(args, "--sub-langs", o.SubLangs)
	args = appendString(args, "-u", o.Username)
	args = appendBool(args, o.WriteAutoSubs, "--write-auto-subs", "--no-write-auto-subs")
	args = appendBool(args, o.WriteSubs, "--write-subs", "--no-write-subs")
	args = appendBool(args, o.WriteThumbnail, "--write-thumbnail", "--no-write-thumbnail")

	return args
}

func appendString(args []string, flag, value string) []string {
	if value == "" {
		return args
	}
	return append(args, flag, value)
}

func appendBool(args []string, value bool, on, off string) []string {
	if value {
		return append(args, on)
	}
	return append(args, off)
}
