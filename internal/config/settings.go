package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/ytget/vdl/internal/platform"
)

// QualityPreset selects a yt-dlp format expression
type QualityPreset string

const (
	QualityBest   QualityPreset = "best"
	QualityMedium QualityPreset = "medium"
	QualityAudio  QualityPreset = "audio"
)

// FormatSelector returns the -f expression for the preset
func (q QualityPreset) FormatSelector() string {
	switch q {
	case QualityBest:
		return DefaultFormat
	case QualityAudio:
		return "ba/b"
	default:
		return "bv*[height<=720]+ba/b[height<=720]"
	}
}

// Settings keys
const (
	KeyDownloadDir      = "download_directory"
	KeyMaxParallel      = "max_parallel_downloads"
	KeyQualityPreset    = "quality_preset"
	KeyFilenameTemplate = "filename_template"
	KeyBinary           = "binary"
	KeyKillWaitDelay    = "kill_wait_delay"
	KeyHistoryPath      = "history_path"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyOptionsPrefix    = "options."
)

// Default values
const (
	DefaultMaxParallel      = 2
	DefaultQualityPreset    = QualityMedium
	DefaultFilenameTemplate = DefaultOutputTemplate
	DefaultKillWaitDelay    = 5 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	MinParallel             = 1
	MaxParallel             = 10
)

// Config file lookup
const (
	AppName        = "vdl"
	ConfigName     = "config"
	ConfigType     = "yaml"
	EnvPrefix      = "VDL"
	HistoryFile    = "history.db"
	FallbackDirEnv = "XDG_CONFIG_HOME"
)

// Settings manages application configuration on top of a viper instance.
// Values come from flags, VDL_* environment variables, config.yaml and
// defaults, in that order.
type Settings struct {
	v *viper.Viper
}

// NewSettings wraps v, or a fresh viper instance when v is nil, and installs defaults
func NewSettings(v *viper.Viper) *Settings {
	if v == nil {
		v = viper.New()
	}
	s := &Settings{v: v}
	s.setDefaults()
	return s
}

// Load builds settings from the config file and the environment. An explicit
// configFile must exist; the default search path may be empty.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.SetConfigType(ConfigType)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	s := NewSettings(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return s, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/vdl, or the user config directory
func ConfigDir() (string, error) {
	if base := os.Getenv(FallbackDirEnv); base != "" {
		return filepath.Join(base, AppName), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

func (s *Settings) setDefaults() {
	s.v.SetDefault(KeyMaxParallel, DefaultMaxParallel)
	s.v.SetDefault(KeyQualityPreset, string(DefaultQualityPreset))
	s.v.SetDefault(KeyFilenameTemplate, DefaultFilenameTemplate)
	s.v.SetDefault(KeyBinary, platform.DefaultBinary)
	s.v.SetDefault(KeyKillWaitDelay, DefaultKillWaitDelay)
	s.v.SetDefault(KeyLogLevel, DefaultLogLevel)
	s.v.SetDefault(KeyLogFormat, DefaultLogFormat)
	s.v.SetDefault(KeyOptionsPrefix+"format_sort", DefaultFormatSort)
}

// Viper exposes the underlying instance so command flags can be bound to keys
func (s *Settings) Viper() *viper.Viper {
	return s.v
}

// ConfigFileUsed returns the config file that was read, if any
func (s *Settings) ConfigFileUsed() string {
	return s.v.ConfigFileUsed()
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.v.GetString(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = filepath.Join(os.TempDir(), "downloads")
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.v.Set(KeyDownloadDir, dir)
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Settings) GetMaxParallelDownloads() int {
	return clampParallel(s.v.GetInt(KeyMaxParallel))
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Settings) SetMaxParallelDownloads(count int) {
	s.v.Set(KeyMaxParallel, clampParallel(count))
}

func clampParallel(count int) int {
	if count < MinParallel {
		return MinParallel
	}
	if count > MaxParallel {
		return MaxParallel
	}
	return count
}

// GetQualityPreset returns the configured quality preset. Unknown values fall back to the default.
func (s *Settings) GetQualityPreset() QualityPreset {
	preset := QualityPreset(s.v.GetString(KeyQualityPreset))
	for _, known := range s.GetQualityPresetOptions() {
		if preset == known {
			return preset
		}
	}
	return DefaultQualityPreset
}

// SetQualityPreset sets the quality preset
func (s *Settings) SetQualityPreset(preset QualityPreset) {
	s.v.Set(KeyQualityPreset, string(preset))
}

// GetQualityPresetOptions returns available quality preset options
func (s *Settings) GetQualityPresetOptions() []QualityPreset {
	return []QualityPreset{QualityBest, QualityMedium, QualityAudio}
}

// GetFilenameTemplate returns the filename template
func (s *Settings) GetFilenameTemplate() string {
	template := s.v.GetString(KeyFilenameTemplate)
	if template == "" {
		return DefaultFilenameTemplate
	}
	return template
}

// SetFilenameTemplate sets the filename template
func (s *Settings) SetFilenameTemplate(template string) {
	if template == "" {
		template = DefaultFilenameTemplate
	}
	s.v.Set(KeyFilenameTemplate, template)
}

// GetBinary returns the yt-dlp executable name or path
func (s *Settings) GetBinary() string {
	return s.v.GetString(KeyBinary)
}

// GetKillWaitDelay bounds how long a killed process may keep its pipes open
func (s *Settings) GetKillWaitDelay() time.Duration {
	d := s.v.GetDuration(KeyKillWaitDelay)
	if d <= 0 {
		return DefaultKillWaitDelay
	}
	return d
}

// GetHistoryPath returns the bbolt file for session history. Empty keeps history in memory.
func (s *Settings) GetHistoryPath() string {
	if s.v.IsSet(KeyHistoryPath) {
		return s.v.GetString(KeyHistoryPath)
	}
	dir, err := ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, HistoryFile)
}

// GetLogLevel returns the configured log level
func (s *Settings) GetLogLevel() string {
	return s.v.GetString(KeyLogLevel)
}

// GetLogFormat returns console or json
func (s *Settings) GetLogFormat() string {
	return s.v.GetString(KeyLogFormat)
}

// GetDownloaderOptions assembles the options snapshot for a new session.
// An explicit options.format wins over the quality preset, and an empty
// output path or template falls back to the download directory and filename template.
func (s *Settings) GetDownloaderOptions() VideoDownloaderOptions {
	key := func(name string) string { return KeyOptionsPrefix + name }

	opts := VideoDownloaderOptions{
		AgeLimit:          s.v.GetInt(key("age_limit")),
		ConvertSubs:       s.v.GetString(key("convert_subs")),
		ConvertThumbnails: s.v.GetString(key("convert_thumbnails")),
		DownloadPlaylist:  s.v.GetBool(key("download_playlist")),
		EmbedMetadata:     s.v.GetBool(key("embed_metadata")),
		FfmpegLocation:    s.v.GetString(key("ffmpeg_location")),
		Format:            s.v.GetString(key("format")),
		FormatSort:        s.v.GetString(key("format_sort")),
		LimitRate:         s.v.GetString(key("limit_rate")),
		Output:            s.v.GetString(key("output")),
		OutputPath:        s.v.GetString(key("output_path")),
		PreferFreeFormats: s.v.GetBool(key("prefer_free_formats")),
		SubFormat:         s.v.GetString(key("sub_format")),
		SubLangs:          s.v.GetString(key("sub_langs")),
		Username:          s.v.GetString(key("username")),
		WriteAutoSubs:     s.v.GetBool(key("write_auto_subs")),
		WriteSubs:         s.v.GetBool(key("write_subs")),
		WriteThumbnail:    s.v.GetBool(key("write_thumbnail")),
	}

	if opts.Format == "" {
		opts.Format = s.GetQualityPreset().FormatSelector()
	}
	if opts.Output == "" {
		opts.Output = s.GetFilenameTemplate()
	}
	if opts.OutputPath == "" {
		opts.OutputPath = s.GetDownloadDirectory()
	}

	return opts
}
