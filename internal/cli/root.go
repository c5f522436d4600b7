// Package cli wires the vdl commands together.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/ytget/vdl/internal/config"
)

// flagKeys maps command line flags to settings keys
var flagKeys = map[string]string{
	"log-level":    config.KeyLogLevel,
	"log-format":   config.KeyLogFormat,
	"history":      config.KeyHistoryPath,
	"parallel":     config.KeyMaxParallel,
	"quality":      config.KeyQualityPreset,
	"output-dir":   config.KeyDownloadDir,
	"binary":       config.KeyBinary,
	"format":       config.KeyOptionsPrefix + "format",
	"limit-rate":   config.KeyOptionsPrefix + "limit_rate",
	"yes-playlist": config.KeyOptionsPrefix + "download_playlist",
	"write-subs":   config.KeyOptionsPrefix + "write_subs",
	"sub-langs":    config.KeyOptionsPrefix + "sub_langs",
}

type root struct {
	version    string
	configFile string
	plain      bool
	app        *App
}

// NewRootCommand builds the vdl command tree
func NewRootCommand(version string) *cobra.Command {
	cmd, _ := newRootCommand(version)
	return cmd
}

func newRootCommand(version string) (*cobra.Command, *root) {
	r := &root{version: version}

	cmd := &cobra.Command{
		Use:   "vdl [urls...]",
		Short: "Download videos with yt-dlp and follow their progress",
		Long: `vdl runs yt-dlp once per URL and shows what every download is doing.

Each download gets a progress row per format it fetches (video, audio,
subtitles). Playlists are followed item by item. Interrupting vdl stops
every running download; finished downloads are kept in the history.

Settings come from flags, VDL_* environment variables and
$XDG_CONFIG_HOME/vdl/config.yaml, in that order.`,
		Example: `  vdl https://www.youtube.com/watch?v=dQw4w9WgXcQ
  vdl -q audio -j 4 URL1 URL2 URL3
  vdl --yes-playlist --plain "https://www.youtube.com/playlist?list=PL..."`,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.init,
		RunE: func(cmd *cobra.Command, urls []string) error {
			if len(urls) == 0 {
				return cmd.Help()
			}
			return r.app.Download(cmd.Context(), urls, cmd.OutOrStdout(), r.plain)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&r.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/vdl/config.yaml)")
	pf.String("log-level", "", "log level (trace, debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")
	pf.String("history", "", "history database file")

	r.addDownloadFlags(cmd)

	cmd.AddCommand(
		r.newPlaylistCommand(),
		r.newFormatsCommand(),
		r.newHistoryCommand(),
		r.newVersionCommand(),
	)

	return cmd, r
}

func (r *root) addDownloadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntP("parallel", "j", config.DefaultMaxParallel, "maximum parallel downloads (1-10)")
	f.StringP("quality", "q", string(config.DefaultQualityPreset), "quality preset (best, medium, audio)")
	f.StringP("output-dir", "o", "", "download directory")
	f.String("binary", "", "yt-dlp executable")
	f.StringP("format", "f", "", "yt-dlp format expression, overrides --quality")
	f.StringP("limit-rate", "r", "", "maximum download rate, e.g. 50K or 4.2M")
	f.Bool("yes-playlist", false, "download the whole playlist a URL refers to")
	f.Bool("write-subs", false, "download subtitles")
	f.String("sub-langs", "", "subtitle languages, e.g. en.*,ja")
	f.BoolVar(&r.plain, "plain", false, "print one line per event instead of progress bars")
}

func (r *root) init(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "help", "version":
		return nil
	}

	settings, err := config.Load(r.configFile)
	if err != nil {
		return err
	}

	v := settings.Viper()
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}

	r.app = newApp(settings, cmd.ErrOrStderr())
	if used := settings.ConfigFileUsed(); used != "" {
		r.app.Logger.Debug().Str("file", used).Msg("config loaded")
	}
	return nil
}

// Execute runs the vdl command line and returns the process exit code
func Execute(version string) int {
	if err := NewRootCommand(version).Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
