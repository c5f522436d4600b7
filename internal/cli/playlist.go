package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/ytget/vdl/internal/model"
	"github.com/ytget/vdl/internal/platform"
)

func (r *root) newPlaylistCommand() *cobra.Command {
	var download bool

	cmd := &cobra.Command{
		Use:   "playlist <url>",
		Short: "List the videos of a YouTube playlist",
		Long: `Resolve a playlist and list its videos.

With --download every video is downloaded as its own session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := platform.NewPlaylistParserService(r.app.Logger)
			playlist, err := parser.ParsePlaylist(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve playlist: %w", err)
			}

			printPlaylist(cmd.OutOrStdout(), playlist)
			if !download {
				return nil
			}
			return r.app.Download(cmd.Context(), playlist.VideoURLs(), cmd.OutOrStdout(), r.plain)
		},
	}

	cmd.Flags().BoolVarP(&download, "download", "d", false, "download every video of the playlist")
	r.addDownloadFlags(cmd)

	return cmd
}

func printPlaylist(w io.Writer, playlist *model.Playlist) {
	color.New(color.Bold).Fprintf(w, "%s (%d videos)\n", playlist.Title, playlist.TotalVideos)
	for i, video := range playlist.Videos {
		fmt.Fprintf(w, "%3d. %s [%s]\n     %s\n", i+1, video.Title, video.Duration, video.URL)
	}
}
