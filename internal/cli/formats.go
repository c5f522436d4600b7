package cli

import (
	"github.com/spf13/cobra"
)

func (r *root) newFormatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats <url>",
		Short: "List the formats yt-dlp offers for a video",
		Long: `Run yt-dlp -F and print its table of formats.

The codes in the first column can be passed to --format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.ListFormats(cmd.Context(), args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("binary", "", "yt-dlp executable")

	return cmd
}
