package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ytget/vdl/internal/model"
)

const defaultHistoryLimit = 20

func (r *root) newHistoryCommand() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished downloads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := r.app.openHistory(r.app.Logger)
			defer store.Close()

			records, err := store.List(limit)
			if err != nil {
				return fmt.Errorf("failed to list history: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			return printHistory(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "maximum entries to show, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	return cmd
}

func printHistory(w io.Writer, records []model.SessionRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No downloads yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tSTATUS\tTRIES\tTITLE\tERROR")
	for _, rec := range records {
		title := rec.Title
		if title == "" {
			title = rec.URL
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			rec.FinishedAt.Local().Format(time.DateTime), rec.Status, rec.Attempts, title, rec.Error)
	}
	return tw.Flush()
}
