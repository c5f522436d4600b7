package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func (r *root) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vdl %s (%s %s/%s)\n", r.version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
