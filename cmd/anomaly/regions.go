package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/spf13/cobra"
)

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the available regions and their HadUKP source files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCODE\tFILE")
			for _, r := range domain.Regions() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Code, r.SourceFile())
			}
			return tw.Flush()
		},
	}
}
