package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hydroviewer/hydroviewer/internal/stationid"
)

func newIDsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ids RAW...",
		Short: "Normalize station identifiers",
		Long:  "Prints the display id, VTEC id and lookup validity of each raw station id.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RAW\tDISPLAY\tVTEC\tVALID")
			for _, raw := range args {
				_, valid := stationid.Lookup(raw)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n",
					raw, stationid.DischargeDisplayID(raw), stationid.VTECID(raw), valid)
			}
			return tw.Flush()
		},
	}
}
