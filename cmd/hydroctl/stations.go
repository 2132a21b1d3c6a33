package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hydroviewer/hydroviewer/internal/hydro"
	"github.com/hydroviewer/hydroviewer/internal/stationid"
)

func newStationsCmd(c *cli) *cobra.Command {
	var noaa bool

	cmd := &cobra.Command{
		Use:   "stations",
		Short: "List discharge or NOAA stations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.pipeline(nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var stations []hydro.Station
			if noaa {
				stations = p.Resolver.NOAAStations(ctx)
			} else {
				stations = p.Resolver.Stations(ctx)
			}
			if b := p.Resolver.Banner(); b.Raised {
				c.logger.Warn().Interface("domains", b.Domains).Msg(b.Message)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tCOORDS")
			seen := make(map[string]bool, len(stations))
			for _, s := range stations {
				if seen[s.ID] {
					continue
				}
				seen[s.ID] = true
				label := stationid.Label(s.ID, s.DisplayName())
				if noaa {
					label = stationid.NOAALabel(s.ID, s.Name)
				}
				coords := "-"
				if s.HasCoords() {
					coords = fmt.Sprintf("%.4f, %.4f", *s.Lat, *s.Lon)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, label, coords)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&noaa, "noaa", false, "list NOAA tide stations")
	return cmd
}
