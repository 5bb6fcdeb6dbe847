package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newNearbyCmd(opts *rootOptions) *cobra.Command {
	var (
		lat, lon float64
		radius   int
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Find clinics, doctors, hospitals and pharmacies near a point",
		Long: `Search OpenStreetMap through the server for care facilities.

Examples:
  medtracker-cli nearby --lat 51.5074 --lon -0.1278
  medtracker-cli nearby --lat 28.61 --lon 77.21 --radius 2000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opts.client().Nearby(cmd.Context(), lat, lon, radius)
			if err != nil {
				return fmt.Errorf("nearby: %w", err)
			}
			p := newPrinter(cmd)
			if opts.json {
				_, err := p.out.Write(append(res.Raw, '\n'))
				return err
			}
			if len(res.Places) == 0 {
				p.hintf("No facilities found.")
				return nil
			}

			p.titlef("Facilities (%d)", len(res.Places))
			rows := make([][]string, 0, len(res.Places))
			for _, pl := range res.Places {
				name := pl.Name
				if name == "" {
					name = "(unnamed)"
				}
				rows = append(rows, []string{
					name,
					pl.Amenity,
					strconv.FormatFloat(pl.Lat, 'f', 5, 64),
					strconv.FormatFloat(pl.Lon, 'f', 5, 64),
				})
			}
			p.table([]string{"NAME", "AMENITY", "LAT", "LON"}, rows)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude in degrees")
	cmd.Flags().IntVarP(&radius, "radius", "r", 0, "search radius in meters (default: server default)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
