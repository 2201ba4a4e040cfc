package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pkordes/campsite-booking/internal/domain"
)

type campsiteRow struct {
	SiteNumber   int     `json:"site_number"`
	Size         string  `json:"size"`
	RatePerNight float64 `json:"rate_per_night"`
}

func campsitesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "campsites",
		Short: "Print the configured campsite inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := domain.NewInventory(domain.DefaultSiteClasses())
			if err != nil {
				return err
			}
			if opts.outputJSON {
				rows := make([]campsiteRow, 0, inv.Len())
				for _, c := range inv.Campsites() {
					rows = append(rows, campsiteRow{SiteNumber: c.SiteNumber, Size: string(c.Size), RatePerNight: c.RatePerNight})
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			return printCampsites(cmd.OutOrStdout(), inv.Campsites())
		},
	}
}

func printCampsites(w io.Writer, sites []domain.Campsite) error {
	writer := tabwriter.NewWriter(w, 2, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "SITE\tSIZE\tRATE/NIGHT\tWEEK")
	for _, c := range sites {
		fmt.Fprintf(writer, "%d\t%s\t$%.2f\t$%.2f\n", c.SiteNumber, c.Size, c.RatePerNight, c.RatePerNight*domain.StayNights)
	}
	return writer.Flush()
}
