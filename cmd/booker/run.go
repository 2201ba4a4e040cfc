package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkordes/campsite-booking/internal/app"
	"github.com/pkordes/campsite-booking/internal/config"
	"github.com/pkordes/campsite-booking/internal/domain"
	"github.com/pkordes/campsite-booking/internal/service"
)

// runResult is the --json output of `booker run`.
type runResult struct {
	Total        int                            `json:"total"`
	Allocated    int                            `json:"allocated"`
	Duplicates   int                            `json:"duplicates"`
	Unallocated  int                            `json:"unallocated"`
	Invalid      int                            `json:"invalid"`
	Failed       int                            `json:"failed"`
	ArrivalToday []int64                        `json:"arriving_today"`
	SummaryKey   string                         `json:"summary_key"`
	TotalSales   float64                        `json:"total_sales"`
	Utilization  map[int]domain.SiteUtilization `json:"utilization"`
	PublishError string                         `json:"publish_error,omitempty"`
}

func runCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch pending bookings, allocate them and publish the summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadFrom(opts.envFile)
			if err != nil {
				return err
			}
			// Logs go to stderr so stdout carries only the report.
			logger := app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			report, err := a.Bookings.ProcessPending(ctx)
			if err != nil {
				return err
			}

			summary, err := a.Summaries.Generate(ctx, report.Bookings)
			if err != nil {
				return err
			}

			var publishErr error
			if _, err := a.Summaries.Publish(ctx, summary); err != nil {
				// The allocations are already stored; report and keep going.
				logger.ErrorContext(ctx, "summary publish failed", "summary", summary.Key(), "error", err)
				publishErr = err
			}

			out := cmd.OutOrStdout()
			now := time.Now()
			if opts.outputJSON {
				res := runResult{
					Total:        report.Total(),
					Allocated:    report.Allocated,
					Duplicates:   report.Duplicates,
					Unallocated:  report.Unallocated,
					Invalid:      report.Invalid,
					Failed:       report.Failed,
					ArrivalToday: arrivingToday(report.Bookings, now),
					SummaryKey:   summary.Key(),
					TotalSales:   summary.TotalSales,
					Utilization:  summary.Utilization,
				}
				if publishErr != nil {
					res.PublishError = publishErr.Error()
				}
				return writeJSON(out, res)
			}
			return printRun(out, report, summary, now)
		},
	}
}

func printRun(w io.Writer, report service.ProcessingReport, summary domain.Summary, now time.Time) error {
	fmt.Fprintf(w, "Processed %d booking(s): %d allocated, %d duplicate, %d unallocated, %d invalid, %d failed\n",
		report.Total(), report.Allocated, report.Duplicates, report.Unallocated, report.Invalid, report.Failed)
	if ids := arrivingToday(report.Bookings, now); len(ids) > 0 {
		fmt.Fprintf(w, "Arriving today: %v\n", ids)
	}
	fmt.Fprintf(w, "Summary %s: total sales $%.2f over %d booking(s)\n\n",
		summary.Key(), summary.TotalSales, summary.TotalBookings)
	return printUtilization(w, summary.Utilization)
}

// arrivingToday lists the allocated bookings whose requested arrival is
// now's calendar day.
func arrivingToday(bookings []domain.Booking, now time.Time) []int64 {
	ids := []int64{}
	for _, b := range bookings {
		if b.Allocated() && b.IsArrivalToday(now) {
			ids = append(ids, b.BookingID)
		}
	}
	return ids
}

func printUtilization(w io.Writer, util map[int]domain.SiteUtilization) error {
	sites := make([]int, 0, len(util))
	for site := range util {
		sites = append(sites, site)
	}
	sort.Ints(sites)

	writer := tabwriter.NewWriter(w, 2, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "SITE\tSIZE\tRATE\tBOOKINGS")
	for _, site := range sites {
		u := util[site]
		fmt.Fprintf(writer, "%d\t%s\t$%.2f\t%d\n", site, u.Size, u.RatePerNight, u.BookingsCount)
	}
	return writer.Flush()
}
