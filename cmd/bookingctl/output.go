package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"portfolio/pkg/model"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func withTimeout(cmd *cobra.Command, opts *globalOptions) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, opts.timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBookings(out io.Writer, bookings []*model.Booking) {
	if len(bookings) == 0 {
		fmt.Fprintln(out, "No bookings")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tEMAIL\tCREATED")
	for _, b := range bookings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Status, b.Email, b.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}

func printBooking(out io.Writer, opts *globalOptions, b *model.Booking) error {
	if opts.asJSON {
		return printJSON(out, b)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", b.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", b.Status)
	fmt.Fprintf(tw, "Email:\t%s\n", b.Email)
	fmt.Fprintf(tw, "Created:\t%s\n", b.CreatedAt.Format(time.RFC3339))
	if b.PaymentLinkURL != "" {
		fmt.Fprintf(tw, "Payment link:\t%s\n", b.PaymentLinkURL)
	}
	if b.MeetingLink != "" {
		fmt.Fprintf(tw, "Meeting:\t%s\n", b.MeetingLink)
	}
	fmt.Fprintf(tw, "Context:\t%s\n", b.Context)
	return tw.Flush()
}

func printSummary(out io.Writer, s *model.AnalyticsSummary) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tVIEWS\tVISITORS")
	fmt.Fprintf(tw, "today\t%d\t%d\n", s.Views.Today, s.Visitors.Today)
	fmt.Fprintf(tw, "7 days\t%d\t%d\n", s.Views.Week, s.Visitors.Week)
	fmt.Fprintf(tw, "30 days\t%d\t%d\n", s.Views.Month, s.Visitors.Month)
	_ = tw.Flush()

	if len(s.TopReferrers) > 0 {
		fmt.Fprintln(out, "\nTop referrers:")
		for _, r := range s.TopReferrers {
			fmt.Fprintf(out, "  %-30s %d\n", r.Source, r.Count)
		}
	}
	if len(s.TopClicks) > 0 {
		fmt.Fprintln(out, "\nTop clicks:")
		for _, c := range s.TopClicks {
			fmt.Fprintf(out, "  %-30s %d\n", c.Label, c.Count)
		}
	}
	fmt.Fprintf(out, "\nEvents in window: %d\n", s.TotalEvents)
}
