package main

import (
	"fmt"
	"io"
	"os"
	"portfolio/pkg/client"
	"portfolio/pkg/model"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	EnvAPIURL   = "PORTFOLIO_API_URL"
	EnvAPIToken = "PORTFOLIO_API_TOKEN"

	defaultAPIURL = "http://localhost:8080"
)

type globalOptions struct {
	apiURL  string
	token   string
	asJSON  bool
	timeout time.Duration
}

func (o *globalOptions) client() *client.BookingClient {
	return client.NewBookingClient(strings.TrimRight(o.apiURL, "/"), o.token)
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Review consultation bookings from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr(EnvAPIURL, defaultAPIURL), "Base URL of the bookings API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv(EnvAPIToken), "Google ID token of an admin")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print raw JSON")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Request timeout")

	rootCmd.AddCommand(
		listCmd(opts),
		getCmd(opts),
		createCmd(opts),
		approveCmd(opts),
		rejectCmd(opts),
		confirmCmd(opts),
		summaryCmd(opts),
		waitCmd(opts),
	)
	return rootCmd
}

func listCmd(opts *globalOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			bookings, err := opts.client().List(ctx)
			if err != nil {
				return err
			}
			if status != "" {
				filtered := bookings[:0]
				for _, b := range bookings {
					if string(b.Status) == status {
						filtered = append(filtered, b)
					}
				}
				bookings = filtered
			}

			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), bookings)
			}
			printBookings(cmd.OutOrStdout(), bookings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only show bookings in this status")
	return cmd
}

func getCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			booking, err := opts.client().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printBooking(cmd.OutOrStdout(), opts, booking)
		},
	}
}

func createCmd(opts *globalOptions) *cobra.Command {
	var email, message, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a booking request as a visitor would",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			result, err := opts.client().Create(ctx, model.BookingRequest{Email: email, Context: message}, idempotencyKey)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s\n", result.BookingID, result.Status, result.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Requester email")
	cmd.Flags().StringVarP(&message, "context", "c", "", "What the consultation is about")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("context")
	return cmd
}

func approveCmd(opts *globalOptions) *cobra.Command {
	var (
		req      client.ApproveRequest
		date     string
		start    string
		duration int
		attendee string
		amount   float64
	)

	cmd := &cobra.Command{
		Use:   "approve [id]",
		Short: "Approve a pending booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" || start != "" {
				req.Schedule = &model.Schedule{
					Date:            date,
					StartTime:       start,
					DurationMinutes: duration,
					AttendeeEmail:   attendee,
				}
			}
			if cmd.Flags().Changed("amount") {
				req.PaymentAmount = &amount
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			booking, err := opts.client().Approve(ctx, args[0], req)
			if err != nil {
				return err
			}
			return printBooking(cmd.OutOrStdout(), opts, booking)
		},
	}

	cmd.Flags().StringVar(&req.CalendarLink, "calendar-link", "", "Scheduling link to send")
	cmd.Flags().StringVar(&req.MeetingLink, "meeting-link", "", "Video meeting link to send")
	cmd.Flags().StringVar(&date, "date", "", "Meeting date, YYYY-MM-DD")
	cmd.Flags().StringVar(&start, "start", "", "Meeting start time, HH:MM")
	cmd.Flags().IntVar(&duration, "duration", 0, "Meeting length in minutes")
	cmd.Flags().StringVar(&attendee, "attendee", "", "Invite this address instead of the requester")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount to charge, in currency units")
	cmd.Flags().StringVar(&req.Currency, "currency", "", "ISO currency code for --amount")
	return cmd
}

func rejectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reject [id]",
		Short: "Reject a booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			booking, err := opts.client().Reject(ctx, args[0])
			if err != nil {
				return err
			}
			return printBooking(cmd.OutOrStdout(), opts, booking)
		},
	}
}

func confirmCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm-payment [id] [payment-reference]",
		Short: "Confirm a completed payment for a booking",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			booking, err := opts.client().ConfirmPayment(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printBooking(cmd.OutOrStdout(), opts, booking)
		},
	}
}

func summaryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show the analytics dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			summary, err := opts.client().Summary(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func waitCmd(opts *globalOptions) *cobra.Command {
	var maxWait time.Duration

	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the API reports healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			httpClient := client.NewHttpClient(strings.TrimRight(opts.apiURL, "/"))
			if err := httpClient.WaitForHealthy(cmd.Context(), maxWait); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxWait, "max-wait", 30*time.Second, "Give up after this long")
	return cmd
}
