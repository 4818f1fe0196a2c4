package main

import (
	"time"

	"estatemetrics/internal/app"
	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/format"

	"github.com/spf13/cobra"
)

func newCalendarCmd(opts *options) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show payments and meetings for a month",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			from := time.Now().UTC()
			if month != "" {
				m, err := time.Parse("2006-01", month)
				if err != nil {
					return err
				}
				from = m
			}
			from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)

			items, err := a.Calendar.Items(cmd.Context(), from, from.AddDate(0, 1, 0))
			if err != nil {
				return err
			}

			for _, it := range items {
				line := it.Date.Format(format.DateLayout) + "  " + it.Title
				if it.Source == models.CalendarSourceTransaction {
					sign := "-"
					if it.Income {
						sign = "+"
					}
					line += "  " + sign + format.Currency(it.Amount)
				}
				printf(cmd, "%s\n", line)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&month, "month", "", "month to show, YYYY-MM (default: current)")

	return cmd
}

func newMeetingsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Manage local meetings",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		newMeetingsAddCmd(opts),
		newMeetingsDeleteCmd(opts),
	)

	return cmd
}

func newMeetingsAddCmd(opts *options) *cobra.Command {
	var (
		req  models.CreateMeetingRequest
		date string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a meeting",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			if date != "" {
				d, err := time.Parse(time.RFC3339, date)
				if err != nil {
					if d, err = time.Parse(time.DateOnly, date); err != nil {
						return err
					}
					req.AllDay = true
				}
				req.Date = d
			}

			m, err := a.Calendar.CreateMeeting(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd, "meeting %s added\n", m.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "meeting title")
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD or RFC 3339")
	cmd.Flags().StringVar(&req.Description, "description", "", "notes")
	cmd.Flags().StringVar(&req.Priority, "priority", models.PriorityMedium, "low, medium or high")

	return cmd
}

func newMeetingsDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(cmd *cobra.Command, a *app.App) error {
				if err := a.Calendar.DeleteMeeting(cmd.Context(), args[0]); err != nil {
					return err
				}
				printf(cmd, "meeting %s deleted\n", args[0])
				return nil
			})(cmd, args)
		},
	}
}
