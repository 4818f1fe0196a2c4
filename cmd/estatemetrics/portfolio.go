package main

import (
	"strconv"
	"text/tabwriter"

	"estatemetrics/internal/app"
	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/format"

	"github.com/spf13/cobra"
)

func newEstatesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estates",
		Short: "Manage estates",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(
		newEstatesListCmd(opts),
		newEstatesCreateCmd(opts),
	)

	return cmd
}

func newEstatesListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your estates",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			estates, err := a.Portfolio.Estates(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = w.Write([]byte("ID\tTYPE\tNAME\n"))
			for _, e := range estates {
				_, _ = w.Write([]byte(strconv.FormatInt(e.ID, 10) + "\t" + e.EstateTypeName + "\t" + e.Name + "\n"))
			}
			return w.Flush()
		}),
	}
}

func newEstatesCreateCmd(opts *options) *cobra.Command {
	var req models.EstateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add an estate",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			if err := a.Dictionaries.Init(cmd.Context()); err == nil {
				if _, ok := a.Dictionaries.EstateType(req.EstateTypeID); !ok {
					printf(cmd, "known estate types:\n")
					for _, o := range a.Dictionaries.EstateTypeOptions() {
						printf(cmd, "  %d  %s\n", o.Value, o.Label)
					}
				}
			}

			estate, err := a.Portfolio.CreateEstate(cmd.Context(), req)
			if err != nil {
				return err
			}
			printf(cmd, "created estate %d %q\n", estate.ID, estate.Name)
			return nil
		}),
	}

	cmd.Flags().Int64Var(&req.EstateTypeID, "type", 0, "estate type id")
	cmd.Flags().StringVar(&req.Name, "name", "", "estate name")
	cmd.Flags().StringVar(&req.Description, "description", "", "estate description")

	return cmd
}

func newTransactionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Inspect transactions",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newTransactionsListCmd(opts))

	return cmd
}

func newTransactionsListCmd(opts *options) *cobra.Command {
	var (
		estateID int64
		filter   models.TransactionFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the transactions of an estate",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, a *app.App) error {
			page, err := a.Portfolio.EstateTransactions(cmd.Context(), estateID, filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = w.Write([]byte("ID\tDATE\tAMOUNT\tDESCRIPTION\n"))
			for _, tx := range page.Data {
				date := tx.Date
				if date == "" {
					date = tx.StartDate
				}
				if d, err := format.Date(date); err == nil {
					date = d
				}
				amount := format.Currency(tx.Amount)
				if tx.Direction == models.DirectionExpense {
					amount = "-" + amount
				}
				_, _ = w.Write([]byte(strconv.FormatInt(tx.ID, 10) + "\t" + date + "\t" + amount + "\t" + tx.Description + "\n"))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			printf(cmd, "page %d of %d, %d total\n", page.Page, page.TotalPages, page.TotalItems)
			return nil
		}),
	}

	cmd.Flags().Int64Var(&estateID, "estate", 0, "estate id")
	cmd.Flags().IntVar(&filter.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "page size")
	cmd.Flags().StringVar(&filter.DateStart, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&filter.DateEnd, "to", "", "last date, YYYY-MM-DD")

	return cmd
}
