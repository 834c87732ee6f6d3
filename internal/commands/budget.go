package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/budget"
)

func newBudgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Department budgets and variance",
	}
	cmd.AddCommand(
		newBudgetCreateCommand(),
		newBudgetSetCommand(),
		newBudgetDeleteCommand(),
		newBudgetListCommand(),
		newBudgetVarianceCommand(),
	)
	return cmd
}

func newBudgetCreateCommand() *cobra.Command {
	var (
		year       int
		department string
		total      string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an annual budget spread evenly across the months",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(total)
			if err != nil {
				return fmt.Errorf("invalid total %q: %w", total, err)
			}
			return withApp(cmd, func(a *app) error {
				b, err := a.budgets.Create(year, department, amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created budget %s (%s %d, %s)\n", b.ID, b.Department, b.Year, money(b.TotalBudget))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "budget year")
	cmd.Flags().StringVar(&department, "department", "", "department (required)")
	cmd.Flags().StringVar(&total, "total", "", "annual total (required)")
	_ = cmd.MarkFlagRequired("department")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

func newBudgetSetCommand() *cobra.Command {
	var (
		month  int
		amount string
	)
	cmd := &cobra.Command{
		Use:   "set <budget-id>",
		Short: "Change one month's allocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}
			return withApp(cmd, func(a *app) error {
				b, err := a.budgets.Reallocate(args[0], time.Month(month), amt)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s, total %s\n", time.Month(month), money(amt), money(b.TotalBudget))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "new allocation (required)")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newBudgetDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.budgets.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget %s\n", args[0])
				return nil
			})
		},
	}
}

func newBudgetListCommand() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				budgets, err := a.budgets.List(year)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tYEAR\tDEPARTMENT\tTOTAL")
				for _, b := range budgets {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", b.ID, b.Year, b.Department, money(b.TotalBudget))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "only this year (default: all)")
	return cmd
}

func newBudgetVarianceCommand() *cobra.Command {
	var month int
	cmd := &cobra.Command{
		Use:   "variance <budget-id>",
		Short: "Compare allocations with actual department spending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if month < 0 || month > 12 {
				return fmt.Errorf("--month must be 1-12")
			}
			return withApp(cmd, func(a *app) error {
				out := cmd.OutOrStdout()
				if month != 0 {
					row, err := a.budgets.Variance(args[0], time.Month(month))
					if err != nil {
						return err
					}
					return writeVariance(out, []budget.VarianceRow{row}, nil)
				}
				rep, err := a.budgets.Report(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %d\n", rep.Budget.Department, rep.Budget.Year)
				return writeVariance(out, rep.Rows, &rep.Total)
			})
		},
	}
	cmd.Flags().IntVar(&month, "month", 0, "single month 1-12 (default: whole year)")
	return cmd
}

func writeVariance(w io.Writer, rows []budget.VarianceRow, total *budget.VarianceRow) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "MONTH\tALLOCATED\tACTUAL\tVARIANCE\t%\tSTATUS")
	line := func(label string, r budget.VarianceRow) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			label, money(r.Allocated), money(r.Actual), money(r.Variance), r.Percent.StringFixed(2), r.Status)
	}
	for _, r := range rows {
		line(r.Month.String(), r)
	}
	if total != nil {
		line("Total", *total)
	}
	return tw.Flush()
}
