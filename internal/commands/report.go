package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/balance"
	"github.com/cleared-dev/bursar/internal/model"
	"github.com/cleared-dev/bursar/internal/report"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements and books",
	}
	cmd.AddCommand(
		newTrialBalanceCommand(),
		newIncomeCommand(),
		newBalanceSheetCommand(),
		newLedgerCommand(),
		newCashBookCommand(),
		newSearchCommand(),
	)
	return cmd
}

func newTrialBalanceCommand() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Debit and credit balance of every leaf account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseDate(asOf)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				tb := a.reports.TrialBalance(to)
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "CODE\tACCOUNT\tDEBIT\tCREDIT")
				for _, r := range tb.Rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Code, r.Name, money(r.Debit), money(r.Credit))
				}
				fmt.Fprintf(tw, "\tTotal\t%s\t%s\n", money(tb.TotalDebit), money(tb.TotalCredit))
				if err := tw.Flush(); err != nil {
					return err
				}
				if !tb.Balanced() {
					return fmt.Errorf("trial balance does not balance: debit %s, credit %s",
						money(tb.TotalDebit), money(tb.TotalCredit))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default: all postings)")
	return cmd
}

func newIncomeCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Income and expenditure over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				is := a.reports.IncomeStatement(f, t)
				tw := newTable(cmd.OutOrStdout())
				writeSection(tw, is.Income)
				fmt.Fprintln(tw)
				writeSection(tw, is.Expense)
				fmt.Fprintln(tw)
				label := "Surplus"
				if is.NetResult.IsNegative() {
					label = "Deficit"
				}
				fmt.Fprintf(tw, "\t%s\t%s\n", label, money(is.NetResult))
				return tw.Flush()
			})
		},
	}
	windowFlags(cmd, &from, &to)
	return cmd
}

func newBalanceSheetCommand() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Assets, liabilities and equity as of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := parseDate(asOf)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				bs := a.reports.BalanceSheet(to)
				tw := newTable(cmd.OutOrStdout())
				writeSection(tw, bs.Assets)
				fmt.Fprintln(tw)
				writeSection(tw, bs.Liabilities)
				fmt.Fprintln(tw)
				writeSection(tw, bs.Equity)
				fmt.Fprintln(tw)
				fmt.Fprintf(tw, "\tTotal liabilities and equity\t%s\n", money(bs.TotalLiabilitiesAndEquity))
				if err := tw.Flush(); err != nil {
					return err
				}
				if !bs.Balanced() {
					return fmt.Errorf("balance sheet does not balance: assets %s, liabilities and equity %s",
						money(bs.Assets.Total), money(bs.TotalLiabilitiesAndEquity))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "balance date YYYY-MM-DD (default: all postings)")
	return cmd
}

func writeSection(w io.Writer, s report.Section) {
	fmt.Fprintf(w, "%s\t\t\n", s.Title)
	for _, l := range s.Lines {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Code, l.Name, money(l.Amount))
	}
	fmt.Fprintf(w, "\tTotal %s\t%s\n", strings.ToLower(s.Title), money(s.Total))
}

func newLedgerCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "ledger <account>",
		Short: "Running balance of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parseWindow(from, to)
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				gl, err := a.reports.GeneralLedger(args[0], f, t)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", gl.Account.Code, gl.Account.Name)
				tw := newTable(out)
				fmt.Fprintln(tw, "DATE\tVOUCHER\tDESCRIPTION\tCONTRA\tDEBIT\tCREDIT\tBALANCE")
				fmt.Fprintf(tw, "\t\tOpening balance\t\t\t\t%s\n", money(gl.Opening))
				for _, r := range gl.Rows {
					debit, credit := "", ""
					if r.Side == report.Debit {
						debit = money(r.Amount)
					} else {
						credit = money(r.Amount)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						day(r.Date), r.VoucherNo, r.Description, r.Contra, debit, credit, money(r.Running))
				}
				fmt.Fprintf(tw, "\t\tClosing balance\t\t\t\t%s\n", money(gl.Closing))
				return tw.Flush()
			})
		},
	}
	windowFlags(cmd, &from, &to)
	return cmd
}

type cashBookOptions struct {
	from, to string
	cash     bool
	bank     bool
	flow     string
	feeHead  string
}

func (o cashBookOptions) predicate() (balance.Predicate, error) {
	switch {
	case o.cash && o.bank:
		return nil, fmt.Errorf("--cash and --bank are mutually exclusive")
	case o.cash:
		return balance.Code(accounts.CashInHand), nil
	case o.bank:
		return balance.And(balance.Liquid(), balance.Not(balance.Code(accounts.CashInHand))), nil
	}
	return balance.Liquid(), nil
}

func newCashBookCommand() *cobra.Command {
	var opts cashBookOptions
	cmd := &cobra.Command{
		Use:   "cashbook",
		Short: "Receipts and payments through cash and bank",
		Long: "Without --flow, print one line per voucher with a running balance.\n" +
			"With --flow receipts|payments, list the individual entries, optionally\n" +
			"restricted to one fee head.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, t, err := parseWindow(opts.from, opts.to)
			if err != nil {
				return err
			}
			pred, err := opts.predicate()
			if err != nil {
				return err
			}
			var flow report.Flow
			if opts.flow != "" {
				if flow, err = report.ParseFlow(opts.flow); err != nil {
					return err
				}
			} else if opts.feeHead != "" {
				return fmt.Errorf("--fee-head requires --flow receipts")
			}
			return withApp(cmd, func(a *app) error {
				if flow != "" {
					return writeCashEntries(cmd.OutOrStdout(), a.reports.CashBookEntries(pred, f, t, flow, opts.feeHead))
				}
				return writeCashBook(cmd.OutOrStdout(), a.reports.CashBook(pred, f, t))
			})
		},
	}
	windowFlags(cmd, &opts.from, &opts.to)
	cmd.Flags().BoolVar(&opts.cash, "cash", false, "cash in hand only")
	cmd.Flags().BoolVar(&opts.bank, "bank", false, "bank accounts only")
	cmd.Flags().StringVar(&opts.flow, "flow", "", "list receipts or payments individually")
	cmd.Flags().StringVar(&opts.feeHead, "fee-head", "", "restrict receipts to one fee head")
	return cmd
}

func writeCashBook(w io.Writer, cb report.CashBook) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tVOUCHER\tDESCRIPTION\tRECEIPT\tPAYMENT\tBALANCE")
	fmt.Fprintf(tw, "\t\tOpening balance\t\t\t%s\n", money(cb.Opening))
	for _, l := range cb.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			day(l.Date), l.VoucherNo, l.Description, blankZero(l.Receipt), blankZero(l.Payment), money(l.Running))
	}
	fmt.Fprintf(tw, "\t\tTotal\t%s\t%s\t\n", money(cb.Receipts), money(cb.Payments))
	fmt.Fprintf(tw, "\t\tClosing balance\t\t\t%s\n", money(cb.Closing))
	return tw.Flush()
}

func writeCashEntries(w io.Writer, ce report.CashEntries) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tVOUCHER\tACCOUNT\tCONTRA\tSTUDENT\tDESCRIPTION\tAMOUNT")
	for _, e := range ce.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			day(e.Date), e.VoucherNo, e.Account, e.Contra, e.StudentID, e.Description, money(e.Amount))
	}
	fmt.Fprintf(tw, "\t\t\t\t\tTotal %s\t%s\n", ce.Flow, money(ce.Total))
	return tw.Flush()
}

func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return money(d)
}

type searchOptions struct {
	text, typ, account string
	statuses           []string
	from, to           string
	min, max           string
	department         string
	student            string
	voucher            string
}

func (o searchOptions) criteria() (report.Criteria, error) {
	f, t, err := parseWindow(o.from, o.to)
	if err != nil {
		return report.Criteria{}, err
	}
	c := report.Criteria{
		Text:       o.text,
		Type:       o.typ,
		Account:    o.account,
		From:       f,
		To:         t,
		Department: o.department,
		StudentID:  o.student,
		VoucherNo:  o.voucher,
	}
	for _, s := range o.statuses {
		st := model.Status(strings.ToLower(strings.TrimSpace(s)))
		if !st.Valid() {
			return report.Criteria{}, fmt.Errorf("unknown status %q", s)
		}
		c.Statuses = append(c.Statuses, st)
	}
	if c.MinAmount, err = nullDecimal(o.min); err != nil {
		return report.Criteria{}, err
	}
	if c.MaxAmount, err = nullDecimal(o.max); err != nil {
		return report.Criteria{}, err
	}
	return c, nil
}

func nullDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func newSearchCommand() *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Find postings in any status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.text = args[0]
			}
			c, err := opts.criteria()
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				return writePostingRows(cmd.OutOrStdout(), a.reports.Search(c))
			})
		},
	}
	windowFlags(cmd, &opts.from, &opts.to)
	f := cmd.Flags()
	f.StringVar(&opts.typ, "type", "", "posting type")
	f.StringVar(&opts.account, "account", "", "account code or parent code on either leg")
	f.StringSliceVar(&opts.statuses, "status", nil, "statuses to include (default: all)")
	f.StringVar(&opts.min, "min", "", "minimum amount")
	f.StringVar(&opts.max, "max", "", "maximum amount")
	f.StringVar(&opts.department, "department", "", "department")
	f.StringVar(&opts.student, "student", "", "student ID")
	f.StringVar(&opts.voucher, "voucher", "", "voucher number")
	return cmd
}

func windowFlags(cmd *cobra.Command, from, to *string) {
	cmd.Flags().StringVar(from, "from", "", "start date YYYY-MM-DD, inclusive")
	cmd.Flags().StringVar(to, "to", "", "end date YYYY-MM-DD, inclusive")
}
