package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/journal"
	"github.com/cleared-dev/bursar/internal/model"
)

type postOptions struct {
	debit, credit string
	amount        string
	date          string
	typ           string
	voucher       string
	status        string
	department    string
	student       string
	cheque        string
	description   string
	details       string
}

func newPostCommand() *cobra.Command {
	var opts postOptions

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record a single posting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.posting()
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				postingID, err := a.ledger.Record(p)
				if err != nil {
					return err
				}
				recorded, err := a.ledger.Get(postingID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s in voucher %s (%s)\n", postingID, recorded.VoucherNo, recorded.Status)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.debit, "debit", "", "debit account code (required)")
	f.StringVar(&opts.credit, "credit", "", "credit account code (required)")
	f.StringVar(&opts.amount, "amount", "", "amount, at most two decimals (required)")
	f.StringVar(&opts.date, "date", "", "posting date YYYY-MM-DD (required)")
	f.StringVar(&opts.status, "status", "", "posted or pending (required)")
	f.StringVar(&opts.typ, "type", model.TypeJournal, "posting type")
	f.StringVar(&opts.voucher, "voucher", "", "voucher number; empty assigns the next one")
	f.StringVar(&opts.department, "department", "", "department charged")
	f.StringVar(&opts.student, "student", "", "student ID")
	f.StringVar(&opts.cheque, "cheque", "", "cheque number")
	f.StringVar(&opts.description, "description", "", "narration")
	f.StringVar(&opts.details, "details", "", `fee-head breakdown, e.g. "Tuition=1000;Library=500"`)
	for _, name := range []string{"debit", "credit", "amount", "date", "status"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (o postOptions) posting() (model.Posting, error) {
	date, err := parseDate(o.date)
	if err != nil {
		return model.Posting{}, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(o.amount))
	if err != nil {
		return model.Posting{}, fmt.Errorf("invalid amount %q: %w", o.amount, err)
	}
	details, err := journal.ParseDetails(o.details)
	if err != nil {
		return model.Posting{}, err
	}
	return model.Posting{
		VoucherNo:     o.voucher,
		Date:          date,
		Type:          o.typ,
		DebitAccount:  o.debit,
		CreditAccount: o.credit,
		Amount:        amount,
		Status:        model.Status(strings.ToLower(o.status)),
		Description:   o.description,
		StudentID:     o.student,
		Department:    o.department,
		Details:       details,
		ChequeNo:      o.cheque,
	}, nil
}

func newImportCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Record a CSV batch of vouchers",
		Long: "Record every voucher in a CSV batch. Rows sharing a voucher number are\n" +
			"recorded together; rows without one become a voucher each.\n\nColumns: " + journal.Header,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readBatch(args[0], model.Status(status))
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				out := cmd.OutOrStdout()
				recorded := 0
				for _, voucher := range journal.Batches(lines) {
					voucherNo, ids, err := a.ledger.RecordVoucher(voucher)
					if err != nil {
						return fmt.Errorf("after %d vouchers: %w", recorded, err)
					}
					recorded++
					fmt.Fprintf(out, "%s\t%d lines\n", voucherNo, len(ids))
				}
				fmt.Fprintf(out, "Imported %d vouchers\n", recorded)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", string(model.StatusPending), "status for rows that leave it blank")

	return cmd
}

// readBatch reads a voucher CSV and fills blank statuses with status.
func readBatch(path string, status model.Status) ([]model.Posting, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch: %w", err)
	}
	defer f.Close()

	lines, err := journal.ReadPostings(f)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s has no postings", path)
	}
	for i := range lines {
		if lines[i].Status == "" {
			lines[i].Status = status
		}
	}
	return lines, nil
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <voucher>",
		Short: "Print the lines of a voucher as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				lines, err := a.ledger.ByVoucher(args[0])
				if err != nil {
					return err
				}
				return journal.WritePostings(cmd.OutOrStdout(), lines)
			})
		},
	}
}
