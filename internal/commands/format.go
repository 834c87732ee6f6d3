package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/model"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func day(t time.Time) string {
	return t.Format(dateFormat)
}

func writePostingRows(w io.Writer, postings []model.Posting) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tVOUCHER\tID\tDEBIT\tCREDIT\tAMOUNT\tSTATUS\tDESCRIPTION")
	for _, p := range postings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			day(p.Date), p.VoucherNo, p.ID, p.DebitAccount, p.CreditAccount, money(p.Amount), p.Status, p.Description)
	}
	return tw.Flush()
}
