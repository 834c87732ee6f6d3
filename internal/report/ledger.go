package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/balance"
	"github.com/cleared-dev/bursar/internal/model"
)

// Side tags which leg of a posting hit the account.
type Side string

const (
	Debit  Side = "Debit"
	Credit Side = "Credit"
)

// LedgerRow is one posting on an account statement.
type LedgerRow struct {
	Date        time.Time
	VoucherNo   string
	PostingID   string
	Description string
	// Contra is the account on the other leg.
	Contra  string
	Side    Side
	Amount  decimal.Decimal
	Running decimal.Decimal
}

// GeneralLedger is a single-account statement.
type GeneralLedger struct {
	Account model.Account
	From    time.Time
	To      time.Time
	Opening decimal.Decimal
	Rows    []LedgerRow
	Closing decimal.Decimal
}

// GeneralLedger returns the statement of one account over [from, to]. Rows
// follow date order, ties in store order.
func (g *Generator) GeneralLedger(code string, from, to time.Time) (GeneralLedger, error) {
	acct, err := g.chart.Lookup(code)
	if err != nil {
		return GeneralLedger{}, err
	}
	eng := g.engine()
	pred := balance.Code(code)

	gl := GeneralLedger{Account: acct, From: from, To: to, Opening: eng.Opening(pred, from)}
	running := gl.Opening
	for _, p := range sortedByDate(eng.Postings()) {
		if !p.Touches(code) || !model.InWindow(p.Date, from, to) {
			continue
		}
		row := LedgerRow{
			Date:        p.Date,
			VoucherNo:   p.VoucherNo,
			PostingID:   p.ID,
			Description: p.Description,
			Amount:      p.Amount,
		}
		if p.DebitAccount == code {
			row.Side, row.Contra = Debit, p.CreditAccount
			running = running.Add(p.Amount)
		} else {
			row.Side, row.Contra = Credit, p.DebitAccount
			running = running.Sub(p.Amount)
		}
		row.Running = running
		gl.Rows = append(gl.Rows, row)
	}
	gl.Closing = running
	return gl, nil
}
