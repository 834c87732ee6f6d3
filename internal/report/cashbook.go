package report

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/balance"
	"github.com/cleared-dev/bursar/internal/model"
)

// CashBookLine is one voucher's net effect on the selected liquid accounts.
type CashBookLine struct {
	Date      time.Time
	VoucherNo string
	// Description is the posting's own description, or "Multiple Entries (N)"
	// when the voucher has several lines in the window.
	Description string
	Lines       int
	Receipt     decimal.Decimal
	Payment     decimal.Decimal
	Net         decimal.Decimal
	Running     decimal.Decimal
}

// CashBook is the voucher-grouped statement of a set of liquid accounts.
type CashBook struct {
	From     time.Time
	To       time.Time
	Opening  decimal.Decimal
	Lines    []CashBookLine
	Receipts decimal.Decimal
	Payments decimal.Decimal
	Closing  decimal.Decimal
}

// CashBook groups postings touching pred in [from, to] by voucher number.
// Each voucher contributes debit-side minus credit-side amounts as one line;
// lines are ordered by date, ties kept in first-seen order, and a running
// total starts from the opening balance. A nil pred selects every liquid account.
func (g *Generator) CashBook(pred balance.Predicate, from, to time.Time) CashBook {
	if pred == nil {
		pred = balance.Liquid()
	}
	eng := g.engine()

	type bucket struct {
		line  CashBookLine
		first model.Posting
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, p := range eng.Postings() {
		if !model.InWindow(p.Date, from, to) {
			continue
		}
		debit := eng.Matches(pred, p.DebitAccount)
		credit := eng.Matches(pred, p.CreditAccount)
		if !debit && !credit {
			continue
		}
		b, ok := buckets[p.VoucherNo]
		if !ok {
			b = &bucket{
				line: CashBookLine{
					Date:      p.Date,
					VoucherNo: p.VoucherNo,
					Receipt:   decimal.Zero,
					Payment:   decimal.Zero,
				},
				first: p,
			}
			buckets[p.VoucherNo] = b
			order = append(order, p.VoucherNo)
		}
		b.line.Lines++
		if debit {
			b.line.Receipt = b.line.Receipt.Add(p.Amount)
		}
		if credit {
			b.line.Payment = b.line.Payment.Add(p.Amount)
		}
	}

	lines := make([]CashBookLine, 0, len(order))
	for _, no := range order {
		b := buckets[no]
		b.line.Net = b.line.Receipt.Sub(b.line.Payment)
		if b.line.Lines > 1 {
			b.line.Description = fmt.Sprintf("Multiple Entries (%d)", b.line.Lines)
		} else {
			b.line.Description = b.first.Description
		}
		lines = append(lines, b.line)
	}
	slices.SortStableFunc(lines, func(a, b CashBookLine) int { return a.Date.Compare(b.Date) })

	cb := CashBook{
		From:     from,
		To:       to,
		Opening:  eng.Opening(pred, from),
		Receipts: decimal.Zero,
		Payments: decimal.Zero,
	}
	running := cb.Opening
	for i := range lines {
		running = running.Add(lines[i].Net)
		lines[i].Running = running
		cb.Receipts = cb.Receipts.Add(lines[i].Receipt)
		cb.Payments = cb.Payments.Add(lines[i].Payment)
	}
	cb.Lines = lines
	cb.Closing = running
	return cb
}

// Flow selects the direction of a cash book drill-down.
type Flow string

const (
	// Receipts are postings whose debit leg is liquid.
	Receipts Flow = "receipts"
	// Payments are postings whose credit leg is liquid.
	Payments Flow = "payments"
)

// ParseFlow accepts "receipts" or "payments".
func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case Receipts, Payments:
		return Flow(s), nil
	}
	return "", fmt.Errorf("unknown flow %q (want receipts or payments)", s)
}

// CashEntry is one posting in a cash book drill-down.
type CashEntry struct {
	Date        time.Time
	VoucherNo   string
	PostingID   string
	Account     string
	Contra      string
	Description string
	StudentID   string
	Amount      decimal.Decimal
}

// CashEntries is the result of a drill-down with its total.
type CashEntries struct {
	Flow    Flow
	FeeHead string
	Entries []CashEntry
	Total   decimal.Decimal
}

// CashBookEntries lists the individual receipts or payments behind a cash
// book. For receipts, a non-empty feeHead keeps only postings whose details
// carry that head and reports the head's amount instead of the posting total.
func (g *Generator) CashBookEntries(pred balance.Predicate, from, to time.Time, flow Flow, feeHead string) CashEntries {
	if pred == nil {
		pred = balance.Liquid()
	}
	eng := g.engine()
	out := CashEntries{Flow: flow, FeeHead: feeHead, Total: decimal.Zero}
	for _, p := range sortedByDate(eng.Postings()) {
		if !model.InWindow(p.Date, from, to) {
			continue
		}
		e := CashEntry{
			Date:        p.Date,
			VoucherNo:   p.VoucherNo,
			PostingID:   p.ID,
			Description: p.Description,
			StudentID:   p.StudentID,
			Amount:      p.Amount,
		}
		switch flow {
		case Receipts:
			if !eng.Matches(pred, p.DebitAccount) {
				continue
			}
			e.Account, e.Contra = p.DebitAccount, p.CreditAccount
			if feeHead != "" {
				amt, ok := p.DetailAmount(feeHead)
				if !ok {
					continue
				}
				e.Amount = amt
			}
		case Payments:
			if !eng.Matches(pred, p.CreditAccount) {
				continue
			}
			e.Account, e.Contra = p.CreditAccount, p.DebitAccount
		default:
			continue
		}
		out.Entries = append(out.Entries, e)
		out.Total = out.Total.Add(e.Amount)
	}
	return out
}

func sortedByDate(postings []model.Posting) []model.Posting {
	out := slices.Clone(postings)
	slices.SortStableFunc(out, func(a, b model.Posting) int { return a.Date.Compare(b.Date) })
	return out
}
