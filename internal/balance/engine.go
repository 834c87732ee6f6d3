// Package balance computes signed account balances from a posting snapshot.
//
// A balance is the sum of amounts where the debit leg matches minus the sum
// where the credit leg matches, over authoritative postings (Posted and
// DeletePending) dated inside an inclusive window. Nothing is cached: every
// query scans the snapshot.
package balance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/model"
)

// Chart resolves account codes.
type Chart interface {
	Get(code string) (model.Account, bool)
	Lookup(code string) (model.Account, error)
}

// Engine answers balance queries over one immutable snapshot.
type Engine struct {
	chart    Chart
	postings []model.Posting
}

// NewEngine returns an Engine over postings. Postings that are not
// authoritative are dropped up front.
func NewEngine(chart Chart, postings []model.Posting) *Engine {
	live := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if p.Status.Authoritative() {
			live = append(live, p)
		}
	}
	return &Engine{chart: chart, postings: live}
}

// Postings returns the authoritative postings the engine reads, in store order.
func (e *Engine) Postings() []model.Posting {
	return e.postings
}

// Matches reports whether code resolves to an account satisfying pred.
func (e *Engine) Matches(pred Predicate, code string) bool {
	a, ok := e.chart.Get(code)
	return ok && pred(a)
}

// Balance returns debit-side minus credit-side amounts for accounts matching
// pred over [from, to]. A zero from means inception; a zero to is unbounded.
func (e *Engine) Balance(pred Predicate, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.postings {
		if !model.InWindow(p.Date, from, to) {
			continue
		}
		total = total.Add(e.Signed(pred, p))
	}
	return total
}

// Signed returns p's contribution to pred: +amount when the debit leg
// matches, -amount when the credit leg matches, zero when both or neither do.
func (e *Engine) Signed(pred Predicate, p model.Posting) decimal.Decimal {
	amt := decimal.Zero
	if e.Matches(pred, p.DebitAccount) {
		amt = amt.Add(p.Amount)
	}
	if e.Matches(pred, p.CreditAccount) {
		amt = amt.Sub(p.Amount)
	}
	return amt
}

// AccountBalance is Balance for one exact code.
func (e *Engine) AccountBalance(code string, from, to time.Time) (decimal.Decimal, error) {
	if _, err := e.chart.Lookup(code); err != nil {
		return decimal.Zero, err
	}
	return e.Balance(Code(code), from, to), nil
}

// Opening returns the balance of everything dated before from.
func (e *Engine) Opening(pred Predicate, from time.Time) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return e.Balance(pred, time.Time{}, from.AddDate(0, 0, -1))
}

// Closing returns opening plus the movement over [from, to].
func (e *Engine) Closing(pred Predicate, from, to time.Time) decimal.Decimal {
	return e.Opening(pred, from).Add(e.Balance(pred, from, to))
}

// Source supplies posting snapshots, e.g. *ledger.Service.
type Source interface {
	Snapshot() []model.Posting
}

// FromSource builds an Engine over the current snapshot of src.
func FromSource(chart Chart, src Source) *Engine {
	return NewEngine(chart, src.Snapshot())
}
