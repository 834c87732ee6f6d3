package budget

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/model"
)

// Variance statuses. Critical is checked first, so an overspent month with
// a positive allocation reports Critical rather than Over Budget.
const (
	StatusCritical   = "CRITICAL"
	StatusOverBudget = "Over Budget"
	StatusOnTrack    = "On Track"
)

// Policy decides which postings count as department spending.
type Policy struct {
	// ExpensePrefix selects expense accounts on the debit leg.
	ExpensePrefix string
	// ExcludedTypes are posting types never counted, e.g. fee postings.
	ExcludedTypes []string
	// CriticalRatio flags a month whose remaining variance drops below this
	// share of its allocation.
	CriticalRatio decimal.Decimal
}

// DefaultPolicy counts debits to 5-* accounts and liquid credits, ignores
// FEE postings and flags months with less than 10% left.
var DefaultPolicy = Policy{
	ExpensePrefix: "5",
	ExcludedTypes: []string{model.TypeFee},
	CriticalRatio: decimal.RequireFromString("0.10"),
}

// Counts reports whether p is spending of department under the policy.
func (pol Policy) Counts(p model.Posting, department string, chart LiquidChart) bool {
	if !p.Status.Authoritative() || !strings.EqualFold(p.Department, department) {
		return false
	}
	if slices.ContainsFunc(pol.ExcludedTypes, func(t string) bool { return strings.EqualFold(t, p.Type) }) {
		return false
	}
	expense := pol.ExpensePrefix != "" && strings.HasPrefix(p.DebitAccount, pol.ExpensePrefix)
	return expense || chart.IsLiquid(p.CreditAccount)
}

// Status classifies a variance against its allocation.
func (pol Policy) Status(allocated, variance decimal.Decimal) string {
	switch {
	case allocated.IsPositive() && variance.LessThan(allocated.Mul(pol.CriticalRatio)):
		return StatusCritical
	case variance.IsNegative():
		return StatusOverBudget
	default:
		return StatusOnTrack
	}
}

// VarianceRow compares one month's allocation with actual spending.
type VarianceRow struct {
	Month     time.Month
	Allocated decimal.Decimal
	Actual    decimal.Decimal
	// Variance is Allocated minus Actual.
	Variance decimal.Decimal
	// Percent is Variance as a percentage of Allocated, 0 when nothing is allocated.
	Percent decimal.Decimal
	Status  string
}

// Report is a budget's twelve monthly rows plus the annual total row.
type Report struct {
	Budget model.Budget
	Rows   []VarianceRow
	// Total has Month 0.
	Total VarianceRow
}

var hundred = decimal.NewFromInt(100)

// Variance returns the variance row of one month.
func (s *Service) Variance(budgetID string, month time.Month) (VarianceRow, error) {
	b, err := s.repo.GetBudget(budgetID)
	if err != nil {
		return VarianceRow{}, err
	}
	actual := s.actuals(b)
	return s.row(month, b.Allocated(month), actual[month]), nil
}

// Report returns every month of the budget and the annual totals.
func (s *Service) Report(budgetID string) (Report, error) {
	b, err := s.repo.GetBudget(budgetID)
	if err != nil {
		return Report{}, err
	}
	actual := s.actuals(b)

	rep := Report{Budget: b}
	allocated, spent := decimal.Zero, decimal.Zero
	for m := time.January; m <= time.December; m++ {
		row := s.row(m, b.Allocated(m), actual[m])
		rep.Rows = append(rep.Rows, row)
		allocated = allocated.Add(row.Allocated)
		spent = spent.Add(row.Actual)
	}
	rep.Total = s.row(0, allocated, spent)
	return rep, nil
}

// actuals sums the budget's department spending per month of its year over
// one posting snapshot.
func (s *Service) actuals(b model.Budget) map[time.Month]decimal.Decimal {
	out := make(map[time.Month]decimal.Decimal, 12)
	for _, p := range s.postings.Snapshot() {
		if p.Date.Year() != b.Year || !s.policy.Counts(p, b.Department, s.chart) {
			continue
		}
		out[p.Date.Month()] = out[p.Date.Month()].Add(p.Amount)
	}
	return out
}

func (s *Service) row(month time.Month, allocated, actual decimal.Decimal) VarianceRow {
	variance := allocated.Sub(actual)
	pct := decimal.Zero
	if !allocated.IsZero() {
		pct = variance.Div(allocated).Mul(hundred).Round(2)
	}
	return VarianceRow{
		Month:     month,
		Allocated: allocated,
		Actual:    actual,
		Variance:  variance,
		Percent:   pct,
		Status:    s.policy.Status(allocated, variance),
	}
}
