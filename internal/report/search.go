package report

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/model"
)

// Criteria filters a transaction search. Zero fields match everything.
type Criteria struct {
	// Text matches description, voucher number, student ID and cheque number,
	// case-insensitively.
	Text string
	Type string
	// Account matches either leg, by exact code or as a parent code.
	Account    string
	Statuses   []model.Status
	From, To   time.Time
	MinAmount  decimal.NullDecimal
	MaxAmount  decimal.NullDecimal
	Department string
	StudentID  string
	VoucherNo  string
}

// Match reports whether p satisfies every set criterion.
func (c Criteria) Match(p model.Posting) bool {
	if c.Text != "" && !matchText(p, c.Text) {
		return false
	}
	if c.Type != "" && !strings.EqualFold(p.Type, c.Type) {
		return false
	}
	if c.Account != "" && !underAccount(p.DebitAccount, c.Account) && !underAccount(p.CreditAccount, c.Account) {
		return false
	}
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, p.Status) {
		return false
	}
	if !model.InWindow(p.Date, c.From, c.To) {
		return false
	}
	if c.MinAmount.Valid && p.Amount.LessThan(c.MinAmount.Decimal) {
		return false
	}
	if c.MaxAmount.Valid && p.Amount.GreaterThan(c.MaxAmount.Decimal) {
		return false
	}
	if c.Department != "" && !strings.EqualFold(p.Department, c.Department) {
		return false
	}
	if c.StudentID != "" && p.StudentID != c.StudentID {
		return false
	}
	if c.VoucherNo != "" && p.VoucherNo != c.VoucherNo {
		return false
	}
	return true
}

// Search returns postings in any status matching c, ordered by date then
// voucher number.
func (g *Generator) Search(c Criteria) []model.Posting {
	var out []model.Posting
	for _, p := range g.src.Snapshot() {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Posting) int {
		if n := a.Date.Compare(b.Date); n != 0 {
			return n
		}
		return strings.Compare(a.VoucherNo, b.VoucherNo)
	})
	return out
}

func matchText(p model.Posting, text string) bool {
	text = strings.ToLower(text)
	for _, field := range []string{p.Description, p.VoucherNo, p.StudentID, p.ChequeNo} {
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}

func underAccount(code, account string) bool {
	return code == account || strings.HasPrefix(code, account+"-")
}
