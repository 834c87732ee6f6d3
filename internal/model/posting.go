package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a posting.
type Status string

const (
	StatusPosted        Status = "posted"
	StatusPending       Status = "pending"
	StatusRejected      Status = "rejected"
	StatusDeletePending Status = "delete-pending"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPosted, StatusPending, StatusRejected, StatusDeletePending:
		return true
	}
	return false
}

// Authoritative reports whether postings in this state count toward balances.
// DeletePending stays live until a privileged actor confirms the delete.
func (s Status) Authoritative() bool {
	return s == StatusPosted || s == StatusDeletePending
}

// Common posting types. Type is informational only and free-form.
const (
	TypeCashPayment  = "CASH_PAYMENT"
	TypeCashReceipt  = "CASH_RECEIPT"
	TypeBankPayment  = "BANK_PAYMENT"
	TypeBankReceipt  = "BANK_RECEIPT"
	TypeJournal      = "JOURNAL"
	TypeFee          = "FEE"
	TypeFeeReceipt   = "FEE_RECEIPT"
	TypeFeeLiability = "FEE_LIABILITY"
	TypePayroll      = "PAYROLL"
)

// DetailLine is one head of a structured breakdown, e.g. a fee head on a receipt.
type DetailLine struct {
	Head   string
	Amount decimal.Decimal
}

// Posting is one double-entry record: one debit leg, one credit leg, one amount.
type Posting struct {
	ID            string
	VoucherNo     string
	Date          time.Time
	Type          string
	DebitAccount  string
	CreditAccount string
	Amount        decimal.Decimal
	Status        Status
	Description   string
	StudentID     string
	Department    string
	Details       []DetailLine
	ChequeNo      string
}

// Touches reports whether either leg of the posting is code.
func (p Posting) Touches(code string) bool {
	return p.DebitAccount == code || p.CreditAccount == code
}

// DetailAmount returns the amount booked against head and whether it exists.
func (p Posting) DetailAmount(head string) (decimal.Decimal, bool) {
	for _, d := range p.Details {
		if d.Head == head {
			return d.Amount, true
		}
	}
	return decimal.Zero, false
}

// Day returns midnight UTC for the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day component of t.
func Truncate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return Day(t.Year(), t.Month(), t.Day())
}

// InWindow reports whether d falls in [from, to]. A zero bound is open.
func InWindow(d, from, to time.Time) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}
