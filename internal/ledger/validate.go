package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/model"
)

var (
	// ErrInvalidPosting is matched by every validation failure at record time.
	ErrInvalidPosting = errors.New("invalid posting")
	// ErrPostingNotFound is returned when a posting ID is unknown.
	ErrPostingNotFound = errors.New("posting not found")
	// ErrVoucherNotFound is returned when no posting carries a voucher number.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrStatusMismatch is returned by UpdateStatus when a posting is not in the expected state.
	ErrStatusMismatch = errors.New("posting status mismatch")
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Ref         string // posting ID or voucher number
	Description string
	unknown     bool
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.Ref, e.Description)
}

// ValidationErrors is the error returned when a write is refused.
// It matches ErrInvalidPosting, and accounts.ErrUnknownAccount when a leg
// references a code missing from the chart.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = e.Error()
	}
	return "invalid posting: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the sentinels for errors.Is.
func (ve ValidationErrors) Unwrap() []error {
	errs := []error{ErrInvalidPosting}
	for _, e := range ve {
		if e.unknown {
			errs = append(errs, accounts.ErrUnknownAccount)
			break
		}
	}
	return errs
}

// AccountChecker resolves account codes against the chart of accounts.
type AccountChecker interface {
	Exists(code string) bool
	IsLeaf(code string) bool
}

var hundred = decimal.NewFromInt(100)

// ValidatePosting enforces the per-posting invariants:
//  1. debit and credit accounts differ
//  2. amount is positive
//  3. both accounts exist and are level 3
//  4. date is a calendar date
//  5. status is one of the four lifecycle states
//  6. amount has at most 2 decimal places
func ValidatePosting(p model.Posting, chart AccountChecker) []ValidationError {
	var errs []ValidationError
	ref := p.ID
	if ref == "" {
		ref = p.VoucherNo
	}

	if p.DebitAccount == p.CreditAccount {
		errs = append(errs, ValidationError{
			Invariant:   1,
			Ref:         ref,
			Description: fmt.Sprintf("debit and credit account are both %q", p.DebitAccount),
		})
	}

	if !p.Amount.IsPositive() {
		errs = append(errs, ValidationError{
			Invariant:   2,
			Ref:         ref,
			Description: fmt.Sprintf("amount %s must be greater than zero", p.Amount),
		})
	}

	for _, leg := range []struct{ side, code string }{{"debit", p.DebitAccount}, {"credit", p.CreditAccount}} {
		switch {
		case !chart.Exists(leg.code):
			errs = append(errs, ValidationError{
				Invariant:   3,
				Ref:         ref,
				Description: fmt.Sprintf("unknown %s account %q", leg.side, leg.code),
				unknown:     true,
			})
		case !chart.IsLeaf(leg.code):
			errs = append(errs, ValidationError{
				Invariant:   3,
				Ref:         ref,
				Description: fmt.Sprintf("%s account %q is not a level-%d account", leg.side, leg.code, model.LeafLevel),
			})
		}
	}

	if p.Date.IsZero() {
		errs = append(errs, ValidationError{
			Invariant:   4,
			Ref:         ref,
			Description: "date is required",
		})
	} else if !p.Date.Equal(model.Truncate(p.Date)) {
		errs = append(errs, ValidationError{
			Invariant:   4,
			Ref:         ref,
			Description: fmt.Sprintf("date %s carries a time of day", p.Date.Format("2006-01-02T15:04:05")),
		})
	}

	if !p.Status.Valid() {
		errs = append(errs, ValidationError{
			Invariant:   5,
			Ref:         ref,
			Description: fmt.Sprintf("unknown status %q", p.Status),
		})
	}

	if !p.Amount.Mul(hundred).Equal(p.Amount.Mul(hundred).Floor()) {
		errs = append(errs, ValidationError{
			Invariant:   6,
			Ref:         ref,
			Description: fmt.Sprintf("amount %s has more than 2 decimal places", p.Amount),
		})
	}

	return errs
}
