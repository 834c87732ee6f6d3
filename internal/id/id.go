package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FormatVoucherNo returns a voucher number like "2025-03-001".
func FormatVoucherNo(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// ParseVoucherNo parses "2025-03-001" into year, month, seq.
func ParseVoucherNo(voucherNo string) (year, month, seq int, err error) {
	parts := strings.SplitN(voucherNo, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid voucher number format: %q", voucherNo)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in voucher number %q: %w", voucherNo, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in voucher number %q: %w", voucherNo, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("month %d out of range in voucher number %q", month, voucherNo)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in voucher number %q: %w", voucherNo, err)
	}

	return year, month, seq, nil
}

// New returns a time-ordered UUIDv7 string for postings and budgets.
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return u.String()
}

// Valid reports whether s parses as a UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
