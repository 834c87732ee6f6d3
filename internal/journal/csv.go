// Package journal reads and writes voucher batches as CSV. Collaborators
// (fee collection, payroll, voucher entry) hand postings to the ledger in
// this format.
package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/model"
)

// Header is the CSV header of a voucher batch.
const Header = "voucher_no,date,type,debit_account,credit_account,amount,status,description,student_id,department,details,cheque_no"

const (
	numFields  = 12
	dateFormat = "2006-01-02"
	colVoucher = 0
	colDate    = 1
	colType    = 2
	colDebit   = 3
	colCredit  = 4
	colAmount  = 5
	colStatus  = 6
	colDesc    = 7
	colStudent = 8
	colDept    = 9
	colDetails = 10
	colCheque  = 11
)

// ReadPostings reads every row of a voucher batch.
func ReadPostings(r io.Reader) ([]model.Posting, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading voucher CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var postings []model.Posting
	for i, rec := range records[1:] {
		p, err := UnmarshalPosting(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		postings = append(postings, p)
	}
	return postings, nil
}

// WritePostings writes postings to w, header first.
func WritePostings(w io.Writer, postings []model.Posting) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, p := range postings {
		if err := cw.Write(MarshalPosting(p)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalPosting converts a Posting to a CSV row.
func MarshalPosting(p model.Posting) []string {
	row := make([]string, numFields)
	row[colVoucher] = p.VoucherNo
	if !p.Date.IsZero() {
		row[colDate] = p.Date.Format(dateFormat)
	}
	row[colType] = p.Type
	row[colDebit] = p.DebitAccount
	row[colCredit] = p.CreditAccount
	row[colAmount] = p.Amount.StringFixed(2)
	row[colStatus] = string(p.Status)
	row[colDesc] = p.Description
	row[colStudent] = p.StudentID
	row[colDept] = p.Department
	row[colDetails] = FormatDetails(p.Details)
	row[colCheque] = p.ChequeNo
	return row
}

// UnmarshalPosting converts a CSV row to a Posting. Posting IDs are never
// read from a batch; the ledger assigns them.
func UnmarshalPosting(record []string) (model.Posting, error) {
	if len(record) != numFields {
		return model.Posting{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, strings.TrimSpace(record[colDate]))
	if err != nil {
		return model.Posting{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.Posting{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	details, err := ParseDetails(record[colDetails])
	if err != nil {
		return model.Posting{}, err
	}

	return model.Posting{
		VoucherNo:     strings.TrimSpace(record[colVoucher]),
		Date:          date,
		Type:          strings.TrimSpace(record[colType]),
		DebitAccount:  strings.TrimSpace(record[colDebit]),
		CreditAccount: strings.TrimSpace(record[colCredit]),
		Amount:        amount,
		Status:        model.Status(strings.TrimSpace(record[colStatus])),
		Description:   record[colDesc],
		StudentID:     strings.TrimSpace(record[colStudent]),
		Department:    strings.TrimSpace(record[colDept]),
		Details:       details,
		ChequeNo:      strings.TrimSpace(record[colCheque]),
	}, nil
}

// FormatDetails encodes a fee-head breakdown as "Head=Amount;Head=Amount".
func FormatDetails(details []model.DetailLine) string {
	parts := make([]string, len(details))
	for i, d := range details {
		parts[i] = d.Head + "=" + d.Amount.StringFixed(2)
	}
	return strings.Join(parts, ";")
}

// ParseDetails decodes the FormatDetails encoding. An empty string is no details.
func ParseDetails(s string) ([]model.DetailLine, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []model.DetailLine
	for _, part := range strings.Split(s, ";") {
		head, amt, ok := strings.Cut(part, "=")
		head = strings.TrimSpace(head)
		if !ok || head == "" {
			return nil, fmt.Errorf("parsing detail %q: want Head=Amount", part)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amt))
		if err != nil {
			return nil, fmt.Errorf("parsing detail %q: %w", part, err)
		}
		out = append(out, model.DetailLine{Head: head, Amount: amount})
	}
	return out, nil
}

// Batches groups postings into vouchers in first-seen order. Rows sharing a
// voucher number form one batch; rows without one are a batch each.
func Batches(postings []model.Posting) [][]model.Posting {
	var out [][]model.Posting
	index := make(map[string]int)
	for _, p := range postings {
		if p.VoucherNo == "" {
			out = append(out, []model.Posting{p})
			continue
		}
		if i, ok := index[p.VoucherNo]; ok {
			out[i] = append(out[i], p)
			continue
		}
		index[p.VoucherNo] = len(out)
		out = append(out, []model.Posting{p})
	}
	return out
}
