package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cleared-dev/bursar/internal/model"
)

const (
	numFields = 5
	colCode   = 0
	colName   = 1
	colCat    = 2
	colParent = 3
	colLiquid = 4
)

var header = []string{"code", "name", "category", "parent_code", "liquid"}

// ReadAccounts reads chart-of-accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colCat] = string(acct.Category)
	row[colParent] = acct.ParentCode
	row[colLiquid] = strconv.FormatBool(acct.Liquid)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	cat := model.Category(record[colCat])
	if !cat.Valid() {
		return model.Account{}, fmt.Errorf("unknown category %q for account %s", record[colCat], record[colCode])
	}

	var liquid bool
	if record[colLiquid] != "" {
		var err error
		liquid, err = strconv.ParseBool(record[colLiquid])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing liquid %q: %w", record[colLiquid], err)
		}
	}

	return model.Account{
		Code:       record[colCode],
		Name:       record[colName],
		Category:   cat,
		ParentCode: record[colParent],
		Liquid:     liquid,
	}, nil
}
