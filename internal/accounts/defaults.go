package accounts

import (
	"strings"

	"github.com/cleared-dev/bursar/internal/model"
)

// LiquidRule decides which leaf accounts are cash or bank.
// A leaf is liquid when its code starts with Prefix and is not listed in Exclude.
type LiquidRule struct {
	Prefix  string
	Exclude []string
}

// CashInHand is the liquid account that holds physical cash; the other
// liquid accounts are bank accounts.
const CashInHand = "1-01-001"

// DefaultLiquidRule tags 1-01-* as liquid except the fee receivable 1-01-004.
var DefaultLiquidRule = LiquidRule{Prefix: "1-01", Exclude: []string{"1-01-004"}}

// Matches reports whether code is liquid under the rule.
func (r LiquidRule) Matches(code string) bool {
	if model.CodeLevel(code) != model.LeafLevel || r.Prefix == "" {
		return false
	}
	if !strings.HasPrefix(code, r.Prefix) {
		return false
	}
	for _, ex := range r.Exclude {
		if code == ex {
			return false
		}
	}
	return true
}

// Tag returns a copy of chart with Liquid set from the rule.
func (r LiquidRule) Tag(chart []model.Account) []model.Account {
	out := make([]model.Account, len(chart))
	for i, a := range chart {
		a.Liquid = r.Matches(a.Code)
		out[i] = a
	}
	return out
}

// DefaultChart returns the default chart of accounts for an institution,
// tagged with rule.
func DefaultChart(rule LiquidRule) []model.Account {
	return rule.Tag(institutionChart())
}

func institutionChart() []model.Account {
	return []model.Account{
		{Code: "1", Name: "Assets", Category: model.CategoryAsset},
		{Code: "1-01", Name: "Current Assets", Category: model.CategoryAsset, ParentCode: "1"},
		{Code: "1-01-001", Name: "Cash in Hand", Category: model.CategoryAsset, ParentCode: "1-01"},
		{Code: "1-01-002", Name: "Bank - Main Account", Category: model.CategoryAsset, ParentCode: "1-01"},
		{Code: "1-01-003", Name: "Bank - Savings Account", Category: model.CategoryAsset, ParentCode: "1-01"},
		{Code: "1-01-004", Name: "Fee Receivable", Category: model.CategoryAsset, ParentCode: "1-01"},
		{Code: "1-02", Name: "Fixed Assets", Category: model.CategoryAsset, ParentCode: "1"},
		{Code: "1-02-001", Name: "Furniture & Equipment", Category: model.CategoryAsset, ParentCode: "1-02"},
		{Code: "1-02-002", Name: "Library Books", Category: model.CategoryAsset, ParentCode: "1-02"},

		{Code: "2", Name: "Liabilities", Category: model.CategoryLiability},
		{Code: "2-01", Name: "Current Liabilities", Category: model.CategoryLiability, ParentCode: "2"},
		{Code: "2-01-001", Name: "Accounts Payable", Category: model.CategoryLiability, ParentCode: "2-01"},
		{Code: "2-01-002", Name: "Advance Fee Received", Category: model.CategoryLiability, ParentCode: "2-01"},
		{Code: "2-01-003", Name: "Salaries Payable", Category: model.CategoryLiability, ParentCode: "2-01"},
		{Code: "2-01-004", Name: "Security Deposits", Category: model.CategoryLiability, ParentCode: "2-01"},

		{Code: "3", Name: "Equity", Category: model.CategoryEquity},
		{Code: "3-01", Name: "Capital", Category: model.CategoryEquity, ParentCode: "3"},
		{Code: "3-01-001", Name: "Capital Fund", Category: model.CategoryEquity, ParentCode: "3-01"},

		{Code: "4", Name: "Income", Category: model.CategoryIncome},
		{Code: "4-01", Name: "Fee Income", Category: model.CategoryIncome, ParentCode: "4"},
		{Code: "4-01-001", Name: "Tuition Fee", Category: model.CategoryIncome, ParentCode: "4-01"},
		{Code: "4-01-002", Name: "Admission Fee", Category: model.CategoryIncome, ParentCode: "4-01"},
		{Code: "4-01-003", Name: "Examination Fee", Category: model.CategoryIncome, ParentCode: "4-01"},
		{Code: "4-01-004", Name: "Transport Fee", Category: model.CategoryIncome, ParentCode: "4-01"},
		{Code: "4-02", Name: "Other Income", Category: model.CategoryIncome, ParentCode: "4"},
		{Code: "4-02-001", Name: "Donations & Grants", Category: model.CategoryIncome, ParentCode: "4-02"},
		{Code: "4-02-002", Name: "Bank Interest", Category: model.CategoryIncome, ParentCode: "4-02"},

		{Code: "5", Name: "Expenses", Category: model.CategoryExpense},
		{Code: "5-01", Name: "Operating Expenses", Category: model.CategoryExpense, ParentCode: "5"},
		{Code: "5-01-001", Name: "Office Supplies", Category: model.CategoryExpense, ParentCode: "5-01"},
		{Code: "5-01-002", Name: "Utilities", Category: model.CategoryExpense, ParentCode: "5-01"},
		{Code: "5-01-003", Name: "Repairs & Maintenance", Category: model.CategoryExpense, ParentCode: "5-01"},
		{Code: "5-01-004", Name: "Teaching Materials", Category: model.CategoryExpense, ParentCode: "5-01"},
		{Code: "5-02", Name: "Staff Costs", Category: model.CategoryExpense, ParentCode: "5"},
		{Code: "5-02-001", Name: "Teaching Salaries", Category: model.CategoryExpense, ParentCode: "5-02"},
		{Code: "5-02-002", Name: "Administrative Salaries", Category: model.CategoryExpense, ParentCode: "5-02"},
	}
}
