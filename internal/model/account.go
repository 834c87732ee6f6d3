package model

import "strings"

// Category classifies accounts in the chart of accounts.
type Category string

const (
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
	CategoryIncome    Category = "income"
	CategoryExpense   Category = "expense"
)

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryIncome, CategoryExpense:
		return true
	}
	return false
}

// LeafLevel is the only level postings may reference.
const LeafLevel = 3

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	Code       string // "1-01-001"
	Name       string
	Category   Category
	ParentCode string // empty for level-1 roots
	Liquid     bool   // cash on hand or bank
}

// Level returns the depth encoded by the dash-separated code segments.
func (a Account) Level() int {
	return CodeLevel(a.Code)
}

// IsLeaf reports whether the account can be used in a posting.
func (a Account) IsLeaf() bool {
	return a.Level() == LeafLevel
}

// CodeLevel returns the number of segments in an account code.
// "1" -> 1, "1-01" -> 2, "1-01-001" -> 3.
func CodeLevel(code string) int {
	if code == "" {
		return 0
	}
	return strings.Count(code, "-") + 1
}

// ParentOf returns the code one level up, or "" for a root.
func ParentOf(code string) string {
	i := strings.LastIndex(code, "-")
	if i < 0 {
		return ""
	}
	return code[:i]
}
