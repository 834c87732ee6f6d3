// Package report builds the ledger's financial reports. Every report is
// recomputed from one posting snapshot and the chart of accounts; nothing is
// stored between calls.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/balance"
	"github.com/cleared-dev/bursar/internal/model"
)

// RetainedEarnings is the label of the derived equity line on the balance sheet.
const RetainedEarnings = "Retained Earnings"

// Chart is the chart of accounts as the reports need it.
type Chart interface {
	balance.Chart
	Leaves() []model.Account
}

// Generator produces reports from a chart and a posting source.
type Generator struct {
	chart Chart
	src   balance.Source
}

// NewGenerator returns a Generator reading postings from src.
func NewGenerator(chart Chart, src balance.Source) *Generator {
	return &Generator{chart: chart, src: src}
}

// engine pins one snapshot so a report never mixes states.
func (g *Generator) engine() *balance.Engine {
	return balance.FromSource(g.chart, g.src)
}

// TrialBalanceRow is one account's net balance in the debit or credit column.
type TrialBalanceRow struct {
	Code   string
	Name   string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// TrialBalance lists every level-3 account with a nonzero balance.
type TrialBalance struct {
	AsOf        time.Time
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Balanced reports whether the debit and credit totals agree.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// TrialBalance returns the trial balance as of to. A zero to covers every posting.
func (g *Generator) TrialBalance(to time.Time) TrialBalance {
	eng := g.engine()
	tb := TrialBalance{AsOf: to, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range g.chart.Leaves() {
		bal := eng.Balance(balance.Code(a.Code), time.Time{}, to)
		if bal.IsZero() {
			continue
		}
		row := TrialBalanceRow{Code: a.Code, Name: a.Name, Debit: decimal.Zero, Credit: decimal.Zero}
		if bal.IsPositive() {
			row.Debit = bal
			tb.TotalDebit = tb.TotalDebit.Add(bal)
		} else {
			row.Credit = bal.Neg()
			tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		}
		tb.Rows = append(tb.Rows, row)
	}
	return tb
}

// Line is one account on a statement.
type Line struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// Section is a titled group of statement lines with its total.
type Section struct {
	Title string
	Lines []Line
	Total decimal.Decimal
}

// IncomeStatement reports revenue and expense over a window.
type IncomeStatement struct {
	From, To  time.Time
	Income    Section
	Expense   Section
	NetResult decimal.Decimal
}

// IncomeStatement returns income (sign-flipped to positive) and expense over
// [from, to]. Accounts without movement are omitted.
func (g *Generator) IncomeStatement(from, to time.Time) IncomeStatement {
	eng := g.engine()
	is := IncomeStatement{
		From:    from,
		To:      to,
		Income:  g.section(eng, "Income", model.CategoryIncome, from, to, true),
		Expense: g.section(eng, "Expense", model.CategoryExpense, from, to, false),
	}
	is.NetResult = is.Income.Total.Sub(is.Expense.Total)
	return is
}

// BalanceSheet reports cumulative position as of a date.
type BalanceSheet struct {
	AsOf        time.Time
	Assets      Section
	Liabilities Section
	Equity      Section
	// TotalLiabilitiesAndEquity is Liabilities.Total + Equity.Total.
	TotalLiabilitiesAndEquity decimal.Decimal
}

// Balanced reports whether assets equal liabilities plus equity.
func (bs BalanceSheet) Balanced() bool {
	return bs.Assets.Total.Equal(bs.TotalLiabilitiesAndEquity)
}

// BalanceSheet returns assets against liabilities and equity as of to. Equity
// carries a derived Retained Earnings line: cumulative income minus expense.
func (g *Generator) BalanceSheet(to time.Time) BalanceSheet {
	eng := g.engine()
	bs := BalanceSheet{
		AsOf:        to,
		Assets:      g.section(eng, "Assets", model.CategoryAsset, time.Time{}, to, false),
		Liabilities: g.section(eng, "Liabilities", model.CategoryLiability, time.Time{}, to, true),
		Equity:      g.section(eng, "Equity", model.CategoryEquity, time.Time{}, to, true),
	}

	income := eng.Balance(balance.CategoryIs(model.CategoryIncome), time.Time{}, to).Neg()
	expense := eng.Balance(balance.CategoryIs(model.CategoryExpense), time.Time{}, to)
	retained := income.Sub(expense)
	bs.Equity.Lines = append(bs.Equity.Lines, Line{Name: RetainedEarnings, Amount: retained})
	bs.Equity.Total = bs.Equity.Total.Add(retained)

	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total.Add(bs.Equity.Total)
	return bs
}

// section collects nonzero leaf balances of one category. flip negates the
// balances so credit-normal categories display as positive amounts.
func (g *Generator) section(eng *balance.Engine, title string, cat model.Category, from, to time.Time, flip bool) Section {
	s := Section{Title: title, Total: decimal.Zero}
	for _, a := range g.chart.Leaves() {
		if a.Category != cat {
			continue
		}
		amt := eng.Balance(balance.Code(a.Code), from, to)
		if amt.IsZero() {
			continue
		}
		if flip {
			amt = amt.Neg()
		}
		s.Lines = append(s.Lines, Line{Code: a.Code, Name: a.Name, Amount: amt})
		s.Total = s.Total.Add(amt)
	}
	return s
}
