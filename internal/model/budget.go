package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthAllocation is the planned spend for one calendar month.
type MonthAllocation struct {
	Month     time.Month
	Allocated decimal.Decimal
}

// Budget is a department's annual allocation split across twelve months.
type Budget struct {
	ID          string
	Year        int
	Department  string
	TotalBudget decimal.Decimal
	Allocations []MonthAllocation
}

// AllocationSum returns the live sum of the monthly allocations.
func (b Budget) AllocationSum() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range b.Allocations {
		sum = sum.Add(a.Allocated)
	}
	return sum
}

// Allocated returns the allocation for month, zero if absent.
func (b Budget) Allocated(month time.Month) decimal.Decimal {
	for _, a := range b.Allocations {
		if a.Month == month {
			return a.Allocated
		}
	}
	return decimal.Zero
}
