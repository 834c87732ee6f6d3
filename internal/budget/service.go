// Package budget allocates annual department budgets across months and
// compares them against actual spending in the ledger.
package budget

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/bursar/internal/balance"
	"github.com/cleared-dev/bursar/internal/id"
	"github.com/cleared-dev/bursar/internal/logger"
	"github.com/cleared-dev/bursar/internal/model"
)

var (
	ErrBudgetNotFound = errors.New("budget not found")
	ErrInvalidBudget  = errors.New("invalid budget")
)

var twelve = decimal.NewFromInt(12)

// Distribute splits total evenly across January..December in whole units,
// rounding down, and puts the remainder on December.
func Distribute(total decimal.Decimal) []model.MonthAllocation {
	per := total.Div(twelve).Floor()
	out := make([]model.MonthAllocation, 12)
	for i := range out {
		out[i] = model.MonthAllocation{Month: time.Month(i + 1), Allocated: per}
	}
	out[11].Allocated = total.Sub(per.Mul(decimal.NewFromInt(11)))
	return out
}

// LiquidChart tells whether an account is cash or bank.
type LiquidChart interface {
	IsLiquid(code string) bool
}

// Service manages budgets and computes variance against ledger postings.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	postings balance.Source
	chart    LiquidChart
	policy   Policy
	log      *zap.SugaredLogger
}

// NewService creates a budget Service.
func NewService(repo Repository, postings balance.Source, chart LiquidChart, policy Policy) *Service {
	return &Service{
		repo:     repo,
		postings: postings,
		chart:    chart,
		policy:   policy,
		log:      logger.Named("budget"),
	}
}

// Create distributes total over the twelve months of year for department.
// A department has at most one budget per year.
func (s *Service) Create(year int, department string, total decimal.Decimal) (model.Budget, error) {
	department = strings.TrimSpace(department)
	switch {
	case year < 1900 || year > 9999:
		return model.Budget{}, fmt.Errorf("%w: year %d out of range", ErrInvalidBudget, year)
	case department == "":
		return model.Budget{}, fmt.Errorf("%w: department is required", ErrInvalidBudget)
	case total.IsNegative():
		return model.Budget{}, fmt.Errorf("%w: total %s is negative", ErrInvalidBudget, total)
	case !total.Equal(total.Round(2)):
		return model.Budget{}, fmt.Errorf("%w: total %s has more than 2 decimal places", ErrInvalidBudget, total)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.ListBudgets(year)
	if err != nil {
		return model.Budget{}, fmt.Errorf("listing budgets: %w", err)
	}
	for _, b := range existing {
		if strings.EqualFold(b.Department, department) {
			return model.Budget{}, fmt.Errorf("%w: %s already has a budget for %d (%s)", ErrInvalidBudget, department, year, b.ID)
		}
	}

	b := model.Budget{
		ID:          id.New(),
		Year:        year,
		Department:  department,
		TotalBudget: total,
		Allocations: Distribute(total),
	}
	if err := s.repo.CreateBudget(b); err != nil {
		return model.Budget{}, fmt.Errorf("creating budget: %w", err)
	}
	s.log.Infow("budget created", "budget_id", b.ID, "year", year, "department", department, "total", total.String())
	return b, nil
}

// Reallocate sets one month's allocation and recomputes the total.
func (s *Service) Reallocate(budgetID string, month time.Month, amount decimal.Decimal) (model.Budget, error) {
	if month < time.January || month > time.December {
		return model.Budget{}, fmt.Errorf("%w: month %d out of range", ErrInvalidBudget, month)
	}
	if amount.IsNegative() {
		return model.Budget{}, fmt.Errorf("%w: allocation %s is negative", ErrInvalidBudget, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return model.Budget{}, fmt.Errorf("%w: allocation %s has more than 2 decimal places", ErrInvalidBudget, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.repo.GetBudget(budgetID)
	if err != nil {
		return model.Budget{}, err
	}
	found := false
	for i := range b.Allocations {
		if b.Allocations[i].Month == month {
			b.Allocations[i].Allocated = amount
			found = true
		}
	}
	if !found {
		b.Allocations = append(b.Allocations, model.MonthAllocation{Month: month, Allocated: amount})
	}
	b.TotalBudget = b.AllocationSum()

	if err := s.repo.UpdateBudget(b); err != nil {
		return model.Budget{}, fmt.Errorf("updating budget: %w", err)
	}
	s.log.Infow("budget reallocated", "budget_id", b.ID, "month", month.String(), "amount", amount.String(), "total", b.TotalBudget.String())
	return b, nil
}

// Delete removes a budget outright.
func (s *Service) Delete(budgetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.DeleteBudget(budgetID); err != nil {
		return err
	}
	s.log.Infow("budget deleted", "budget_id", budgetID)
	return nil
}

// Get returns a budget by ID.
func (s *Service) Get(budgetID string) (model.Budget, error) {
	return s.repo.GetBudget(budgetID)
}

// List returns the budgets of year; 0 lists all years.
func (s *Service) List(year int) ([]model.Budget, error) {
	return s.repo.ListBudgets(year)
}
