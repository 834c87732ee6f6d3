package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/bursar/internal/budget"
	"github.com/cleared-dev/bursar/internal/model"
)

// CreateBudget stores a new budget with its allocations.
func (r *SQLiteRepository) CreateBudget(b model.Budget) error {
	return r.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO budgets (id, year, department, total_budget) VALUES (?, ?, ?, ?)`,
			b.ID, b.Year, b.Department, b.TotalBudget.String())
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s already has a budget for %d", budget.ErrInvalidBudget, b.Department, b.Year)
		}
		if err != nil {
			return fmt.Errorf("insert budget %s: %w", b.ID, err)
		}
		return insertAllocations(tx, b)
	})
}

// UpdateBudget rewrites a budget's total and allocations.
func (r *SQLiteRepository) UpdateBudget(b model.Budget) error {
	return r.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE budgets SET year = ?, department = ?, total_budget = ? WHERE id = ?`,
			b.Year, b.Department, b.TotalBudget.String(), b.ID)
		if err != nil {
			return fmt.Errorf("update budget %s: %w", b.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", budget.ErrBudgetNotFound, b.ID)
		}
		if _, err := tx.Exec(`DELETE FROM budget_allocations WHERE budget_id = ?`, b.ID); err != nil {
			return fmt.Errorf("clear allocations of %s: %w", b.ID, err)
		}
		return insertAllocations(tx, b)
	})
}

// DeleteBudget removes a budget and its allocations.
func (r *SQLiteRepository) DeleteBudget(id string) error {
	return r.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM budget_allocations WHERE budget_id = ?`, id); err != nil {
			return fmt.Errorf("delete allocations of %s: %w", id, err)
		}
		res, err := tx.Exec(`DELETE FROM budgets WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete budget %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", budget.ErrBudgetNotFound, id)
		}
		return nil
	})
}

// GetBudget returns one budget with its allocations.
func (r *SQLiteRepository) GetBudget(id string) (model.Budget, error) {
	row := r.db.QueryRow(`SELECT id, year, department, total_budget FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Budget{}, fmt.Errorf("%w: %s", budget.ErrBudgetNotFound, id)
	}
	if err != nil {
		return model.Budget{}, err
	}
	if b.Allocations, err = r.allocations(b.ID); err != nil {
		return model.Budget{}, err
	}
	return b, nil
}

// ListBudgets returns the budgets of year, or all budgets when year is 0.
func (r *SQLiteRepository) ListBudgets(year int) ([]model.Budget, error) {
	rows, err := r.db.Query(`SELECT id, year, department, total_budget FROM budgets
		WHERE ? = 0 OR year = ? ORDER BY year, department`, year, year)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	var out []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	// Close before the allocation queries: the pool holds one connection.
	rows.Close()

	for i := range out {
		if out[i].Allocations, err = r.allocations(out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteRepository) allocations(budgetID string) ([]model.MonthAllocation, error) {
	rows, err := r.db.Query(`SELECT month, allocated FROM budget_allocations WHERE budget_id = ? ORDER BY month`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("query allocations of %s: %w", budgetID, err)
	}
	defer rows.Close()

	var out []model.MonthAllocation
	for rows.Next() {
		var month int
		var allocated string
		if err := rows.Scan(&month, &allocated); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		amt, err := decimal.NewFromString(allocated)
		if err != nil {
			return nil, fmt.Errorf("budget %s: invalid allocation %q: %w", budgetID, allocated, err)
		}
		out = append(out, model.MonthAllocation{Month: time.Month(month), Allocated: amt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}
	return out, nil
}

func insertAllocations(tx *sql.Tx, b model.Budget) error {
	for _, a := range b.Allocations {
		_, err := tx.Exec(`INSERT INTO budget_allocations (budget_id, month, allocated) VALUES (?, ?, ?)`,
			b.ID, int(a.Month), a.Allocated.String())
		if err != nil {
			return fmt.Errorf("insert allocation %s/%d: %w", b.ID, a.Month, err)
		}
	}
	return nil
}

func scanBudget(row scanner) (model.Budget, error) {
	var b model.Budget
	var total string
	if err := row.Scan(&b.ID, &b.Year, &b.Department, &total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Budget{}, err
		}
		return model.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	var err error
	if b.TotalBudget, err = decimal.NewFromString(total); err != nil {
		return model.Budget{}, fmt.Errorf("budget %s: invalid total %q: %w", b.ID, total, err)
	}
	return b, nil
}
