package budget

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/cleared-dev/bursar/internal/model"
)

// Repository persists budgets.
type Repository interface {
	CreateBudget(b model.Budget) error
	UpdateBudget(b model.Budget) error
	DeleteBudget(id string) error
	GetBudget(id string) (model.Budget, error)
	// ListBudgets returns the budgets of year ordered by department.
	// Year 0 lists every budget ordered by year then department.
	ListBudgets(year int) ([]model.Budget, error)
}

// MemoryRepository keeps budgets in process memory.
type MemoryRepository struct {
	mu      sync.Mutex
	budgets map[string]model.Budget
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{budgets: make(map[string]model.Budget)}
}

func (m *MemoryRepository) CreateBudget(b model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; ok {
		return fmt.Errorf("%w: budget %s already exists", ErrInvalidBudget, b.ID)
	}
	m.budgets[b.ID] = clone(b)
	return nil
}

func (m *MemoryRepository) UpdateBudget(b model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrBudgetNotFound, b.ID)
	}
	m.budgets[b.ID] = clone(b)
	return nil
}

func (m *MemoryRepository) DeleteBudget(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	delete(m.budgets, id)
	return nil
}

func (m *MemoryRepository) GetBudget(id string) (model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return model.Budget{}, fmt.Errorf("%w: %s", ErrBudgetNotFound, id)
	}
	return clone(b), nil
}

func (m *MemoryRepository) ListBudgets(year int) ([]model.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Budget
	for _, b := range m.budgets {
		if year == 0 || b.Year == year {
			out = append(out, clone(b))
		}
	}
	slices.SortFunc(out, func(a, b model.Budget) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Department, b.Department))
	})
	return out, nil
}

func clone(b model.Budget) model.Budget {
	b.Allocations = slices.Clone(b.Allocations)
	return b
}
