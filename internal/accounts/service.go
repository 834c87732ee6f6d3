package accounts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cleared-dev/bursar/internal/model"
)

// ErrUnknownAccount is returned when a code is absent from the chart of accounts.
var ErrUnknownAccount = errors.New("unknown account")

// DefaultPath is where the chart lives relative to a project root.
const DefaultPath = "accounts/chart-of-accounts.csv"

// Service provides in-memory lookup over the chart of accounts.
// The chart is immutable once loaded.
type Service struct {
	accounts []model.Account
	byCode   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byCode := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	return &Service{accounts: accounts, byCode: byCode}
}

// Load reads a chart-of-accounts CSV file and returns a Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// Save writes the chart of accounts to path, creating parent directories.
func (s *Service) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}

// All returns all accounts in chart order.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by code.
func (s *Service) Get(code string) (model.Account, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// Lookup returns an account by code or ErrUnknownAccount.
func (s *Service) Lookup(code string) (model.Account, error) {
	a, ok := s.byCode[code]
	if !ok {
		return model.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, code)
	}
	return a, nil
}

// Exists reports whether a code exists.
func (s *Service) Exists(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// IsLeaf reports whether code exists and is a level-3 account.
func (s *Service) IsLeaf(code string) bool {
	a, ok := s.byCode[code]
	return ok && a.IsLeaf()
}

// IsLiquid reports whether code is tagged as cash or bank.
func (s *Service) IsLiquid(code string) bool {
	return s.byCode[code].Liquid
}

// Leaves returns every level-3 account in chart order.
func (s *Service) Leaves() []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.IsLeaf() {
			result = append(result, a)
		}
	}
	return result
}

// ByCategory returns all leaf accounts of the given category.
func (s *Service) ByCategory(cat model.Category) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Category == cat && a.IsLeaf() {
			result = append(result, a)
		}
	}
	return result
}

// Validate checks the hierarchy: known categories, parents that exist one
// level up with the same category, and no duplicate codes.
func Validate(accounts []model.Account) error {
	seen := make(map[string]model.Account, len(accounts))
	var errs []error
	for _, a := range accounts {
		if _, dup := seen[a.Code]; dup {
			errs = append(errs, fmt.Errorf("duplicate account %s", a.Code))
		}
		seen[a.Code] = a
	}
	for _, a := range accounts {
		if a.Level() < 1 || a.Level() > model.LeafLevel {
			errs = append(errs, fmt.Errorf("account %s: level %d out of range", a.Code, a.Level()))
			continue
		}
		if !a.Category.Valid() {
			errs = append(errs, fmt.Errorf("account %s: unknown category %q", a.Code, a.Category))
		}
		if a.Level() == 1 {
			if a.ParentCode != "" {
				errs = append(errs, fmt.Errorf("account %s: root account has parent %s", a.Code, a.ParentCode))
			}
			continue
		}
		if a.ParentCode != model.ParentOf(a.Code) {
			errs = append(errs, fmt.Errorf("account %s: parent %q does not match code", a.Code, a.ParentCode))
			continue
		}
		parent, ok := seen[a.ParentCode]
		if !ok {
			errs = append(errs, fmt.Errorf("account %s: %w parent %s", a.Code, ErrUnknownAccount, a.ParentCode))
			continue
		}
		if parent.Category != a.Category {
			errs = append(errs, fmt.Errorf("account %s: category %s differs from parent %s", a.Code, a.Category, parent.Category))
		}
	}
	return errors.Join(errs...)
}
