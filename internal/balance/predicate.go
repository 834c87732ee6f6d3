package balance

import (
	"slices"
	"strings"

	"github.com/cleared-dev/bursar/internal/model"
)

// Predicate selects accounts for a balance query.
type Predicate func(model.Account) bool

// Code matches one exact account code.
func Code(code string) Predicate {
	return func(a model.Account) bool { return a.Code == code }
}

// In matches any of the listed codes.
func In(codes ...string) Predicate {
	return func(a model.Account) bool { return slices.Contains(codes, a.Code) }
}

// Prefix matches codes starting with prefix.
func Prefix(prefix string) Predicate {
	return func(a model.Account) bool { return strings.HasPrefix(a.Code, prefix) }
}

// CategoryIs matches accounts of the given category.
func CategoryIs(cat model.Category) Predicate {
	return func(a model.Account) bool { return a.Category == cat }
}

// Level matches accounts at the given hierarchy depth.
func Level(n int) Predicate {
	return func(a model.Account) bool { return a.Level() == n }
}

// Liquid matches cash and bank accounts.
func Liquid() Predicate {
	return func(a model.Account) bool { return a.Liquid }
}

// And matches when every predicate matches.
func And(preds ...Predicate) Predicate {
	return func(a model.Account) bool {
		for _, p := range preds {
			if !p(a) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches.
func Or(preds ...Predicate) Predicate {
	return func(a model.Account) bool {
		for _, p := range preds {
			if p(a) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(a model.Account) bool { return !p(a) }
}
