package accounts

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bursar/internal/model"
)

func TestDefaultChart(t *testing.T) {
	chart := DefaultChart(DefaultLiquidRule)
	require.NotEmpty(t, chart)
	require.NoError(t, Validate(chart))

	svc := NewService(chart)
	for _, code := range []string{"1-01-001", "1-01-002", "1-01-003"} {
		assert.True(t, svc.IsLiquid(code), "%s should be liquid", code)
	}
	assert.False(t, svc.IsLiquid("1-01-004"), "receivable is not liquid")
	assert.False(t, svc.IsLiquid("1-01"), "non-leaf is never liquid")
	assert.False(t, svc.IsLiquid("5-01-001"))

	cats := make(map[model.Category]bool)
	for _, a := range svc.Leaves() {
		cats[a.Category] = true
	}
	assert.Len(t, cats, 5, "leaves span all five categories")
}

func TestLiquidRule(t *testing.T) {
	rule := LiquidRule{Prefix: "1-01", Exclude: []string{"1-01-004"}}
	tests := []struct {
		code string
		want bool
	}{
		{"1-01-001", true},
		{"1-01-002", true},
		{"1-01-004", false},
		{"1-02-001", false},
		{"1-01", false},
		{"2-01-001", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rule.Matches(tt.code), "Matches(%q)", tt.code)
	}
	assert.False(t, LiquidRule{}.Matches("1-01-001"))
}

func TestGetLookupExists(t *testing.T) {
	svc := NewService(DefaultChart(DefaultLiquidRule))

	acct, ok := svc.Get("1-01-001")
	assert.True(t, ok)
	assert.Equal(t, "Cash in Hand", acct.Name)

	_, err := svc.Lookup("9-99-999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAccount))

	assert.True(t, svc.Exists("5-01"))
	assert.False(t, svc.IsLeaf("5-01"))
	assert.True(t, svc.IsLeaf("5-01-001"))
	assert.False(t, svc.IsLeaf("9-99-999"))
}

func TestByCategory(t *testing.T) {
	svc := NewService(DefaultChart(DefaultLiquidRule))

	income := svc.ByCategory(model.CategoryIncome)
	require.NotEmpty(t, income)
	for _, a := range income {
		assert.Equal(t, model.CategoryIncome, a.Category)
		assert.True(t, a.IsLeaf())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		chart []model.Account
	}{
		{"duplicate", []model.Account{
			{Code: "1", Category: model.CategoryAsset},
			{Code: "1", Category: model.CategoryAsset},
		}},
		{"missing parent", []model.Account{
			{Code: "1-01", Category: model.CategoryAsset, ParentCode: "1"},
		}},
		{"category mismatch", []model.Account{
			{Code: "1", Category: model.CategoryAsset},
			{Code: "1-01", Category: model.CategoryExpense, ParentCode: "1"},
		}},
		{"wrong parent", []model.Account{
			{Code: "1", Category: model.CategoryAsset},
			{Code: "2", Category: model.CategoryAsset},
			{Code: "1-01", Category: model.CategoryAsset, ParentCode: "2"},
		}},
		{"too deep", []model.Account{
			{Code: "1-01-001-01", Category: model.CategoryAsset, ParentCode: "1-01-001"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.chart))
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	chart := DefaultChart(DefaultLiquidRule)
	svc := NewService(chart)

	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, svc.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, chart, loaded.All())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
