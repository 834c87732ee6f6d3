package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("St. Mary's School")
	cfg.Institution.CurrencyLabel = "PKR"
	cfg.Ledger.LiquidExclude = []string{"1-01-004", "1-01-005"}

	path := filepath.Join(t.TempDir(), "bursar.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Institution, got.Institution)
	assert.Equal(t, cfg.Ledger, got.Ledger)
	assert.Equal(t, cfg.Budget.ExpensePrefix, got.Budget.ExpensePrefix)
	assert.Equal(t, cfg.Budget.ExcludedTypes, got.Budget.ExcludedTypes)
	assert.InDelta(t, cfg.Budget.CriticalRatio, got.Budget.CriticalRatio, 0.0001)
	assert.Equal(t, cfg.Storage, got.Storage)
	assert.Equal(t, cfg.Log, got.Log)
}

func TestDefaults(t *testing.T) {
	cfg := Default("Academy")

	assert.Equal(t, "Academy", cfg.Institution.Name)
	assert.Equal(t, "1-01", cfg.Ledger.LiquidPrefix)
	assert.Equal(t, []string{"1-01-004"}, cfg.Ledger.LiquidExclude)
	assert.Equal(t, "accounts/chart-of-accounts.csv", cfg.Ledger.ChartPath)
	assert.Equal(t, "5", cfg.Budget.ExpensePrefix)
	assert.Equal(t, []string{"FEE"}, cfg.Budget.ExcludedTypes)
	assert.InDelta(t, 0.10, cfg.Budget.CriticalRatio, 0.0001)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "development", cfg.Log.Env)
	require.NoError(t, cfg.Validate())

	rule := cfg.LiquidRule()
	assert.True(t, rule.Matches("1-01-002"))
	assert.False(t, rule.Matches("1-01-004"))

	pol := cfg.BudgetPolicy()
	assert.Equal(t, "0.1", pol.CriticalRatio.String())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bursar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("institution:\n  name: Partial\nstorage:\n  driver: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Partial", cfg.Institution.Name)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "1-01", cfg.Ledger.LiquidPrefix)
	assert.Equal(t, filepath.Join(dir, "accounts/chart-of-accounts.csv"), cfg.Resolve(cfg.Ledger.ChartPath))
	assert.Equal(t, "/abs/bursar.db", cfg.Resolve("/abs/bursar.db"))
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test School")
	path := filepath.Join(t.TempDir(), "bursar.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test School")
	assert.NotContains(t, contents, "fiscal")
	assert.Contains(t, contents, "liquid_prefix:")
	assert.Contains(t, contents, "driver: sqlite")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing name", func(c *Config) { c.Institution.Name = "" }, "Name"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, "Driver"},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }, "Path"},
		{"ratio above one", func(c *Config) { c.Budget.CriticalRatio = 1.5 }, "CriticalRatio"},
		{"unknown log env", func(c *Config) { c.Log.Env = "verbose" }, "Env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("School")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	cfg := Default("School")
	cfg.Storage = StorageConfig{Driver: DriverMemory}
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BURSAR_STORAGE_PATH=/tmp/from-dotenv.db\n"), 0o644))
	t.Setenv(EnvStorageDriver, "MEMORY")
	t.Setenv(EnvLogEnv, "production")
	t.Setenv(EnvStoragePath, "")
	os.Unsetenv(EnvStoragePath)

	cfg := Default("School")
	require.NoError(t, cfg.ApplyEnv(envFile))
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Storage.Path)
	assert.Equal(t, "production", cfg.Log.Env)

	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")))
}
