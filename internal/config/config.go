package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/budget"
)

// DefaultPath is the config file name looked up in the working directory.
const DefaultPath = "bursar.yaml"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Environment variables that override the file.
const (
	EnvStorageDriver = "BURSAR_STORAGE_DRIVER"
	EnvStoragePath   = "BURSAR_STORAGE_PATH"
	EnvLogEnv        = "BURSAR_LOG_ENV"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the top-level bursar.yaml configuration.
type Config struct {
	Institution InstitutionConfig `yaml:"institution"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Budget      BudgetConfig      `yaml:"budget"`
	Storage     StorageConfig     `yaml:"storage"`
	Log         LogConfig         `yaml:"log"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// InstitutionConfig identifies the institution.
type InstitutionConfig struct {
	Name          string `yaml:"name" validate:"required"`
	CurrencyLabel string `yaml:"currency_label,omitempty"`
}

// LedgerConfig controls the chart of accounts. The liquid rule is applied to
// the chart every time a project is opened, so it wins over the liquid column
// of the chart file.
type LedgerConfig struct {
	LiquidPrefix  string   `yaml:"liquid_prefix" validate:"required"`
	LiquidExclude []string `yaml:"liquid_exclude,omitempty"`
	ChartPath     string   `yaml:"chart_path" validate:"required"`
}

// BudgetConfig controls what counts as department spending.
type BudgetConfig struct {
	ExpensePrefix string   `yaml:"expense_prefix" validate:"required"`
	ExcludedTypes []string `yaml:"excluded_types,omitempty"`
	CriticalRatio float64  `yaml:"critical_ratio" validate:"gte=0,lte=1"`
}

// StorageConfig selects the posting and budget store.
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"required,oneof=sqlite memory"`
	Path   string `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
}

// LogConfig selects the logger flavor.
type LogConfig struct {
	Env string `yaml:"env" validate:"omitempty,oneof=development production test nop"`
}

// Load reads a bursar.yaml file from disk. Fields missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new institution.
func Default(institutionName string) *Config {
	return &Config{
		Institution: InstitutionConfig{
			Name: institutionName,
		},
		Ledger: LedgerConfig{
			LiquidPrefix:  accounts.DefaultLiquidRule.Prefix,
			LiquidExclude: slices.Clone(accounts.DefaultLiquidRule.Exclude),
			ChartPath:     accounts.DefaultPath,
		},
		Budget: BudgetConfig{
			ExpensePrefix: budget.DefaultPolicy.ExpensePrefix,
			ExcludedTypes: slices.Clone(budget.DefaultPolicy.ExcludedTypes),
			CriticalRatio: budget.DefaultPolicy.CriticalRatio.InexactFloat64(),
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   "data/bursar.db",
		},
		Log: LogConfig{
			Env: "development",
		},
	}
}

// ApplyEnv loads envFile when it exists (variables already set win) and then
// applies the BURSAR_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvStorageDriver); v != "" {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvLogEnv); v != "" {
		c.Log.Env = v
	}
	return nil
}

// Validate checks the struct tags and returns every violation at once.
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Resolve makes p relative to the directory the config was loaded from.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// LiquidRule returns the account-tagging rule for cash and bank accounts.
func (c *Config) LiquidRule() accounts.LiquidRule {
	return accounts.LiquidRule{Prefix: c.Ledger.LiquidPrefix, Exclude: c.Ledger.LiquidExclude}
}

// BudgetPolicy returns the spending policy for variance reports.
func (c *Config) BudgetPolicy() budget.Policy {
	return budget.Policy{
		ExpensePrefix: c.Budget.ExpensePrefix,
		ExcludedTypes: c.Budget.ExcludedTypes,
		CriticalRatio: decimal.NewFromFloat(c.Budget.CriticalRatio),
	}
}
