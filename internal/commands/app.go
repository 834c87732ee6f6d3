package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/approval"
	"github.com/cleared-dev/bursar/internal/budget"
	"github.com/cleared-dev/bursar/internal/config"
	"github.com/cleared-dev/bursar/internal/ledger"
	"github.com/cleared-dev/bursar/internal/logger"
	"github.com/cleared-dev/bursar/internal/report"
	"github.com/cleared-dev/bursar/internal/storage"
)

// app wires the services of one project for the duration of a command.
type app struct {
	cfg       *config.Config
	chart     *accounts.Service
	ledger    *ledger.Service
	approvals *approval.Service
	reports   *report.Generator
	budgets   *budget.Service
	closeFn   func() error
}

// openApp loads the config at configPath, applies .env overrides from the
// same directory, and opens the configured store.
func openApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Env)

	chart, err := accounts.Load(cfg.Resolve(cfg.Ledger.ChartPath))
	if err != nil {
		return nil, err
	}
	// Liquid tagging follows the config, not the column saved at init.
	chart = accounts.NewService(cfg.LiquidRule().Tag(chart.All()))
	if err := accounts.Validate(chart.All()); err != nil {
		return nil, fmt.Errorf("chart of accounts: %w", err)
	}

	var (
		backend ledger.Backend
		repo    budget.Repository
		closeFn = func() error { return nil }
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		backend = ledger.NewMemoryBackend()
		repo = budget.NewMemoryRepository()
	default:
		db, err := storage.NewSQLiteRepository(cfg.Resolve(cfg.Storage.Path))
		if err != nil {
			return nil, err
		}
		backend, repo, closeFn = db, db, db.Close
	}

	store, err := ledger.NewService(backend, chart)
	if err != nil {
		closeFn()
		return nil, err
	}

	logger.Get().Debugw("project opened", "config", configPath, "driver", cfg.Storage.Driver)
	return &app{
		cfg:       cfg,
		chart:     chart,
		ledger:    store,
		approvals: approval.NewService(store, time.Now),
		reports:   report.NewGenerator(chart, store),
		budgets:   budget.NewService(repo, store, chart, cfg.BudgetPolicy()),
		closeFn:   closeFn,
	}, nil
}

func (a *app) Close() error {
	logger.Sync()
	return a.closeFn()
}

// withApp opens the project named by the --config flag, runs fn and closes it.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	a, err := openApp(path)
	if err != nil {
		return err
	}
	return errors.Join(fn(a), a.Close())
}

// actorFlags identifies who runs an approval command.
type actorFlags struct {
	name string
	role string
}

func (f *actorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "actor", os.Getenv("USER"), "name of the person acting")
	cmd.Flags().StringVar(&f.role, "role", "", "role of the actor (admin, finance-manager, accountant, clerk)")
	_ = cmd.MarkFlagRequired("role")
}

func (f *actorFlags) actor() approval.Actor {
	return approval.NewActor(f.name, approval.ParseRole(f.role))
}

const dateFormat = "2006-01-02"

// parseDate parses YYYY-MM-DD. An empty string is the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// parseWindow parses a --from/--to pair.
func parseWindow(from, to string) (time.Time, time.Time, error) {
	f, err := parseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	t, err := parseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !f.IsZero() && !t.IsZero() && t.Before(f) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return f, t, nil
}
