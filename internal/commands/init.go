package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/config"
	"github.com/cleared-dev/bursar/internal/gitops"
)

type initOptions struct {
	name   string
	driver string
	git    bool
	author gitops.Identity
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new Bursar project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "institution name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.driver, "driver", config.DriverSQLite, "storage driver (sqlite, memory)")
	cmd.Flags().BoolVar(&opts.git, "git", false, "version the project with git")
	cmd.Flags().StringVar(&opts.author.Name, "author-name", "", "git author name")
	cmd.Flags().StringVar(&opts.author.Email, "author-email", "", "git author email")

	return cmd
}

func runInit(out io.Writer, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.DefaultPath)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.Default(opts.name)
	cfg.Storage.Driver = opts.driver
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, filepath.Dir(cfg.Storage.Path)), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	chart := accounts.NewService(accounts.DefaultChart(cfg.LiquidRule()))
	if err := chart.Save(filepath.Join(dir, cfg.Ledger.ChartPath)); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	// The database and local overrides stay out of version control.
	gitignore := "data/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if !opts.git {
		fmt.Fprintf(out, "Initialized Bursar project at %s\n", dir)
		return nil
	}

	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return err
		}
	}
	hash, err := gitops.CommitAll(dir, "init: Initialize "+opts.name, opts.author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	fmt.Fprintf(out, "Initialized Bursar project at %s (%s)\n", dir, hash)
	return nil
}
