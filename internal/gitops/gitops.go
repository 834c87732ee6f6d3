// Package gitops versions a project's configuration and chart of accounts
// with the git binary.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Identity is the author and committer of commits made by bursar.
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity is used when the caller does not supply one.
var DefaultIdentity = Identity{Name: "Bursar", Email: "bursar@localhost"}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if _, err := run(dir, nil, "init", "--quiet"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message string, who Identity) (string, error) {
	if who.Name == "" || who.Email == "" {
		who = DefaultIdentity
	}
	// Committer is set as well so commits work on machines without a git identity.
	env := []string{
		"GIT_AUTHOR_NAME=" + who.Name,
		"GIT_AUTHOR_EMAIL=" + who.Email,
		"GIT_COMMITTER_NAME=" + who.Name,
		"GIT_COMMITTER_EMAIL=" + who.Email,
	}

	if _, err := run(dir, nil, "add", "-A"); err != nil {
		return "", fmt.Errorf("git add: %w", err)
	}
	if _, err := run(dir, env, "commit", "--quiet", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}
	out, err := run(dir, nil, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return out, nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func run(dir string, env []string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}
