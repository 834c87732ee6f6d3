package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitLog(t *testing.T, dir, format string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "--format="+format, "-1")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return string(out)
}

func TestInit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bursar.yaml"), []byte("institution:\n  name: Test\n"), 0o644))

	hash, err := CommitAll(dir, "init: test commit", Identity{Name: "Test Author", Email: "test@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Contains(t, gitLog(t, dir, "%s"), "init: test commit")
	assert.Contains(t, gitLog(t, dir, "%an <%ae>"), "Test Author <test@example.com>")
}

func TestCommitAll_DefaultIdentity(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	_, err := CommitAll(dir, "first", Identity{})
	require.NoError(t, err)
	assert.Contains(t, gitLog(t, dir, "%cn <%ce>"), "Bursar <bursar@localhost>")
}

func TestCommitAll_NothingToCommit(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := CommitAll(dir, "empty", DefaultIdentity)
	assert.Error(t, err)
}
