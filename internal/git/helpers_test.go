package git

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireGit skips the test when no git executable is available.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// setupGit isolates git from the user's configuration.
func setupGit(t *testing.T) {
	t.Helper()
	requireGit(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	runGit(t, home, "config", "--global", "user.email", "tests@example.com")
	runGit(t, home, "config", "--global", "user.name", "Tests")
	runGit(t, home, "config", "--global", "init.defaultBranch", "main")
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// newBareRemote creates an empty bare repository.
func newBareRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "--bare", "--quiet")
	return dir
}

// newRepo creates a repository on main with one empty commit per subject
// and returns its path and the commit hashes in order.
func newRepo(t *testing.T, subjects ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init", "--quiet")
	hashes := make([]string, 0, len(subjects))
	for _, s := range subjects {
		hashes = append(hashes, commit(t, dir, s))
	}
	return dir, hashes
}

func commit(t *testing.T, dir, subject string) string {
	t.Helper()
	runGit(t, dir, "commit", "--quiet", "--allow-empty", "-m", subject)
	return runGit(t, dir, "rev-parse", "HEAD")
}

func hashesOf(commits []Commit) []string {
	hashes := make([]string, 0, len(commits))
	for _, c := range commits {
		hashes = append(hashes, c.Hash)
	}
	return hashes
}

// assertTopological fails unless every commit appears after its parents
// among the listed commits.
func assertTopological(t *testing.T, dir string, commits []Commit) {
	t.Helper()
	position := make(map[string]int, len(commits))
	for i, c := range commits {
		position[c.Hash] = i
	}
	for i, c := range commits {
		parents := strings.Fields(runGit(t, dir, "rev-list", "--parents", "-n", "1", c.Hash))[1:]
		for _, p := range parents {
			if j, ok := position[p]; ok {
				require.Less(t, j, i, "parent %s listed after child %s", p, c.Hash)
			}
		}
	}
}
