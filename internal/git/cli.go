package git

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// fieldSeparator splits hash and subject in log output.
const fieldSeparator = "\x1f"

// CLI drives the git executable. Every command runs as "git -C <path> ...".
type CLI struct {
	path     string
	executor CommandExecutor
}

// OpenCLI returns a CLI backend for the repository containing path.
func OpenCLI(path string) (*CLI, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, gitsyncErrors.Wrap(err, "failed to resolve repository path")
	}
	c := NewCLIWithExecutor(abs, NewExecExecutor())

	top, err := c.output(context.Background(), "rev-parse", "--show-toplevel")
	if err != nil {
		if exitCode(err) == 128 {
			return nil, gitsyncErrors.Wrap(gitsyncErrors.ErrNotGitRepository, abs)
		}
		return nil, err
	}
	if top = strings.TrimSpace(top); top != "" {
		c.path = top
	}
	return c, nil
}

// NewCLIWithExecutor creates a CLI backend without validating path.
func NewCLIWithExecutor(path string, executor CommandExecutor) *CLI {
	return &CLI{path: path, executor: executor}
}

// Path implements Repository.
func (c *CLI) Path() string {
	return c.path
}

// GitDir implements Repository.
func (c *CLI) GitDir(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// CurrentBranch implements Repository.
func (c *CLI) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		// symbolic-ref exits 1 when HEAD is not a symbolic ref
		if exitCode(err) == 1 {
			return "", gitsyncErrors.ErrDetachedHead
		}
		return "", err
	}
	branch := strings.TrimSpace(out)
	if branch == "" {
		return "", gitsyncErrors.ErrDetachedHead
	}
	return branch, nil
}

// LocalTip implements Repository.
func (c *CLI) LocalTip(ctx context.Context, branch string) (string, error) {
	return c.resolve(ctx, "refs/heads/"+branch)
}

// Remotes implements Repository.
func (c *CLI) Remotes(ctx context.Context) ([]Remote, error) {
	out, err := c.output(ctx, "remote")
	if err != nil {
		return nil, err
	}

	var remotes []Remote
	for _, name := range strings.Split(out, "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		remote := Remote{Name: name}
		// A remote without a URL is reported, not fatal.
		if url, err := c.output(ctx, "remote", "get-url", "--", name); err == nil {
			remote.URL = strings.TrimSpace(url)
		}
		remotes = append(remotes, remote)
	}
	return remotes, nil
}

// Probe implements Repository.
func (c *CLI) Probe(ctx context.Context, remote string) error {
	if err := c.run(ctx, "ls-remote", "--heads", remote); err != nil {
		return gitsyncErrors.NewRemoteError(remote, gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrRemoteUnreachable, err))
	}
	return nil
}

// Fetch implements Repository.
func (c *CLI) Fetch(ctx context.Context, remote string) error {
	if err := c.run(ctx, "fetch", "--prune", "--quiet", remote); err != nil {
		return gitsyncErrors.NewRemoteError(remote, gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrFetchFailed, err))
	}
	return nil
}

// RemoteTip implements Repository.
func (c *CLI) RemoteTip(ctx context.Context, remote, branch string) (string, error) {
	return c.resolve(ctx, "refs/remotes/"+remote+"/"+branch)
}

// CommitsBetween implements Repository.
func (c *CLI) CommitsBetween(ctx context.Context, base, tip string) ([]Commit, error) {
	if tip == "" {
		return nil, nil
	}

	args := []string{"log", "--reverse", "--topo-order", "--format=%H" + "%x1f" + "%s", tip}
	if base != "" {
		args = append(args, "^"+base)
	}
	args = append(args, "--")

	out, err := c.output(ctx, args...)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		hash, subject, _ := strings.Cut(line, fieldSeparator)
		commits = append(commits, Commit{Hash: hash, Subject: subject})
	}
	return commits, nil
}

// CountCommits implements Repository.
func (c *CLI) CountCommits(ctx context.Context, tip string) (int, error) {
	if tip == "" {
		return 0, nil
	}
	out, err := c.output(ctx, "rev-list", "--count", tip, "--")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, gitsyncErrors.Wrap(err, "unexpected rev-list output")
	}
	return n, nil
}

// Push implements Repository.
func (c *CLI) Push(ctx context.Context, remote, hash, branch string) error {
	refspec := hash + ":refs/heads/" + branch
	if err := c.run(ctx, "push", "--quiet", remote, refspec); err != nil {
		return gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrPushFailed, err)
	}
	return nil
}

// Version returns the version of the git executable.
func (c *CLI) Version(ctx context.Context) (*semver.Version, error) {
	out, err := c.executor.ExecuteWithOutput(ctx, "git", "version")
	if err != nil {
		return nil, err
	}
	return ParseVersion(out)
}

// resolve returns the commit a ref points at, or "" when the ref is absent.
func (c *CLI) resolve(ctx context.Context, ref string) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		// --verify --quiet exits 1 without output for a missing ref
		if exitCode(err) == 1 {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) run(ctx context.Context, args ...string) error {
	allArgs := append([]string{"-C", c.path}, args...)
	return c.executor.Execute(ctx, "git", allArgs...)
}

func (c *CLI) output(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-C", c.path}, args...)
	return c.executor.ExecuteWithOutput(ctx, "git", allArgs...)
}

// exitCode extracts the process exit status from err, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if gitsyncErrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
