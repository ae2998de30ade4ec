package git

import (
	"context"
	"os/exec"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// Backends accepted by Open.
const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Repository is the set of VCS capabilities gitsync needs. Both the git
// command-line backend and the go-git backend implement it.
type Repository interface {
	// Path returns the repository working directory.
	Path() string

	// GitDir returns the absolute path of the .git directory.
	GitDir(ctx context.Context) (string, error)

	// CurrentBranch returns the checked-out branch or ErrDetachedHead.
	CurrentBranch(ctx context.Context) (string, error)

	// LocalTip returns the commit refs/heads/<branch> points at, or "" for
	// a branch without commits.
	LocalTip(ctx context.Context, branch string) (string, error)

	// Remotes lists the configured remotes in no particular order.
	Remotes(ctx context.Context) ([]Remote, error)

	// Probe checks that a remote can be contacted.
	Probe(ctx context.Context, remote string) error

	// Fetch updates the remote-tracking refs of a remote, pruning stale ones.
	Fetch(ctx context.Context, remote string) error

	// RemoteTip returns the commit of refs/remotes/<remote>/<branch>, or ""
	// when the remote has no such branch.
	RemoteTip(ctx context.Context, remote, branch string) (string, error)

	// CommitsBetween returns the commits reachable from tip but not from
	// base, each commit after all of its parents. An empty base means the
	// whole history of tip.
	CommitsBetween(ctx context.Context, base, tip string) ([]Commit, error)

	// CountCommits returns the number of commits reachable from tip.
	CountCommits(ctx context.Context, tip string) (int, error)

	// Push sends exactly one commit to refs/heads/<branch> on remote.
	Push(ctx context.Context, remote, hash, branch string) error
}

// Open opens the repository at path with the named backend.
func Open(backend, path string) (Repository, error) {
	switch backend {
	case BackendCLI, "":
		return OpenCLI(path)
	case BackendNative:
		return OpenNative(path)
	default:
		return nil, gitsyncErrors.NewConfigError("backend", backend, gitsyncErrors.ErrInvalidConfiguration)
	}
}

// IsRepository checks if the given path is a git repository
// Returns true if it is a repository, false otherwise.
// If path is not a repository due to git exit code 128, returns (false, nil).
// For other errors (git not found, permission issues, etc), returns (false, err).
func IsRepository(path string) (bool, error) {
	executor := NewExecExecutor()
	if err := executor.Execute(context.Background(), "git", "-C", path, "rev-parse", "--is-inside-work-tree"); err != nil {
		// Exit code 128 is git's generic fatal error code. For this command it
		// almost always means the directory is not inside a repository.
		var exitErr *exec.ExitError
		if gitsyncErrors.As(err, &exitErr) && exitErr.ExitCode() == 128 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
