package git

import (
	"context"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/filesystem"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// Native implements Repository on go-git without a git executable.
// Hooks are not run.
type Native struct {
	path string
	repo *gogit.Repository
}

// OpenNative opens the repository containing path.
func OpenNative(path string) (*Native, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, gitsyncErrors.Wrap(err, "failed to resolve repository path")
	}

	repo, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if gitsyncErrors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, gitsyncErrors.Wrap(gitsyncErrors.ErrNotGitRepository, abs)
		}
		return nil, gitsyncErrors.Wrap(err, "failed to open repository")
	}

	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}
	return NewNative(root, repo), nil
}

// NewNative wraps an already opened go-git repository.
func NewNative(path string, repo *gogit.Repository) *Native {
	return &Native{path: path, repo: repo}
}

// Path implements Repository.
func (n *Native) Path() string {
	return n.path
}

// GitDir implements Repository.
func (n *Native) GitDir(_ context.Context) (string, error) {
	fsStorage, ok := n.repo.Storer.(*filesystem.Storage)
	if !ok {
		return "", gitsyncErrors.New("repository is not stored on disk")
	}
	return fsStorage.Filesystem().Root(), nil
}

// CurrentBranch implements Repository.
func (n *Native) CurrentBranch(_ context.Context) (string, error) {
	head, err := n.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", gitsyncErrors.NewGitError("HEAD", nil, err, "")
	}
	if head.Type() != plumbing.SymbolicReference || !head.Target().IsBranch() {
		return "", gitsyncErrors.ErrDetachedHead
	}
	return head.Target().Short(), nil
}

// LocalTip implements Repository.
func (n *Native) LocalTip(_ context.Context, branch string) (string, error) {
	return n.resolve(plumbing.NewBranchReferenceName(branch))
}

// Remotes implements Repository.
func (n *Native) Remotes(_ context.Context) ([]Remote, error) {
	remotes, err := n.repo.Remotes()
	if err != nil {
		return nil, gitsyncErrors.NewGitError("remote", nil, err, "")
	}

	result := make([]Remote, 0, len(remotes))
	for _, r := range remotes {
		cfg := r.Config()
		remote := Remote{Name: cfg.Name}
		if len(cfg.URLs) > 0 {
			remote.URL = cfg.URLs[0]
		}
		result = append(result, remote)
	}
	return result, nil
}

// Probe implements Repository. An empty remote repository is reachable.
func (n *Native) Probe(ctx context.Context, remote string) error {
	r, err := n.repo.Remote(remote)
	if err != nil {
		return gitsyncErrors.NewRemoteError(remote, gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrRemoteUnreachable, err))
	}
	if _, err := r.ListContext(ctx, &gogit.ListOptions{}); err != nil && !gitsyncErrors.Is(err, transport.ErrEmptyRemoteRepository) {
		return gitsyncErrors.NewRemoteError(remote, gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrRemoteUnreachable, err))
	}
	return nil
}

// Fetch implements Repository.
func (n *Native) Fetch(ctx context.Context, remote string) error {
	err := n.repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: remote,
		Prune:      true,
	})
	switch {
	case err == nil,
		gitsyncErrors.Is(err, gogit.NoErrAlreadyUpToDate),
		gitsyncErrors.Is(err, transport.ErrEmptyRemoteRepository):
		return nil
	default:
		return gitsyncErrors.NewRemoteError(remote, gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrFetchFailed, err))
	}
}

// RemoteTip implements Repository.
func (n *Native) RemoteTip(_ context.Context, remote, branch string) (string, error) {
	return n.resolve(plumbing.NewRemoteReferenceName(remote, branch))
}

// CommitsBetween implements Repository.
//
// Commits reachable from base are marked first. The walk from tip is then an
// iterative depth-first post-order over parents that skips marked commits,
// so every commit is emitted after all of its unmarked parents.
func (n *Native) CommitsBetween(ctx context.Context, base, tip string) ([]Commit, error) {
	if tip == "" {
		return nil, nil
	}

	excluded := make(map[plumbing.Hash]bool)
	if base != "" {
		baseCommit, err := n.repo.CommitObject(plumbing.NewHash(base))
		if err != nil {
			return nil, gitsyncErrors.NewGitError("log", []string{base}, err, "")
		}
		iter := object.NewCommitPreorderIter(baseCommit, nil, nil)
		err = iter.ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			excluded[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, gitsyncErrors.NewGitError("log", []string{base}, err, "")
		}
	}

	type frame struct {
		commit *object.Commit
		next   int
	}

	tipHash := plumbing.NewHash(tip)
	if excluded[tipHash] {
		return nil, nil
	}
	tipCommit, err := n.repo.CommitObject(tipHash)
	if err != nil {
		return nil, gitsyncErrors.NewGitError("log", []string{tip}, err, "")
	}

	var commits []Commit
	visited := map[plumbing.Hash]bool{tipHash: true}
	stack := []*frame{{commit: tipCommit}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		top := stack[len(stack)-1]
		if top.next < len(top.commit.ParentHashes) {
			parent := top.commit.ParentHashes[top.next]
			top.next++
			if visited[parent] || excluded[parent] {
				continue
			}
			visited[parent] = true
			parentCommit, err := n.repo.CommitObject(parent)
			if err != nil {
				return nil, gitsyncErrors.NewGitError("log", []string{parent.String()}, err, "")
			}
			stack = append(stack, &frame{commit: parentCommit})
			continue
		}

		stack = stack[:len(stack)-1]
		commits = append(commits, Commit{Hash: top.commit.Hash.String(), Subject: subjectOf(top.commit.Message)})
	}
	return commits, nil
}

// CountCommits implements Repository.
func (n *Native) CountCommits(_ context.Context, tip string) (int, error) {
	if tip == "" {
		return 0, nil
	}
	iter, err := n.repo.Log(&gogit.LogOptions{From: plumbing.NewHash(tip)})
	if err != nil {
		return 0, gitsyncErrors.NewGitError("rev-list", []string{tip}, err, "")
	}
	count := 0
	err = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil && err != storer.ErrStop {
		return 0, gitsyncErrors.NewGitError("rev-list", []string{tip}, err, "")
	}
	return count, nil
}

// Push implements Repository.
func (n *Native) Push(ctx context.Context, remote, hash, branch string) error {
	refspec := config.RefSpec(hash + ":" + plumbing.NewBranchReferenceName(branch).String())
	err := n.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{refspec},
	})
	if err != nil && !gitsyncErrors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrPushFailed, err)
	}
	return nil
}

func (n *Native) resolve(name plumbing.ReferenceName) (string, error) {
	ref, err := n.repo.Reference(name, true)
	if err != nil {
		if gitsyncErrors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", nil
		}
		return "", gitsyncErrors.NewGitError("rev-parse", []string{name.String()}, err, "")
	}
	return ref.Hash().String(), nil
}

// subjectOf returns the first line of a commit message.
func subjectOf(message string) string {
	subject, _, _ := strings.Cut(message, "\n")
	return strings.TrimRight(subject, "\r")
}
