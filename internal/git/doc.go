// Package git provides the repository operations gitsync needs.
//
// The Repository interface covers branch and tip resolution, remote
// discovery, reachability probes, fetches, commit-gap listing and
// single-commit pushes. Two backends implement it:
//
// - CLI: runs the git executable through a CommandExecutor
// - Native: uses go-git and needs no executable, but does not run hooks
//
// # Commit gaps
//
// CommitsBetween(base, tip) returns the commits reachable from tip but not
// from base ("git log base..tip"), ordered so that every commit follows its
// parents. Pushing them in that order moves the remote branch forward one
// fast-forward at a time.
//
// # Usage
//
//	repo, err := git.Open(git.BackendCLI, "/path/to/repo")
//	if err != nil {
//	    // Handle error
//	}
//
//	branch, _ := repo.CurrentBranch(ctx)
//	tip, _ := repo.LocalTip(ctx, branch)
//	_ = repo.Fetch(ctx, "origin")
//	base, _ := repo.RemoteTip(ctx, "origin", branch)
//
//	gap, _ := repo.CommitsBetween(ctx, base, tip)
//	for _, c := range gap {
//	    if err := repo.Push(ctx, "origin", c.Hash, branch); err != nil {
//	        break
//	    }
//	}
//
// # Error Handling
//
// Failed commands return *errors.GitError carrying the operation, arguments
// and trimmed stderr. Remote-scoped failures are wrapped in
// *errors.RemoteError and match ErrRemoteUnreachable, ErrFetchFailed or
// ErrPushFailed with errors.Is.
//
// # Dependencies
//
// The CLI backend requires git 2.20.0 or newer in PATH. Commands run with
// GIT_TERMINAL_PROMPT=0 so a missing credential fails instead of blocking.
package git
