// Package lock provides file-based locking for gitsync.
//
// Two runs against the same repository would interleave their single-commit
// pushes, so a run takes an exclusive flock(2) on a per-repository lock file
// before touching any remote.
//
// # Usage
//
//	locker, err := lock.New("/path/to/repo")
//	if err != nil {
//	    // Handle error
//	}
//
//	if err := locker.Acquire(); err != nil {
//	    // errors.Is(err, errors.ErrAlreadyRunning) when another run holds it
//	}
//	defer locker.Release()
//
// # Lock Files
//
// Lock files live in the system's temporary directory:
//
//	/tmp/gitsync-<repo-hash>.lock
//
// where <repo-hash> is derived from the repository's absolute path. The file
// holds the PID of the running instance, reported when acquisition fails.
//
// The kernel releases a flock when its holder exits, so a file left by a
// crashed run does not block later runs.
//
// # Thread Safety
//
// A Locker should only be used from one goroutine at a time.
package lock
