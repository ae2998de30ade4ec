package lock

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// maxAttempts bounds how often Acquire retries after losing a race with a
// process that removed the lock file under it.
const maxAttempts = 3

// Locker prevents concurrent gitsync runs against the same repository.
type Locker struct {
	lockFile string
	lockFd   *os.File
	pid      int
}

// New creates a Locker for the specified repository path, with the lock
// file in the system's temporary directory.
func New(repoPath string) (*Locker, error) {
	return NewWithDir(os.TempDir(), repoPath)
}

// NewWithDir creates a Locker whose lock file lives in dir.
func NewWithDir(dir, repoPath string) (*Locker, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, gitsyncErrors.NewLockError(dir, 0,
			gitsyncErrors.Wrap(gitsyncErrors.ErrLockAcquisitionFailure, err.Error()))
	}

	repoHash := fmt.Sprintf("%x", sha256.Sum256([]byte(repoPath)))[:16]
	return &Locker{
		lockFile: filepath.Join(abs, fmt.Sprintf("gitsync-%s.lock", repoHash)),
		pid:      os.Getpid(),
	}, nil
}

// Path returns the lock file path.
func (l *Locker) Path() string {
	return l.lockFile
}

// Acquire takes an exclusive, non-blocking flock on the lock file and
// writes the current PID into it. The kernel drops the lock when the
// holder exits, so a lock file left behind by a crashed run is reused.
func (l *Locker) Acquire() error {
	if l.lockFd != nil {
		return nil
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		f, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_RDWR, 0o644)
		if err != nil {
			return gitsyncErrors.NewLockError(l.lockFile, 0,
				gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrLockAcquisitionFailure, err))
		}

		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			_ = f.Close()
			// EWOULDBLOCK and EAGAIN are distinct on some older systems.
			if gitsyncErrors.Is(err, unix.EWOULDBLOCK) || gitsyncErrors.Is(err, unix.EAGAIN) {
				pid, _ := readPid(l.lockFile)
				return gitsyncErrors.NewLockError(l.lockFile, pid, gitsyncErrors.ErrAlreadyRunning)
			}
			return gitsyncErrors.NewLockError(l.lockFile, 0,
				gitsyncErrors.Errorf("%w: %w", gitsyncErrors.ErrLockAcquisitionFailure, err))
		}

		// The previous holder may have removed the file between our open
		// and flock, leaving us locking an unlinked inode.
		if !stillLinked(f, l.lockFile) {
			_ = f.Close()
			continue
		}

		if err := writePid(f, l.pid); err != nil {
			_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
			_ = f.Close()
			return gitsyncErrors.NewLockError(l.lockFile, l.pid,
				gitsyncErrors.Wrap(err, "failed to write PID to lock file"))
		}

		l.lockFd = f
		return nil
	}

	return gitsyncErrors.NewLockError(l.lockFile, 0,
		gitsyncErrors.Wrap(gitsyncErrors.ErrLockAcquisitionFailure, "lock file keeps being replaced"))
}

// Release unlocks and removes the lock file. It is a no-op when the lock
// is not held.
func (l *Locker) Release() error {
	if l.lockFd == nil {
		return nil
	}

	var err error

	// Remove before unlocking so a waiting process never locks a file that
	// is about to disappear.
	if removeErr := os.Remove(l.lockFile); removeErr != nil && !os.IsNotExist(removeErr) {
		err = gitsyncErrors.NewLockError(l.lockFile, l.pid,
			gitsyncErrors.Wrap(removeErr, "failed to remove lock file"))
	}

	if flockErr := unix.Flock(int(l.lockFd.Fd()), unix.LOCK_UN); flockErr != nil && err == nil {
		err = gitsyncErrors.NewLockError(l.lockFile, l.pid,
			gitsyncErrors.Wrap(flockErr, "failed to release lock"))
	}

	// Always close, even if previous operations failed
	if closeErr := l.lockFd.Close(); closeErr != nil && err == nil {
		err = gitsyncErrors.NewLockError(l.lockFile, l.pid,
			gitsyncErrors.Wrap(closeErr, "failed to close lock file"))
	}
	l.lockFd = nil

	return err
}

func stillLinked(f *os.File, path string) bool {
	held, err := f.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

func writePid(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(strconv.Itoa(pid)), 0)
	return err
}

// readPid reads the PID of the current holder from the lock file.
func readPid(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, gitsyncErrors.Wrap(err, "failed to read lock file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, gitsyncErrors.Wrap(err, "invalid PID in lock file")
	}
	return pid, nil
}
