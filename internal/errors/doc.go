// Package errors defines the error taxonomy used by gitsync.
//
// Sentinels classify failures by severity. Fatal errors such as
// ErrNotGitRepository or ErrDetachedHead abort a run before any remote is
// touched. Remote-level errors (ErrInvalidRemoteName, ErrRemoteUnreachable,
// ErrFetchFailed) exclude a single remote and are carried in a RemoteError.
// Push-level errors stop one remote's push loop and are carried in a
// PushError that records the failing commit.
//
// All typed errors implement Unwrap, so the sentinels can be matched with
// Is regardless of how many layers of context were added with Wrap.
package errors
