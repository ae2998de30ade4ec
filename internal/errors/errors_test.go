package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	originalErr := New("original error")
	wrappedErr := Wrap(originalErr, "wrapped message")

	assert.True(t, Is(wrappedErr, originalErr))
	assert.Equal(t, "wrapped message: original error", wrappedErr.Error())
}

func TestWrapf(t *testing.T) {
	originalErr := New("original error")
	wrappedErr := Wrapf(originalErr, "wrapped message with %s", "format")

	assert.True(t, Is(wrappedErr, originalErr))
	assert.Equal(t, "wrapped message with format: original error", wrappedErr.Error())
}

func TestGitError(t *testing.T) {
	err := errors.New("command failed")
	gitErr := NewGitError("push", []string{"origin", "abc:refs/heads/main"}, err, "Permission denied")

	assert.Equal(t, "git push failed: Permission denied: command failed", gitErr.Error())
	assert.ErrorIs(t, gitErr, err)
}

func TestLockError(t *testing.T) {
	err := errors.New("file not found")

	lockErr := NewLockError("/tmp/lock.file", 1234, err)
	assert.Equal(t, "lock error with file /tmp/lock.file (PID: 1234): file not found", lockErr.Error())

	lockErr = NewLockError("/tmp/lock.file", 0, err)
	assert.Equal(t, "lock error with file /tmp/lock.file: file not found", lockErr.Error())
	assert.ErrorIs(t, lockErr, err)
}

func TestConfigError(t *testing.T) {
	err := errors.New("invalid value")

	configErr := NewConfigError("PUSH_DELAY", "fast", err)
	assert.Equal(t, "configuration error for PUSH_DELAY = fast: invalid value", configErr.Error())

	configErr = NewConfigError("config", nil, err)
	assert.Equal(t, "configuration error for config: invalid value", configErr.Error())
	assert.ErrorIs(t, configErr, err)
}

func TestRemoteAndPushErrors(t *testing.T) {
	tests := map[string]struct {
		err      error
		sentinel error
		message  string
	}{
		"remote unreachable": {
			err:      NewRemoteError("backup", ErrRemoteUnreachable),
			sentinel: ErrRemoteUnreachable,
			message:  "remote backup: remote unreachable",
		},
		"push failed": {
			err:      NewPushError("origin", "0123abc", 2, 5, ErrPushFailed),
			sentinel: ErrPushFailed,
			message:  "push of commit 2/5 (0123abc) to origin failed: push failed",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.message, tc.err.Error())
			assert.ErrorIs(t, tc.err, tc.sentinel)
			assert.ErrorIs(t, Wrap(tc.err, "sync"), tc.sentinel)
		})
	}

	var pushErr *PushError
	wrapped := Wrap(NewPushError("origin", "abc", 1, 1, ErrPushFailed), "context")
	if assert.True(t, As(wrapped, &pushErr)) {
		assert.Equal(t, 1, pushErr.Index)
		assert.Equal(t, "origin", pushErr.Remote)
	}
}

func TestJoin(t *testing.T) {
	first := New("first")
	second := New("second")

	joined := Join(first, nil, second)
	assert.ErrorIs(t, joined, first)
	assert.ErrorIs(t, joined, second)
	assert.Nil(t, Join(nil, nil))
}

func ExampleWrap() {
	err := fmt.Errorf("original error")

	wrapped := Wrap(err, "context information")

	fmt.Println(wrapped)
	// Output: context information: original error
}

func ExampleNewPushError() {
	err := NewPushError("origin", "9f2c1e0", 3, 4, ErrPushFailed)

	fmt.Println(err)
	// Output: push of commit 3/4 (9f2c1e0) to origin failed: push failed
}
