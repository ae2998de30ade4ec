package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var linePattern = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] `)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}

func TestNewWithoutLogFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewWithOutput("", false, &stdout, &stderr)

	l.Info("hidden")
	l.InfoToUser("shown")

	assert.Equal(t, "", l.LogFile())
	assert.NotContains(t, stdout.String(), "hidden")
	assert.Contains(t, stdout.String(), "shown")
	assert.NoError(t, l.Close())
}

func TestLogFileFormat(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "nested", "gitsync.log")

	var stdout, stderr bytes.Buffer
	l := NewWithOutput(logFile, false, &stdout, &stderr)
	require.Equal(t, logFile, l.LogFile())

	l.Info("fetching %s", "origin")
	l.Warning("slow remote")
	l.Error("push rejected")
	l.InfoToUser("user info")
	l.Success("done")
	l.StatusMessage("status only")
	require.NoError(t, l.Close())

	lines := readLines(t, logFile)
	require.Len(t, lines, 5)
	for _, line := range lines {
		assert.Regexp(t, linePattern, line)
	}
	assert.True(t, strings.HasSuffix(lines[0], "] fetching origin"))
	assert.True(t, strings.HasSuffix(lines[1], "] WARNING: slow remote"))
	assert.True(t, strings.HasSuffix(lines[2], "] ERROR: push rejected"))
	assert.True(t, strings.HasSuffix(lines[3], "] user info"))
	assert.True(t, strings.HasSuffix(lines[4], "] done"))
}

func TestLogFileAppends(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gitsync.log")

	first := NewWithOutput(logFile, false, &bytes.Buffer{}, &bytes.Buffer{})
	first.Info("first run")
	require.NoError(t, first.Close())

	second := NewWithOutput(logFile, false, &bytes.Buffer{}, &bytes.Buffer{})
	second.Info("second run")
	require.NoError(t, second.Close())

	lines := readLines(t, logFile)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first run")
	assert.Contains(t, lines[1], "second run")
}

func TestConsoleRouting(t *testing.T) {
	tests := map[string]struct {
		verbose    bool
		log        func(l Logger)
		wantStdout string
		wantStderr string
	}{
		"info hidden when quiet": {
			log:        func(l Logger) { l.Info("progress") },
			wantStdout: "",
		},
		"info shown when verbose": {
			verbose:    true,
			log:        func(l Logger) { l.Info("progress") },
			wantStdout: "   progress\n",
		},
		"warning hidden when quiet": {
			log:        func(l Logger) { l.Warning("careful") },
			wantStdout: "",
		},
		"warning to user always shown": {
			log:        func(l Logger) { l.WarningToUser("careful") },
			wantStdout: "⚠️  careful\n",
		},
		"info to user": {
			log:        func(l Logger) { l.InfoToUser("x=%d", 1) },
			wantStdout: "ℹ️  x=1\n",
		},
		"success": {
			log:        func(l Logger) { l.Success("pushed") },
			wantStdout: "✅ pushed\n",
		},
		"status": {
			log:        func(l Logger) { l.StatusMessage("Branch: %s", "main") },
			wantStdout: "Branch: main\n",
		},
		"error goes to stderr": {
			log:        func(l Logger) { l.Error("broken") },
			wantStderr: "❌ broken\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			l := NewWithOutput("", tc.verbose, &stdout, &stderr)

			tc.log(l)

			assert.Equal(t, tc.wantStdout, stdout.String())
			assert.Equal(t, tc.wantStderr, stderr.String())
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gitsync.log")
	l := NewWithOutput(logFile, false, &bytes.Buffer{}, &bytes.Buffer{})

	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	// Writes after close are dropped rather than failing.
	l.Info("after close")
	assert.NotContains(t, strings.Join(readLines(t, logFile), "\n"), "after close")
}

func TestUnwritableLogFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	var stderr bytes.Buffer
	l := NewWithOutput(filepath.Join(blocker, "sub", "gitsync.log"), false, &bytes.Buffer{}, &stderr)

	assert.Equal(t, "", l.LogFile())
	assert.Contains(t, stderr.String(), "file logging disabled")
	l.Info("still works")
	assert.NoError(t, l.Close())
}
