package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

// isolateXDG points every XDG base directory at a fresh temp dir.
func isolateXDG(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, "state"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(home, "etc"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return home
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newFlags(t *testing.T, c *Config, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("gitsync", pflag.ContinueOnError)
	c.SetupFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestNewConfig(t *testing.T) {
	c := New()

	assert.Equal(t, 500*time.Millisecond, c.PushDelay)
	assert.Equal(t, BackendCLI, c.Backend)
	assert.Equal(t, 0, c.MaxRetries)
	assert.Equal(t, time.Second, c.RetryDelay)
	assert.Equal(t, 60*time.Second, c.NetworkTimeout)
	assert.True(t, c.Report)
	assert.False(t, c.DryRun)
	assert.False(t, c.Verbose)
	assert.Equal(t, 100, c.MinFreeDiskMB)
	assert.Equal(t, "dev", c.VersionInfo.Version)
}

func TestParseFile(t *testing.T) {
	tests := map[string]struct {
		content      string
		check        func(t *testing.T, c *Config)
		wantWarnings []string
	}{
		"comments and blank lines": {
			content: "# gitsync settings\n\n   # indented comment\nPUSH_DELAY=2\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2*time.Second, c.PushDelay)
			},
		},
		"quotes and export prefix": {
			content: "export LOG_FILE=\"/var/log/gitsync.log\"\nREPORT_DIR='/tmp/reports'\nBACKEND=native\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "/var/log/gitsync.log", c.LogFile)
				assert.Equal(t, "/tmp/reports", c.ReportDir)
				assert.Equal(t, BackendNative, c.Backend)
			},
		},
		"inline comment on unquoted value": {
			content: "MAX_RETRIES=3 # be patient\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 3, c.MaxRetries)
			},
		},
		"booleans": {
			content: "VERBOSE=yes\nDRY_RUN=1\nREPORT=false\n",
			check: func(t *testing.T, c *Config) {
				assert.True(t, c.Verbose)
				assert.True(t, c.DryRun)
				assert.False(t, c.Report)
			},
		},
		"durations": {
			content: "RETRY_DELAY=250ms\nNETWORK_TIMEOUT=5\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 250*time.Millisecond, c.RetryDelay)
				assert.Equal(t, 5*time.Second, c.NetworkTimeout)
			},
		},
		"invalid push delay falls back to default": {
			content: "PUSH_DELAY=fast\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
			},
			wantWarnings: []string{"invalid PUSH_DELAY \"fast\""},
		},
		"negative push delay falls back to default": {
			content: "PUSH_DELAY=-1\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
			},
			wantWarnings: []string{"invalid PUSH_DELAY"},
		},
		"NaN push delay falls back to default": {
			content: "PUSH_DELAY=NaN\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
			},
			wantWarnings: []string{"invalid PUSH_DELAY"},
		},
		"Inf push delay falls back to default": {
			content: "PUSH_DELAY=Inf\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
			},
			wantWarnings: []string{"invalid PUSH_DELAY"},
		},
		"huge push delay falls back to default": {
			content: "PUSH_DELAY=1e300\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
			},
			wantWarnings: []string{"invalid PUSH_DELAY"},
		},
		"negative infinite retry delay falls back to default": {
			content: "RETRY_DELAY=-Inf\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultRetryDelay, c.RetryDelay)
			},
			wantWarnings: []string{"invalid RETRY_DELAY"},
		},
		"unknown key": {
			content:      "INTERVAL=5\n",
			wantWarnings: []string{"unknown key INTERVAL"},
		},
		"env only key is unknown in file": {
			content:      "REPO_PATH=/srv/repo\n",
			wantWarnings: []string{"unknown key REPO_PATH"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "", c.RepoPath)
			},
		},
		"malformed line": {
			content:      "just some words\n",
			wantWarnings: []string{"expected KEY=value"},
		},
		"shell syntax is data": {
			content: "LOG_FILE=$(rm -rf /tmp/nothing)\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "$(rm -rf /tmp/nothing)", c.LogFile)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := New()
			require.NoError(t, c.parseFile(strings.NewReader(tc.content), "config"))

			if tc.check != nil {
				tc.check(t, c)
			}
			require.Len(t, c.Warnings, len(tc.wantWarnings))
			for i, want := range tc.wantWarnings {
				assert.Contains(t, c.Warnings[i], want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing optional file", func(t *testing.T) {
		c := New()
		assert.NoError(t, c.LoadFile(filepath.Join(dir, "absent"), false))
		assert.Equal(t, "", c.ConfigFile)
	})

	t.Run("missing required file", func(t *testing.T) {
		c := New()
		err := c.LoadFile(filepath.Join(dir, "absent"), true)
		require.Error(t, err)

		var configErr *gitsyncErrors.ConfigError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "config", configErr.Parameter)
		assert.ErrorIs(t, err, gitsyncErrors.ErrInvalidConfiguration)
	})

	t.Run("records loaded path", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "gitsync.conf"), "PUSH_DELAY=1.5\n")
		c := New()
		require.NoError(t, c.LoadFile(path, true))
		assert.Equal(t, path, c.ConfigFile)
		assert.Equal(t, 1500*time.Millisecond, c.PushDelay)
	})
}

func TestLoadPrecedence(t *testing.T) {
	tests := map[string]struct {
		file  string
		env   map[string]string
		args  []string
		check func(t *testing.T, c *Config)
	}{
		"defaults only": {
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
			},
		},
		"file over defaults": {
			file: "PUSH_DELAY=2\nMAX_RETRIES=1\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2*time.Second, c.PushDelay)
				assert.Equal(t, 1, c.MaxRetries)
			},
		},
		"env over file": {
			file: "PUSH_DELAY=2\nMAX_RETRIES=1\n",
			env:  map[string]string{"GITSYNC_PUSH_DELAY": "3"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 3*time.Second, c.PushDelay)
				assert.Equal(t, 1, c.MaxRetries)
			},
		},
		"flags over env": {
			file: "PUSH_DELAY=2\n",
			env:  map[string]string{"GITSYNC_PUSH_DELAY": "3"},
			args: []string{"--delay", "4"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 4*time.Second, c.PushDelay)
			},
		},
		"unset flags keep lower layers": {
			file: "VERBOSE=true\nBACKEND=native\n",
			args: []string{"--dry-run"},
			check: func(t *testing.T, c *Config) {
				assert.True(t, c.Verbose)
				assert.Equal(t, BackendNative, c.Backend)
				assert.True(t, c.DryRun)
			},
		},
		"flag can switch a file setting off": {
			file: "VERBOSE=true\n",
			args: []string{"--verbose=false"},
			check: func(t *testing.T, c *Config) {
				assert.False(t, c.Verbose)
			},
		},
		"invalid env keeps file value": {
			file: "PUSH_DELAY=2\n",
			env:  map[string]string{"GITSYNC_PUSH_DELAY": "soon"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2*time.Second, c.PushDelay)
				require.Len(t, c.Warnings, 1)
				assert.Contains(t, c.Warnings[0], "GITSYNC_PUSH_DELAY")
			},
		},
		"NaN env keeps file value": {
			file: "PUSH_DELAY=2\n",
			env:  map[string]string{"GITSYNC_NETWORK_TIMEOUT": "NaN", "GITSYNC_PUSH_DELAY": "NaN"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2*time.Second, c.PushDelay)
				assert.Equal(t, DefaultNetworkTimeout, c.NetworkTimeout)
				assert.Len(t, c.Warnings, 2)
			},
		},
		"NaN delay flag keeps env value": {
			env:  map[string]string{"GITSYNC_PUSH_DELAY": "3"},
			args: []string{"--delay", "NaN"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 3*time.Second, c.PushDelay)
				require.Len(t, c.Warnings, 1)
				assert.Contains(t, c.Warnings[0], "--delay")
			},
		},
		"huge delay flag keeps default": {
			args: []string{"--delay", "1e300"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultPushDelay, c.PushDelay)
				require.Len(t, c.Warnings, 1)
				assert.Contains(t, c.Warnings[0], "--delay")
			},
		},
		"no-report flag": {
			file: "REPORT=true\n",
			args: []string{"--no-report"},
			check: func(t *testing.T, c *Config) {
				assert.False(t, c.Report)
			},
		},
		"repo path from env": {
			env: map[string]string{"GITSYNC_REPO_PATH": "/srv/repo"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "/srv/repo", c.RepoPath)
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			home := isolateXDG(t)
			if tc.file != "" {
				writeFile(t, filepath.Join(home, "config", "gitsync", "config"), tc.file)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			c := New()
			fs := newFlags(t, c, tc.args...)
			require.NoError(t, c.Load(fs))

			tc.check(t, c)
		})
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	home := isolateXDG(t)
	writeFile(t, filepath.Join(home, "config", "gitsync", "config"), "PUSH_DELAY=2\n")
	explicit := writeFile(t, filepath.Join(home, "custom.conf"), "PUSH_DELAY=7\n")

	c := New()
	fs := newFlags(t, c, "--config", explicit)
	require.NoError(t, c.Load(fs))
	assert.Equal(t, 7*time.Second, c.PushDelay)
	assert.Equal(t, explicit, c.ConfigFile)

	c = New()
	fs = newFlags(t, c, "-c", filepath.Join(home, "missing.conf"))
	err := c.Load(fs)
	assert.ErrorIs(t, err, gitsyncErrors.ErrInvalidConfiguration)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	home := isolateXDG(t)
	path := writeFile(t, filepath.Join(home, "env.conf"), "MAX_RETRIES=4\n")
	t.Setenv("GITSYNC_CONFIG", path)

	c := New()
	require.NoError(t, c.Load(newFlags(t, c)))
	assert.Equal(t, 4, c.MaxRetries)
}

func TestFinalize(t *testing.T) {
	home := isolateXDG(t)
	repo := t.TempDir()

	c := New()
	c.RepoPath = repo
	require.NoError(t, c.Finalize())

	assert.True(t, filepath.IsAbs(c.RepoPath))
	assert.True(t, strings.HasPrefix(c.LogFile, filepath.Join(home, "data", "gitsync", "logs")), c.LogFile)
	assert.Regexp(t, `gitsync-[0-9a-f]{16}\.log$`, c.LogFile)
	assert.DirExists(t, filepath.Dir(c.LogFile))
	assert.Equal(t, filepath.Join(home, "state", "gitsync", "reports"), c.ReportDir)

	// The log path is stable for a repository.
	again := New()
	again.RepoPath = repo
	require.NoError(t, again.Finalize())
	assert.Equal(t, c.LogFile, again.LogFile)
}

func TestFinalizeKeepsExplicitPaths(t *testing.T) {
	isolateXDG(t)

	c := New()
	c.RepoPath = t.TempDir()
	c.LogFile = "/tmp/explicit.log"
	c.ReportDir = "/tmp/reports"
	require.NoError(t, c.Finalize())

	assert.Equal(t, "/tmp/explicit.log", c.LogFile)
	assert.Equal(t, "/tmp/reports", c.ReportDir)
}

func TestFinalizeValidation(t *testing.T) {
	tests := map[string]struct {
		mutate    func(c *Config)
		parameter string
	}{
		"unknown backend":      {mutate: func(c *Config) { c.Backend = "svn" }, parameter: "backend"},
		"negative delay":       {mutate: func(c *Config) { c.PushDelay = -time.Second }, parameter: "delay"},
		"negative retries":     {mutate: func(c *Config) { c.MaxRetries = -1 }, parameter: "max-retries"},
		"negative retry delay": {mutate: func(c *Config) { c.RetryDelay = -time.Second }, parameter: "retry-delay"},
		"negative timeout":     {mutate: func(c *Config) { c.NetworkTimeout = -time.Second }, parameter: "timeout"},
		"negative disk":        {mutate: func(c *Config) { c.MinFreeDiskMB = -1 }, parameter: "min-free-disk"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			c := New()
			c.RepoPath = t.TempDir()
			tc.mutate(c)

			err := c.Finalize()
			var configErr *gitsyncErrors.ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tc.parameter, configErr.Parameter)
			assert.ErrorIs(t, err, gitsyncErrors.ErrInvalidConfiguration)
		})
	}
}

func TestMinFreeDiskBytes(t *testing.T) {
	c := New()
	c.MinFreeDiskMB = 2
	assert.Equal(t, uint64(2*1024*1024), c.MinFreeDiskBytes())
}
