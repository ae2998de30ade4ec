package config

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
)

const (
	// DefaultPushDelay is the pause between two consecutive commit pushes to
	// the same remote. It gives hosting services time to process each update.
	DefaultPushDelay = 500 * time.Millisecond

	// DefaultBackend selects the git command-line backend.
	DefaultBackend = BackendCLI

	// DefaultMaxRetries is the number of extra attempts made for a commit push
	// that fails. Zero means a failed push immediately stops that remote.
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the first backoff delay between push attempts.
	// It doubles with each further attempt.
	DefaultRetryDelay = time.Second

	// DefaultNetworkTimeout bounds each probe, fetch and push.
	DefaultNetworkTimeout = 60 * time.Second

	// DefaultMinFreeDiskMB is the free space threshold below which the disk
	// check warns.
	DefaultMinFreeDiskMB = 100

	// EnvPrefix is prepended to every configuration key when read from the environment.
	EnvPrefix = "GITSYNC_"
)

// Backends accepted by the BACKEND key and --backend flag.
const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Config holds all gitsync settings.
// Values are layered as defaults, then the configuration file, then
// environment variables, then explicitly set command-line flags.
type Config struct {
	// RepoPath is the repository to synchronize.
	// If empty, the current working directory is used.
	RepoPath string

	// Backend selects how git is driven: BackendCLI or BackendNative.
	Backend string

	// DryRun computes and reports the per-remote plan without pushing.
	DryRun bool

	// PushDelay is the pause between consecutive pushes to one remote.
	PushDelay time.Duration

	// MaxRetries is how many times a failed commit push is re-attempted.
	MaxRetries int

	// RetryDelay is the initial backoff between push attempts.
	RetryDelay time.Duration

	// NetworkTimeout bounds each network operation. Zero disables the bound.
	NetworkTimeout time.Duration

	// Verbose streams progress to the console in addition to the log file.
	Verbose bool

	// LogFile is where timestamped log lines are appended.
	// If empty, a per-repository file under the XDG data directory is used.
	LogFile string

	// ConfigFile is the key=value file that was loaded, if any.
	ConfigFile string

	// Report enables writing the end-of-run summary document.
	Report bool

	// ReportDir is where summary documents are written.
	ReportDir string

	// MetricsFile, when set, receives a Prometheus textfile with run metrics.
	MetricsFile string

	// MinFreeDiskMB is the free space threshold of the disk health check.
	MinFreeDiskMB int

	// VersionInfo contains version, commit, and build date information.
	VersionInfo VersionInfo

	// Warnings collects non-fatal problems found while loading configuration.
	// They are logged once the logger exists.
	Warnings []string

	flags flagValues
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// flagValues are flag targets. They are copied into Config only for flags
// the user actually set, so unset flags never mask file or env values.
type flagValues struct {
	repoPath       string
	backend        string
	dryRun         bool
	delay          float64
	maxRetries     int
	retryDelay     time.Duration
	networkTimeout time.Duration
	verbose        bool
	logFile        string
	configFile     string
	noReport       bool
	reportDir      string
	metricsFile    string
	minFreeDiskMB  int
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Backend:        DefaultBackend,
		PushDelay:      DefaultPushDelay,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
		NetworkTimeout: DefaultNetworkTimeout,
		Report:         true,
		MinFreeDiskMB:  DefaultMinFreeDiskMB,
		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// SetupFlags registers the command-line flags on fs.
func (c *Config) SetupFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&c.flags.dryRun, "dry-run", "n", c.DryRun, "Compute and report the plan without pushing")
	fs.BoolVarP(&c.flags.verbose, "verbose", "v", c.Verbose, "Stream progress to the console as well as the log")
	fs.StringVarP(&c.flags.configFile, "config", "c", "", "Configuration file (default: $XDG_CONFIG_HOME/gitsync/config)")
	fs.StringVarP(&c.flags.logFile, "log", "l", "", "Append timestamped log entries to FILE")
	fs.StringVar(&c.flags.repoPath, "repo", "", "Path to repository (default: current directory)")
	fs.StringVar(&c.flags.backend, "backend", c.Backend, "Git backend: cli or native")
	fs.Float64Var(&c.flags.delay, "delay", c.PushDelay.Seconds(), "Seconds to wait between pushes")
	fs.IntVar(&c.flags.maxRetries, "max-retries", c.MaxRetries, "Retries per commit push before giving up on a remote")
	fs.DurationVar(&c.flags.retryDelay, "retry-delay", c.RetryDelay, "Initial backoff between push retries")
	fs.DurationVar(&c.flags.networkTimeout, "timeout", c.NetworkTimeout, "Timeout for each network operation (0 = none)")
	fs.StringVar(&c.flags.reportDir, "report-dir", "", "Directory for summary reports (default: $XDG_STATE_HOME/gitsync/reports)")
	fs.BoolVar(&c.flags.noReport, "no-report", false, "Do not write a summary report")
	fs.StringVar(&c.flags.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to FILE")
	fs.IntVar(&c.flags.minFreeDiskMB, "min-free-disk", c.MinFreeDiskMB, "Warn when free disk space drops below this many MB")

	fs.SortFlags = false
}

// Load layers the configuration file, the environment and the flags that
// were set in fs over the current values.
func (c *Config) Load(fs *pflag.FlagSet) error {
	path, required := c.configFilePath(fs)
	if path != "" {
		if err := c.LoadFile(path, required); err != nil {
			return err
		}
	}

	c.LoadFromEnvironment()
	c.ApplyFlags(fs)
	return nil
}

// configFilePath picks the file named by --config, then GITSYNC_CONFIG, then
// the XDG default. Only the default may be missing.
func (c *Config) configFilePath(fs *pflag.FlagSet) (string, bool) {
	if fs != nil && fs.Changed("config") {
		return c.flags.configFile, true
	}
	if path, ok := os.LookupEnv(EnvPrefix + "CONFIG"); ok && path != "" {
		return path, true
	}
	path, err := xdg.SearchConfigFile(filepath.Join("gitsync", "config"))
	if err != nil {
		return "", false
	}
	return path, false
}

// LoadFromEnvironment updates config from GITSYNC_-prefixed environment variables
func (c *Config) LoadFromEnvironment() {
	for _, s := range settings {
		raw, ok := os.LookupEnv(EnvPrefix + s.key)
		if !ok {
			continue
		}
		if err := s.apply(c, strings.TrimSpace(raw)); err != nil {
			c.warnf("ignoring %s%s=%q: %v", EnvPrefix, s.key, raw, err)
		}
	}
}

// ApplyFlags copies the flags that were explicitly set in fs into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	f := c.flags

	if fs.Changed("repo") {
		c.RepoPath = f.repoPath
	}
	if fs.Changed("backend") {
		c.Backend = f.backend
	}
	if fs.Changed("dry-run") {
		c.DryRun = f.dryRun
	}
	if fs.Changed("delay") {
		if !representable(f.delay) {
			c.warnf("ignoring --delay=%v: not a number of seconds", f.delay)
		} else {
			c.PushDelay = secondsToDuration(f.delay)
		}
	}
	if fs.Changed("max-retries") {
		c.MaxRetries = f.maxRetries
	}
	if fs.Changed("retry-delay") {
		c.RetryDelay = f.retryDelay
	}
	if fs.Changed("timeout") {
		c.NetworkTimeout = f.networkTimeout
	}
	if fs.Changed("verbose") {
		c.Verbose = f.verbose
	}
	if fs.Changed("log") {
		c.LogFile = f.logFile
	}
	if fs.Changed("report-dir") {
		c.ReportDir = f.reportDir
	}
	if fs.Changed("no-report") {
		c.Report = !f.noReport
	}
	if fs.Changed("metrics-file") {
		c.MetricsFile = f.metricsFile
	}
	if fs.Changed("min-free-disk") {
		c.MinFreeDiskMB = f.minFreeDiskMB
	}
}

// Finalize validates values and fills in path defaults.
func (c *Config) Finalize() error {
	if c.Backend != BackendCLI && c.Backend != BackendNative {
		return gitsyncErrors.NewConfigError("backend", c.Backend,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must be cli or native"))
	}
	if c.PushDelay < 0 {
		return gitsyncErrors.NewConfigError("delay", c.PushDelay,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.MaxRetries < 0 {
		return gitsyncErrors.NewConfigError("max-retries", c.MaxRetries,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.RetryDelay < 0 {
		return gitsyncErrors.NewConfigError("retry-delay", c.RetryDelay,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.NetworkTimeout < 0 {
		return gitsyncErrors.NewConfigError("timeout", c.NetworkTimeout,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must not be negative"))
	}
	if c.MinFreeDiskMB < 0 {
		return gitsyncErrors.NewConfigError("min-free-disk", c.MinFreeDiskMB,
			gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must not be negative"))
	}

	if c.RepoPath == "" {
		var err error
		c.RepoPath, err = os.Getwd()
		if err != nil {
			return gitsyncErrors.NewConfigError("repoPath", "", gitsyncErrors.Wrap(err, "failed to get current directory"))
		}
	}

	absRepoPath, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return gitsyncErrors.NewConfigError("repoPath", c.RepoPath, gitsyncErrors.Wrap(err, "failed to resolve absolute path"))
	}
	c.RepoPath = absRepoPath

	if c.LogFile == "" {
		repoHash := fmt.Sprintf("%x", sha256OfString(c.RepoPath)[:8])
		c.LogFile, err = xdg.DataFile(filepath.Join("gitsync", "logs", fmt.Sprintf("gitsync-%s.log", repoHash)))
		if err != nil {
			return gitsyncErrors.NewConfigError("logFile", c.LogFile, gitsyncErrors.Wrap(err, "cannot create log directory"))
		}
	}

	if c.ReportDir == "" {
		c.ReportDir = filepath.Join(xdg.StateHome, "gitsync", "reports")
	}

	return nil
}

// MinFreeDiskBytes returns the disk threshold in bytes.
func (c *Config) MinFreeDiskBytes() uint64 {
	return uint64(c.MinFreeDiskMB) * 1024 * 1024
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// setting binds a configuration key to the field it sets. The same table
// serves the configuration file and the environment.
type setting struct {
	key     string
	envOnly bool
	apply   func(c *Config, raw string) error
}

var settings = []setting{
	{key: "REPO_PATH", envOnly: true, apply: func(c *Config, raw string) error {
		c.RepoPath = raw
		return nil
	}},
	{key: "PUSH_DELAY", apply: func(c *Config, raw string) error {
		d, err := parseSeconds(raw)
		if err != nil {
			return err
		}
		c.PushDelay = d
		return nil
	}},
	{key: "LOG_FILE", apply: func(c *Config, raw string) error {
		c.LogFile = raw
		return nil
	}},
	{key: "VERBOSE", apply: func(c *Config, raw string) error {
		return setBool(&c.Verbose, raw)
	}},
	{key: "DRY_RUN", apply: func(c *Config, raw string) error {
		return setBool(&c.DryRun, raw)
	}},
	{key: "BACKEND", apply: func(c *Config, raw string) error {
		backend := strings.ToLower(raw)
		if backend != BackendCLI && backend != BackendNative {
			return fmt.Errorf("must be %s or %s", BackendCLI, BackendNative)
		}
		c.Backend = backend
		return nil
	}},
	{key: "MAX_RETRIES", apply: func(c *Config, raw string) error {
		n, err := parseNonNegativeInt(raw)
		if err != nil {
			return err
		}
		c.MaxRetries = n
		return nil
	}},
	{key: "RETRY_DELAY", apply: func(c *Config, raw string) error {
		d, err := parseSeconds(raw)
		if err != nil {
			return err
		}
		c.RetryDelay = d
		return nil
	}},
	{key: "NETWORK_TIMEOUT", apply: func(c *Config, raw string) error {
		d, err := parseSeconds(raw)
		if err != nil {
			return err
		}
		c.NetworkTimeout = d
		return nil
	}},
	{key: "REPORT", apply: func(c *Config, raw string) error {
		return setBool(&c.Report, raw)
	}},
	{key: "REPORT_DIR", apply: func(c *Config, raw string) error {
		c.ReportDir = raw
		return nil
	}},
	{key: "METRICS_FILE", apply: func(c *Config, raw string) error {
		c.MetricsFile = raw
		return nil
	}},
	{key: "MIN_FREE_DISK_MB", apply: func(c *Config, raw string) error {
		n, err := parseNonNegativeInt(raw)
		if err != nil {
			return err
		}
		c.MinFreeDiskMB = n
		return nil
	}},
}

func lookupSetting(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// parseSeconds accepts a bare number of seconds ("0.5") or a Go duration ("500ms").
func parseSeconds(raw string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if !representable(seconds) {
			return 0, fmt.Errorf("not a number of seconds")
		}
		if seconds < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return secondsToDuration(seconds), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("not a number of seconds or a duration")
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

func parseNonNegativeInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return n, nil
}

func setBool(target *bool, raw string) error {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		*target = true
	case "false", "0", "no", "off":
		*target = false
	default:
		return fmt.Errorf("not a boolean")
	}
	return nil
}

// maxSeconds is the longest delay a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64) / float64(time.Second)

// representable reports whether secondsToDuration can convert seconds
// without overflowing.
func representable(seconds float64) bool {
	return !math.IsNaN(seconds) && math.Abs(seconds) < maxSeconds
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
