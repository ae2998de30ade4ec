package health

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/git"
	"github.com/bashhack/gitsync/internal/logger"
)

// Severity classifies a finding.
type Severity int

const (
	// Info findings are written to the log only.
	Info Severity = iota
	// Warning findings are shown to the user but never block a run.
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "info"
}

// Thresholds for the resource checks.
const (
	// MinAvailableMemoryRatio is the share of total memory below which
	// available memory is reported.
	MinAvailableMemoryRatio = 0.10
)

// Finding is the result of one advisory check.
type Finding struct {
	Check    string
	Severity Severity
	Message  string
}

// Input describes what the advisory checks look at.
type Input struct {
	RepoPath     string
	GitDir       string
	Remotes      []git.Remote
	MinFreeBytes uint64

	// NativeBackend notes that hooks will not run.
	NativeBackend bool
}

// SystemStats is a snapshot of memory and load.
type SystemStats struct {
	TotalMemory     uint64
	AvailableMemory uint64
	Load1           float64
}

// Checker runs pre-flight and advisory checks. The system calls are
// replaceable so tests can simulate any machine state.
type Checker struct {
	statfs func(path string, buf *unix.Statfs_t) error
	access func(path string, mode uint32) error
	stats  func() (SystemStats, error)
	numCPU func() int
}

// New returns a Checker backed by the operating system.
func New() *Checker {
	return &Checker{
		statfs: unix.Statfs,
		access: unix.Access,
		stats:  systemStats,
		numCPU: runtime.NumCPU,
	}
}

// Preflight verifies the repository directory is readable and writable.
// Its error is fatal to the run.
func (c *Checker) Preflight(repoPath string) error {
	if err := c.access(repoPath, unix.R_OK|unix.W_OK); err != nil {
		return gitsyncErrors.Wrapf(gitsyncErrors.ErrWorkdirPermission, "%s: %v", repoPath, err)
	}
	return nil
}

// Advisory runs every non-blocking check.
func (c *Checker) Advisory(in Input) []Finding {
	var findings []Finding
	findings = append(findings, c.DiskSpace(in.RepoPath, in.MinFreeBytes)...)
	findings = append(findings, c.Resources()...)
	findings = append(findings, Credentials(in.Remotes)...)
	if in.GitDir != "" {
		findings = append(findings, PrePushHook(in.GitDir, in.NativeBackend)...)
	}
	return findings
}

// DiskSpace reports when the filesystem holding path has less than
// minFree bytes available.
func (c *Checker) DiskSpace(path string, minFree uint64) []Finding {
	var st unix.Statfs_t
	if err := c.statfs(path, &st); err != nil {
		return []Finding{{Check: "disk", Severity: Info, Message: fmt.Sprintf("cannot determine free disk space: %v", err)}}
	}

	free := uint64(st.Bavail) * uint64(st.Bsize)
	if free < minFree {
		return []Finding{{
			Check:    "disk",
			Severity: Warning,
			Message:  fmt.Sprintf("low disk space: %s available, %s recommended", humanize.IBytes(free), humanize.IBytes(minFree)),
		}}
	}
	return []Finding{{Check: "disk", Severity: Info, Message: fmt.Sprintf("%s of disk space available", humanize.IBytes(free))}}
}

// Resources reports low available memory and a load average above the
// number of CPUs.
func (c *Checker) Resources() []Finding {
	stats, err := c.stats()
	if err != nil {
		return []Finding{{Check: "resources", Severity: Info, Message: fmt.Sprintf("memory and load checks skipped: %v", err)}}
	}

	var findings []Finding
	if stats.TotalMemory > 0 {
		ratio := float64(stats.AvailableMemory) / float64(stats.TotalMemory)
		if ratio < MinAvailableMemoryRatio {
			findings = append(findings, Finding{
				Check:    "memory",
				Severity: Warning,
				Message: fmt.Sprintf("low memory: %s of %s available",
					humanize.IBytes(stats.AvailableMemory), humanize.IBytes(stats.TotalMemory)),
			})
		}
	}
	if cpus := c.numCPU(); stats.Load1 > float64(cpus) {
		findings = append(findings, Finding{
			Check:    "load",
			Severity: Warning,
			Message:  fmt.Sprintf("high system load: %.2f on %d CPU(s)", stats.Load1, cpus),
		})
	}
	return findings
}

// Credentials reports remotes whose URL embeds a password or token.
func Credentials(remotes []git.Remote) []Finding {
	var findings []Finding
	for _, r := range remotes {
		if !hasCredentials(r.URL) {
			continue
		}
		findings = append(findings, Finding{
			Check:    "credentials",
			Severity: Warning,
			Message:  fmt.Sprintf("remote %s has credentials embedded in its URL (%s); use a credential helper instead", r.Name, r.Redacted()),
		})
	}
	return findings
}

func hasCredentials(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return false
	}
	if _, ok := u.User.Password(); ok {
		return true
	}
	// A bare username over http(s) is usually a token.
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "https" || scheme == "http") && u.User.Username() != ""
}

// PrePushHook reports an executable pre-push hook. Hooks may reject or
// slow down each of the single-commit pushes.
func PrePushHook(gitDir string, native bool) []Finding {
	hook := filepath.Join(gitDir, "hooks", "pre-push")
	info, err := os.Stat(hook)
	if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return nil
	}

	msg := fmt.Sprintf("pre-push hook installed at %s; it runs once per pushed commit", hook)
	if native {
		msg = fmt.Sprintf("pre-push hook installed at %s is not run by the native backend", hook)
	}
	return []Finding{{Check: "hooks", Severity: Warning, Message: msg}}
}

// Log writes findings through the logger. Warnings are shown to the user.
func Log(log logger.Logger, findings []Finding) {
	for _, f := range findings {
		switch f.Severity {
		case Warning:
			log.WarningToUser("%s", f.Message)
		default:
			log.Info("health %s: %s", f.Check, f.Message)
		}
	}
}

// Warnings returns the findings with Warning severity.
func Warnings(findings []Finding) []Finding {
	var warnings []Finding
	for _, f := range findings {
		if f.Severity == Warning {
			warnings = append(warnings, f)
		}
	}
	return warnings
}
