package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/logger"
	"github.com/bashhack/gitsync/internal/syncer"
)

// Console renders engine progress through a logger. Progress lines are
// internal messages, so they reach the console only in verbose mode.
// Results are always shown.
type Console struct {
	log    logger.Logger
	dryRun bool
}

// NewConsole creates a console observer.
func NewConsole(log logger.Logger, dryRun bool) *Console {
	return &Console{log: log, dryRun: dryRun}
}

// OnEvent implements syncer.Observer.
func (c *Console) OnEvent(e syncer.Event) {
	switch e.Phase {
	case syncer.PhaseFetch:
		c.log.Info("Fetching %s", e.Remote)
	case syncer.PhasePlan:
		if e.Total > 0 {
			c.log.Info("%s is missing %s", e.Remote, english.Plural(e.Total, "commit", ""))
		}
	case syncer.PhasePush:
		verb := "Pushing"
		if c.dryRun {
			verb = "Would push"
		}
		retry := ""
		if e.Attempt > 1 {
			retry = fmt.Sprintf(" (attempt %d)", e.Attempt)
		}
		c.log.Info("[%d/%d] %s %s %s to %s%s", e.Index, e.Total, verb, e.Commit.ShortHash(), e.Commit.Summary(), e.Remote, retry)
	}
}

// OnResult implements syncer.Observer.
func (c *Console) OnResult(r syncer.Result) {
	name := r.Remote.Name
	switch r.Outcome {
	case syncer.UpToDate:
		c.log.Success("%s is up to date", name)
	case syncer.Synchronized:
		if c.dryRun {
			c.log.InfoToUser("%s: would push %s", name, english.Plural(r.Pushed, "commit", ""))
			return
		}
		c.log.Success("%s synchronized (%s pushed)", name, english.Plural(r.Pushed, "commit", ""))
	case syncer.PartiallySynchronized, syncer.Skipped:
		c.log.WarningToUser("%s: %s", name, Describe(r))
	}
}

// Describe returns a one-line explanation of a result.
func Describe(r syncer.Result) string {
	switch r.Outcome {
	case syncer.UpToDate:
		return "already up to date"
	case syncer.Synchronized:
		if r.DryRun {
			return fmt.Sprintf("%d/%d commits would be pushed", r.Pushed, r.Total())
		}
		return fmt.Sprintf("%d/%d commits pushed", r.Pushed, r.Total())
	case syncer.PartiallySynchronized:
		msg := fmt.Sprintf("stopped at commit %d of %d (%s %s)",
			r.FailedAt, r.Total(), r.FailedCommit.ShortHash(), r.FailedCommit.Summary())
		if r.Reason == syncer.ReasonInterrupted {
			return msg + ", interrupted"
		}
		if r.Err != nil {
			return msg + ": " + rootCause(r.Err)
		}
		return msg
	case syncer.Skipped:
		if r.Err != nil && r.Reason != syncer.ReasonInterrupted {
			return fmt.Sprintf("skipped, %s: %s", r.Reason, rootCause(r.Err))
		}
		return "skipped, " + r.Reason
	default:
		return r.Outcome.String()
	}
}

// rootCause prefers git's own stderr over the wrapped error chain.
func rootCause(err error) string {
	var gitErr *gitsyncErrors.GitError
	if gitsyncErrors.As(err, &gitErr) && gitErr.Output != "" {
		line, _, _ := strings.Cut(gitErr.Output, "\n")
		return line
	}

	var pushErr *gitsyncErrors.PushError
	if gitsyncErrors.As(err, &pushErr) && pushErr.Err != nil {
		return pushErr.Err.Error()
	}
	var remoteErr *gitsyncErrors.RemoteError
	if gitsyncErrors.As(err, &remoteErr) && remoteErr.Err != nil {
		return remoteErr.Err.Error()
	}
	return err.Error()
}
