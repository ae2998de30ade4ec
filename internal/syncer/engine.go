package syncer

import (
	"context"
	"fmt"
	"time"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/git"
	"github.com/bashhack/gitsync/internal/logger"
)

// DefaultMaxRetryDelay caps the exponential backoff between push retries.
const DefaultMaxRetryDelay = 30 * time.Second

// Repository is the subset of git.Repository the engine drives.
type Repository interface {
	CurrentBranch(ctx context.Context) (string, error)
	LocalTip(ctx context.Context, branch string) (string, error)
	Remotes(ctx context.Context) ([]git.Remote, error)
	Probe(ctx context.Context, remote string) error
	Fetch(ctx context.Context, remote string) error
	RemoteTip(ctx context.Context, remote, branch string) (string, error)
	CommitsBetween(ctx context.Context, base, tip string) ([]git.Commit, error)
	Push(ctx context.Context, remote, hash, branch string) error
}

// Options control a synchronization run.
type Options struct {
	// DryRun computes and reports every gap without pushing. Events and
	// results are the same as for a real run in which every push succeeds.
	DryRun bool

	// PushDelay is waited between two successful pushes to the same remote.
	// It is not applied after the last commit or in dry-run mode.
	PushDelay time.Duration

	// MaxRetries is how many times a failed push of one commit is retried
	// before the remote stops. Zero disables retries.
	MaxRetries int

	// RetryDelay is the wait before the first retry. It doubles for each
	// later retry of the same commit, up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// NetworkTimeout bounds each probe, fetch and push. Zero means no bound
	// beyond the run's context.
	NetworkTimeout time.Duration
}

var errNegative = gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, "must not be negative")

// Validate reports the first invalid option.
func (o *Options) Validate() error {
	if o.PushDelay < 0 {
		return gitsyncErrors.NewConfigError("delay", o.PushDelay, errNegative)
	}
	if o.MaxRetries < 0 {
		return gitsyncErrors.NewConfigError("max-retries", o.MaxRetries, errNegative)
	}
	if o.RetryDelay < 0 {
		return gitsyncErrors.NewConfigError("retry-delay", o.RetryDelay, errNegative)
	}
	if o.NetworkTimeout < 0 {
		return gitsyncErrors.NewConfigError("timeout", o.NetworkTimeout, errNegative)
	}
	return nil
}

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Engine synchronizes the current branch to every remote of a repository.
// An Engine is not safe for concurrent use.
type Engine struct {
	repo     Repository
	opts     Options
	logger   logger.Logger
	observer Observer

	sleep SleepFunc
	now   func() time.Time
}

// New creates an engine. A nil observer discards events.
func New(repo Repository, opts Options, log logger.Logger, observer Observer) (*Engine, error) {
	return NewWithDeps(repo, opts, log, observer, Sleep, time.Now)
}

// NewWithDeps creates an engine with a custom sleep and clock.
func NewWithDeps(
	repo Repository,
	opts Options,
	log logger.Logger,
	observer Observer,
	sleep SleepFunc,
	now func() time.Time,
) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sync options: %w", err)
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if observer == nil {
		observer = Observers(nil)
	}

	return &Engine{
		repo:     repo,
		opts:     opts,
		logger:   log,
		observer: observer,
		sleep:    sleep,
		now:      now,
	}, nil
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run synchronizes the current branch to every remote, in name order.
//
// Remote failures are recorded in the returned Run and never stop the run.
// An error is returned only when the branch or the remote list cannot be
// determined, or when ctx is canceled. In the latter case the Run is still
// returned, with every unprocessed remote skipped as interrupted.
func (e *Engine) Run(ctx context.Context) (*Run, error) {
	run := &Run{DryRun: e.opts.DryRun, Started: e.now()}
	defer func() { run.Finished = e.now() }()

	branch, err := e.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	run.Branch = branch

	tip, err := e.repo.LocalTip(ctx, branch)
	if err != nil {
		return nil, err
	}
	run.Tip = tip
	if tip == "" {
		e.logger.Warning("Branch %s has no commits, nothing to push", branch)
	}

	remotes, err := e.repo.Remotes(ctx)
	if err != nil {
		return nil, err
	}
	remotes = sortRemotes(remotes)
	e.logger.Info("Synchronizing %s (%s) to %d remote(s)", branch, shortHash(tip), len(remotes))

	for i, remote := range remotes {
		if ctx.Err() != nil {
			e.skipRemaining(run, remotes[i:])
			return run, ctx.Err()
		}

		result := e.syncRemote(ctx, branch, tip, remote)
		run.Results = append(run.Results, result)
		e.observer.OnResult(result)
	}

	if err := ctx.Err(); err != nil {
		return run, err
	}
	return run, nil
}

func (e *Engine) skipRemaining(run *Run, remotes []git.Remote) {
	for _, remote := range remotes {
		result := Result{
			Remote:  remote,
			Outcome: Skipped,
			Reason:  ReasonInterrupted,
			DryRun:  e.opts.DryRun,
		}
		run.Results = append(run.Results, result)
		e.observer.OnResult(result)
	}
}

// syncRemote runs the state machine of one remote: validate, probe, fetch,
// compute the gap, then push it commit by commit.
func (e *Engine) syncRemote(ctx context.Context, branch, tip string, remote git.Remote) (result Result) {
	start := e.now()
	result = Result{Remote: remote, DryRun: e.opts.DryRun}
	defer func() { result.Duration = e.now().Sub(start) }()

	name := remote.Name
	skip := func(reason string, err error) Result {
		if ctx.Err() != nil {
			reason = ReasonInterrupted
		}
		result.Outcome = Skipped
		result.Reason = reason
		result.Err = err
		e.logger.Warning("Skipping remote %s: %s: %v", name, reason, err)
		return result
	}

	if err := ValidRemoteName(name); err != nil {
		return skip(ReasonInvalidName, gitsyncErrors.NewRemoteError(name, err))
	}
	if remote.URL == "" {
		return skip(ReasonNoURL, gitsyncErrors.NewRemoteError(name, gitsyncErrors.ErrRemoteUnreachable))
	}

	e.observer.OnEvent(Event{Remote: name, Phase: PhaseFetch})
	if err := e.network(ctx, func(ctx context.Context) error { return e.repo.Probe(ctx, name) }); err != nil {
		return skip(ReasonUnreachable, err)
	}
	if err := e.network(ctx, func(ctx context.Context) error { return e.repo.Fetch(ctx, name) }); err != nil {
		return skip(ReasonFetchFailed, err)
	}

	base, err := e.repo.RemoteTip(ctx, name, branch)
	if err != nil {
		return skip(ReasonNoRemoteRef, gitsyncErrors.NewRemoteError(name, err))
	}
	if base == "" {
		e.logger.Info("Remote %s has no branch %s, pushing full history", name, branch)
	}

	gap, err := e.repo.CommitsBetween(ctx, base, tip)
	if err != nil {
		return skip(ReasonGapFailed, gitsyncErrors.NewRemoteError(name, err))
	}
	result.Gap = gap
	total := len(gap)
	e.observer.OnEvent(Event{Remote: name, Phase: PhasePlan, Total: total})

	if total == 0 {
		result.Outcome = UpToDate
		return result
	}

	for i, commit := range gap {
		index := i + 1
		if err := e.pushCommit(ctx, name, branch, commit, index, total); err != nil {
			return e.stopAt(ctx, result, index, commit, err)
		}
		result.Pushed++

		if index < total && !e.opts.DryRun && e.opts.PushDelay > 0 {
			if err := e.sleep(ctx, e.opts.PushDelay); err != nil {
				return e.stopAt(ctx, result, index+1, gap[index], err)
			}
		}
	}

	result.Outcome = Synchronized
	return result
}

// stopAt records a stop before commit index of the gap was pushed.
func (e *Engine) stopAt(ctx context.Context, result Result, index int, commit git.Commit, err error) Result {
	result.Outcome = PartiallySynchronized
	result.FailedAt = index
	result.FailedCommit = commit
	result.Reason = ReasonPushFailed
	if ctx.Err() != nil {
		result.Reason = ReasonInterrupted
	}
	result.Err = gitsyncErrors.NewPushError(result.Remote.Name, commit.Hash, index, len(result.Gap), err)
	e.logger.Error("Remote %s stopped at commit %d/%d (%s): %v",
		result.Remote.Name, index, len(result.Gap), commit.ShortHash(), err)
	return result
}

// pushCommit pushes one commit, retrying with exponential backoff. Every
// attempt emits a push event. The next commit of the gap is never tried
// before this one succeeds.
func (e *Engine) pushCommit(ctx context.Context, remote, branch string, commit git.Commit, index, total int) error {
	delay := e.opts.RetryDelay
	for attempt := 1; ; attempt++ {
		e.observer.OnEvent(Event{
			Remote:  remote,
			Phase:   PhasePush,
			Index:   index,
			Total:   total,
			Attempt: attempt,
			Commit:  commit,
		})

		err := e.push(ctx, remote, commit.Hash, branch)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt > e.opts.MaxRetries {
			return err
		}

		e.logger.Warning("Push of %s to %s failed (attempt %d of %d), retrying in %s: %v",
			commit.ShortHash(), remote, attempt, e.opts.MaxRetries+1, delay, err)
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, e.opts.MaxRetryDelay)
	}
}

func (e *Engine) push(ctx context.Context, remote, hash, branch string) error {
	if e.opts.DryRun {
		e.logger.Info("[dry-run] would push %s to %s/%s", hash, remote, branch)
		return nil
	}
	return e.network(ctx, func(ctx context.Context) error {
		return e.repo.Push(ctx, remote, hash, branch)
	})
}

// network runs op under the configured network timeout.
func (e *Engine) network(ctx context.Context, op func(context.Context) error) error {
	if e.opts.NetworkTimeout <= 0 {
		return op(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, e.opts.NetworkTimeout)
	defer cancel()
	return op(ctx)
}

func shortHash(hash string) string {
	if hash == "" {
		return "no commits"
	}
	return git.Commit{Hash: hash}.ShortHash()
}
