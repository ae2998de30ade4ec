package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/bashhack/gitsync/internal/config"
	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/git"
	"github.com/bashhack/gitsync/internal/health"
	"github.com/bashhack/gitsync/internal/lock"
	"github.com/bashhack/gitsync/internal/logger"
	"github.com/bashhack/gitsync/internal/metrics"
	"github.com/bashhack/gitsync/internal/report"
	"github.com/bashhack/gitsync/internal/syncer"
)

// shutdownGrace is how long a canceled run may take to stop on its own
// before the process cleans up and exits.
const shutdownGrace = 5 * time.Second

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// HealthChecker runs the pre-flight and advisory checks.
type HealthChecker interface {
	Preflight(repoPath string) error
	Advisory(in health.Input) []health.Finding
}

// AppOptions contains app configuration and dependencies.
// Any nil optional dependency is replaced by its default.
type AppOptions struct {
	// Config holds the application configuration settings (required).
	// The application will panic if this field is nil.
	Config *config.Config

	// Logger provides logging functionality (optional, created from Config if nil).
	Logger logger.Logger

	// Locker guards the repository against concurrent runs (optional,
	// created for the opened repository if nil).
	Locker Locker

	// Health runs the environment checks (optional, defaults to health.New()).
	Health HealthChecker

	// Stdout is the writer for standard output (optional, defaults to os.Stdout).
	Stdout io.Writer

	// Stderr is the writer for error output (optional, defaults to os.Stderr).
	Stderr io.Writer

	// Exit terminates the process when a canceled run does not stop in time
	// (optional, defaults to os.Exit).
	Exit func(code int)

	// ExecLookPath is used to find executables in PATH (optional, defaults to exec.LookPath).
	ExecLookPath func(file string) (string, error)

	// GitVersion reports the version of the git executable (optional).
	GitVersion func(ctx context.Context) (*semver.Version, error)

	// IsRepository checks if a path is a valid Git repository (optional, defaults to git.IsRepository).
	// Only the CLI backend consults it.
	IsRepository func(string) (bool, error)

	// OpenRepository opens the repository with a backend (optional, defaults to git.Open).
	OpenRepository func(backend, path string) (git.Repository, error)

	// Sleep is the engine's delay function (optional, defaults to syncer.Sleep).
	Sleep syncer.SleepFunc

	// Now is the clock (optional, defaults to time.Now).
	Now func() time.Time
}

// App is the main gitsync application.
// It orchestrates all components and manages the application lifecycle,
// handling initialization, the sync run, and cleanup.
type App struct {
	Config *config.Config
	Logger logger.Logger
	Locker Locker
	Health HealthChecker

	Stdout io.Writer
	Stderr io.Writer

	// Result is the finished run, if the engine got to run at all.
	Result *syncer.Run

	exit           func(code int)
	execLookPath   func(file string) (string, error)
	gitVersion     func(ctx context.Context) (*semver.Version, error)
	isRepository   func(string) (bool, error)
	openRepository func(backend, path string) (git.Repository, error)
	sleep          syncer.SleepFunc
	now            func() time.Time

	repo     git.Repository
	grace    time.Duration
	finished chan struct{}

	// mu guards Locker and locked, which the shutdown watcher may touch
	// while Run is still going.
	mu     sync.Mutex
	locked bool
}

// NewApp creates an App with custom dependencies specified in opts.
// It panics if opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:         opts.Config,
		Logger:         opts.Logger,
		Locker:         opts.Locker,
		Health:         opts.Health,
		Stdout:         opts.Stdout,
		Stderr:         opts.Stderr,
		exit:           opts.Exit,
		execLookPath:   opts.ExecLookPath,
		gitVersion:     opts.GitVersion,
		isRepository:   opts.IsRepository,
		openRepository: opts.OpenRepository,
		sleep:          opts.Sleep,
		now:            opts.Now,
		grace:          shutdownGrace,
		finished:       make(chan struct{}),
	}

	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.Health == nil {
		app.Health = health.New()
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.gitVersion == nil {
		app.gitVersion = func(ctx context.Context) (*semver.Version, error) {
			return git.NewCLIWithExecutor(".", git.NewExecExecutor()).Version(ctx)
		}
	}
	if app.isRepository == nil {
		app.isRepository = git.IsRepository
	}
	if app.openRepository == nil {
		app.openRepository = git.Open
	}
	if app.sleep == nil {
		app.sleep = syncer.Sleep
	}
	if app.now == nil {
		app.now = time.Now
	}

	return app
}

// Initialize finalizes the configuration and sets up the logger.
func (a *App) Initialize() error {
	if err := a.Config.Finalize(); err != nil {
		if gitsyncErrors.Is(err, gitsyncErrors.ErrInvalidConfiguration) {
			return err
		}
		return gitsyncErrors.Wrap(gitsyncErrors.ErrInvalidConfiguration, err.Error())
	}

	if a.Logger == nil {
		a.Logger = logger.NewWithOutput(a.Config.LogFile, a.Config.Verbose, a.Stdout, a.Stderr)
	}

	for _, w := range a.Config.Warnings {
		a.Logger.WarningToUser("%s", w)
	}
	return nil
}

// Run executes the whole sync: pre-flight checks, lock, advisory checks,
// the engine, and the end-of-run outputs.
//
// Remote failures never make Run fail. The error is either fatal to the
// run or ctx's error when the run was interrupted.
func (a *App) Run(ctx context.Context) error {
	defer close(a.finished)
	go a.watchShutdown(ctx)

	if err := a.Initialize(); err != nil {
		return err
	}

	if err := a.checkPrerequisites(ctx); err != nil {
		return err
	}

	repo, err := a.open()
	if err != nil {
		return err
	}
	a.repo = repo
	a.Logger.Info("Git repository verified at %s", repo.Path())

	if err := a.Health.Preflight(repo.Path()); err != nil {
		return err
	}

	if err := a.acquireLock(); err != nil {
		return err
	}

	a.runAdvisoryChecks(ctx)

	var collector *metrics.Collector
	observers := syncer.Observers{report.NewConsole(a.Logger, a.Config.DryRun)}
	if a.Config.MetricsFile != "" {
		collector = metrics.NewCollector()
		observers = append(observers, collector)
	}

	engine, err := syncer.NewWithDeps(repo, a.syncOptions(), a.Logger, observers, a.sleep, a.now)
	if err != nil {
		return err
	}

	run, runErr := engine.Run(ctx)
	if run == nil {
		return runErr
	}
	a.Result = run

	a.finish(run, collector)
	return runErr
}

// syncOptions maps the configuration onto engine options.
func (a *App) syncOptions() syncer.Options {
	return syncer.Options{
		DryRun:         a.Config.DryRun,
		PushDelay:      a.Config.PushDelay,
		MaxRetries:     a.Config.MaxRetries,
		RetryDelay:     a.Config.RetryDelay,
		MaxRetryDelay:  syncer.DefaultMaxRetryDelay,
		NetworkTimeout: a.Config.NetworkTimeout,
	}
}

// checkPrerequisites verifies git is available and recent enough. The
// native backend needs no git executable.
func (a *App) checkPrerequisites(ctx context.Context) error {
	if a.Config.Backend == config.BackendNative {
		return nil
	}

	if _, err := a.execLookPath("git"); err != nil {
		return gitsyncErrors.ErrGitNotFound
	}

	v, err := a.gitVersion(ctx)
	if err != nil {
		return gitsyncErrors.Wrap(gitsyncErrors.ErrGitOperationFailed, err.Error())
	}
	if err := git.CheckVersion(v); err != nil {
		return err
	}
	a.Logger.Info("Using git %s", v)
	return nil
}

func (a *App) open() (git.Repository, error) {
	if a.Config.Backend != config.BackendNative {
		isRepo, err := a.isRepository(a.Config.RepoPath)
		if err != nil {
			a.Logger.Warning("Failed to check if path is a git repository: %v", err)
			return nil, gitsyncErrors.Wrap(gitsyncErrors.ErrGitOperationFailed, err.Error())
		}
		if !isRepo {
			return nil, gitsyncErrors.Wrap(gitsyncErrors.ErrNotGitRepository, a.Config.RepoPath)
		}
	}
	return a.openRepository(a.Config.Backend, a.Config.RepoPath)
}

func (a *App) acquireLock() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Locker == nil {
		locker, err := lock.New(a.repo.Path())
		if err != nil {
			return gitsyncErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if err := a.Locker.Acquire(); err != nil {
		if gitsyncErrors.Is(err, gitsyncErrors.ErrAlreadyRunning) {
			return err
		}
		return gitsyncErrors.Wrap(gitsyncErrors.ErrLockAcquisitionFailure, err.Error())
	}
	a.locked = true
	return nil
}

// runAdvisoryChecks logs the health findings. Nothing here stops the run.
func (a *App) runAdvisoryChecks(ctx context.Context) {
	in := health.Input{
		RepoPath:      a.repo.Path(),
		MinFreeBytes:  a.Config.MinFreeDiskBytes(),
		NativeBackend: a.Config.Backend == config.BackendNative,
	}

	if gitDir, err := a.repo.GitDir(ctx); err == nil {
		in.GitDir = gitDir
	} else {
		a.Logger.Warning("Failed to locate git directory: %v", err)
	}
	if remotes, err := a.repo.Remotes(ctx); err == nil {
		in.Remotes = remotes
	} else {
		a.Logger.Warning("Failed to list remotes for health checks: %v", err)
	}

	health.Log(a.Logger, a.Health.Advisory(in))
}

// finish prints the summary and writes the report and metrics files.
// Failures are warnings: the pushes already happened.
func (a *App) finish(run *syncer.Run, collector *metrics.Collector) {
	details := report.Details{
		RepoPath:  a.repo.Path(),
		Backend:   a.Config.Backend,
		Generated: a.now(),
	}
	if run.Tip != "" {
		// The run context may be canceled by now.
		if n, err := a.repo.CountCommits(context.Background(), run.Tip); err == nil {
			details.Commits = n
		} else {
			a.Logger.Warning("Failed to count commits: %v", err)
		}
	}

	summary := report.NewSummary(run, details)
	summary.Print(a.Logger)

	if a.Config.Report {
		if path, err := summary.WriteFile(a.Config.ReportDir); err != nil {
			a.Logger.WarningToUser("Failed to write report: %v", err)
		} else {
			a.Logger.InfoToUser("📝 Report written to %s", path)
		}
	}

	if collector != nil {
		collector.Finish(run)
		if err := collector.WriteFile(a.Config.MetricsFile); err != nil {
			a.Logger.WarningToUser("%v", err)
		} else {
			a.Logger.Info("Metrics written to %s", a.Config.MetricsFile)
		}
	}
}

// watchShutdown forces cleanup when a canceled run does not return within
// shutdownGrace.
func (a *App) watchShutdown(ctx context.Context) {
	select {
	case <-a.finished:
		return
	case <-ctx.Done():
	}

	select {
	case <-a.finished:
	case <-time.After(a.grace):
		a.CleanupOnSignal()
		a.exit(exitInterrupted)
	}
}

// Close releases resources held by the App
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error

	if a.Locker != nil && a.locked {
		if err := a.Locker.Release(); err != nil {
			if a.Logger != nil {
				a.Logger.Error("Failed to release lock during cleanup: %v", err)
			} else {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
			}
			errs = append(errs, err)
		}
		a.locked = false
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return gitsyncErrors.Join(errs...)
	}
	return nil
}

// CleanupOnSignal releases the lock and closes the log when the process
// has to stop without waiting for the run.
func (a *App) CleanupOnSignal() {
	_, _ = fmt.Fprintln(a.Stderr, "\n⚠️  gitsync did not stop in time, exiting")
	if err := a.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
	}
}
