package syncer

import (
	"time"

	"github.com/bashhack/gitsync/internal/git"
)

// Outcome is the terminal state of one remote in a run.
type Outcome int

const (
	// UpToDate means the remote already had every local commit.
	UpToDate Outcome = iota
	// Synchronized means every commit of the gap was pushed.
	Synchronized
	// PartiallySynchronized means a push failed and the remaining commits
	// were not attempted.
	PartiallySynchronized
	// Skipped means the remote was never pushed to: its name was invalid,
	// it could not be reached or fetched, or the run was interrupted first.
	Skipped
)

// Outcomes lists every outcome in declaration order.
var Outcomes = []Outcome{UpToDate, Synchronized, PartiallySynchronized, Skipped}

func (o Outcome) String() string {
	switch o {
	case UpToDate:
		return "up-to-date"
	case Synchronized:
		return "synchronized"
	case PartiallySynchronized:
		return "partially-synchronized"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Skip and stop reasons recorded in Result.Reason.
const (
	ReasonInvalidName = "invalid remote name"
	ReasonNoURL       = "remote has no URL"
	ReasonUnreachable = "remote unreachable"
	ReasonFetchFailed = "fetch failed"
	ReasonNoRemoteRef = "cannot resolve remote branch"
	ReasonGapFailed   = "cannot compute commit gap"
	ReasonPushFailed  = "push failed"
	ReasonInterrupted = "interrupted"
)

// Phase identifies what the engine is doing for a remote.
type Phase string

const (
	// PhaseFetch is emitted before a remote is probed and fetched.
	PhaseFetch Phase = "fetch"
	// PhasePlan is emitted once the gap is known. Total is the gap size.
	PhasePlan Phase = "plan"
	// PhasePush is emitted once per push attempt, including retries.
	PhasePush Phase = "push"
)

// Event reports progress for one remote. Index and Total are only set for
// push events, where Index is 1-based. Dry runs emit the same events as
// real runs.
type Event struct {
	Remote  string
	Phase   Phase
	Index   int
	Total   int
	Attempt int
	Commit  git.Commit
}

// Result is the single record produced for each remote of a run.
type Result struct {
	// Remote is the remote as discovered. Its URL may carry credentials;
	// print Remote.Redacted() instead.
	Remote git.Remote

	Outcome Outcome

	// Gap holds the commits that were missing on the remote, oldest first.
	// It is empty for skipped remotes.
	Gap []git.Commit

	// Pushed counts the commits pushed successfully, or the commits that
	// would have been pushed in a dry run.
	Pushed int

	// FailedAt is the 1-based gap index of the commit that could not be
	// pushed. Zero unless Outcome is PartiallySynchronized.
	FailedAt     int
	FailedCommit git.Commit

	// Reason is a short human readable explanation for Skipped and
	// PartiallySynchronized outcomes.
	Reason string
	Err    error

	Duration time.Duration
	DryRun   bool
}

// Total returns the gap size.
func (r Result) Total() int {
	return len(r.Gap)
}

// Run is the record of a complete synchronization run.
type Run struct {
	Branch   string
	Tip      string
	DryRun   bool
	Results  []Result
	Started  time.Time
	Finished time.Time
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Count returns the number of remotes that ended with outcome o.
func (r *Run) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Pushed returns the number of commits pushed across all remotes.
func (r *Run) Pushed() int {
	n := 0
	for _, res := range r.Results {
		n += res.Pushed
	}
	return n
}

// Observer receives engine progress. Calls happen on the goroutine running
// Engine.Run, in order.
type Observer interface {
	OnEvent(Event)
	OnResult(Result)
}

// Observers fans every call out to each observer in order.
type Observers []Observer

// OnEvent implements Observer.
func (o Observers) OnEvent(e Event) {
	for _, obs := range o {
		obs.OnEvent(e)
	}
}

// OnResult implements Observer.
func (o Observers) OnResult(r Result) {
	for _, obs := range o {
		obs.OnResult(r)
	}
}
