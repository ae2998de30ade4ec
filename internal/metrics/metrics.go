package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/syncer"
)

// Collector records run results as Prometheus gauges on its own registry,
// ready to be written as a node_exporter textfile.
type Collector struct {
	registry *prometheus.Registry

	gapCommits    *prometheus.GaugeVec
	pushedCommits *prometheus.GaugeVec
	outcome       *prometheus.GaugeVec
	lastRun       prometheus.Gauge
	runDuration   prometheus.Gauge
	dryRun        prometheus.Gauge
}

// NewCollector creates a collector with every gitsync metric registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		gapCommits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gitsync_remote_gap_commits",
			Help: "Commits missing on the remote at the start of the last run",
		}, []string{"remote"}),
		pushedCommits: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gitsync_remote_pushed_commits",
			Help: "Commits pushed to the remote in the last run",
		}, []string{"remote"}),
		outcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gitsync_remote_outcome",
			Help: "Outcome of the last run per remote, 1 for the outcome that happened",
		}, []string{"remote", "outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gitsync_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gitsync_run_duration_seconds",
			Help: "Duration of the last run",
		}),
		dryRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gitsync_dry_run",
			Help: "1 if the last run was a dry run",
		}),
	}

	c.registry.MustRegister(c.gapCommits, c.pushedCommits, c.outcome, c.lastRun, c.runDuration, c.dryRun)
	return c
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// OnEvent implements syncer.Observer.
func (c *Collector) OnEvent(syncer.Event) {}

// OnResult implements syncer.Observer.
func (c *Collector) OnResult(r syncer.Result) {
	name := r.Remote.Name
	c.gapCommits.WithLabelValues(name).Set(float64(r.Total()))
	c.pushedCommits.WithLabelValues(name).Set(float64(r.Pushed))
	for _, o := range syncer.Outcomes {
		value := 0.0
		if o == r.Outcome {
			value = 1
		}
		c.outcome.WithLabelValues(name, o.String()).Set(value)
	}
}

// Finish records the run-level metrics.
func (c *Collector) Finish(run *syncer.Run) {
	finished := run.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	c.lastRun.Set(float64(finished.Unix()))
	c.runDuration.Set(run.Duration().Seconds())
	if run.DryRun {
		c.dryRun.Set(1)
	} else {
		c.dryRun.Set(0)
	}
}

// WriteFile atomically writes every metric to path in the text exposition
// format.
func (c *Collector) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return gitsyncErrors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
