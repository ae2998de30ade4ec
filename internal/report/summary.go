package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	gitsyncErrors "github.com/bashhack/gitsync/internal/errors"
	"github.com/bashhack/gitsync/internal/logger"
	"github.com/bashhack/gitsync/internal/syncer"
)

// FileTimeFormat is the timestamp layout of report file names.
const FileTimeFormat = "20060102-150405"

const rule = "---------------------------------------------"

// Details are the facts about a run the engine does not know.
type Details struct {
	RepoPath  string
	Backend   string
	Commits   int
	Remotes   int
	Generated time.Time
}

// Summary is the end-of-run document.
type Summary struct {
	run     *syncer.Run
	details Details
}

// NewSummary creates the summary of a finished run.
func NewSummary(run *syncer.Run, details Details) *Summary {
	if details.Remotes == 0 {
		details.Remotes = len(run.Results)
	}
	return &Summary{run: run, details: details}
}

// FileName returns the report file name for the run.
func (s *Summary) FileName() string {
	return fmt.Sprintf("gitsync-report-%s.txt", s.run.Started.Format(FileTimeFormat))
}

// Mode returns "dry-run" or "normal".
func (s *Summary) Mode() string {
	if s.run.DryRun {
		return "dry-run"
	}
	return "normal"
}

// Render writes the report text.
func (s *Summary) Render(w io.Writer) error {
	bw := bufio.NewWriter(w)
	run := s.run
	d := s.details

	line := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(bw, format+"\n", args...)
	}
	field := func(label, value string) {
		line("%s %s", runewidth.FillRight(label+":", 20), value)
	}

	line("gitsync report")
	line("==============")
	if !d.Generated.IsZero() {
		field("Generated", d.Generated.Format(logger.TimeFormat))
	}
	field("Repository", d.RepoPath)
	field("Branch", run.Branch)
	field("Mode", s.Mode())
	if d.Backend != "" {
		field("Backend", d.Backend)
	}
	field("Started", run.Started.Format(logger.TimeFormat))
	field("Finished", run.Finished.Format(logger.TimeFormat))
	field("Duration", run.Duration().Round(time.Millisecond).String())
	field("Commits on branch", humanize.Comma(int64(d.Commits)))
	field("Remotes configured", humanize.Comma(int64(d.Remotes)))
	line("")

	line("Remotes")
	line("-------")
	if len(run.Results) == 0 {
		line("(none)")
	}
	nameWidth := 0
	for _, r := range run.Results {
		nameWidth = max(nameWidth, runewidth.StringWidth(r.Remote.Name))
	}
	for _, r := range run.Results {
		line("%s  %s  %s",
			runewidth.FillRight(r.Remote.Name, nameWidth),
			runewidth.FillRight(r.Outcome.String(), len("partially-synchronized")),
			Describe(r))
	}
	line("")

	title := "Commit types (pushed)"
	if run.DryRun {
		title = "Commit types (planned)"
	}
	line("%s", title)
	line("%s", strings.Repeat("-", len(title)))
	breakdown := Breakdown(PushedCommits(run))
	if len(breakdown) == 0 {
		line("(none)")
	}
	for _, tc := range breakdown {
		line("%s %s", runewidth.FillRight(tc.Type, 10), humanize.Comma(int64(tc.Count)))
	}

	return bw.Flush()
}

// WriteFile writes the report into dir, creating it if needed, and returns
// the file path.
func (s *Summary) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", gitsyncErrors.Wrapf(err, "failed to create report directory %s", dir)
	}

	path := filepath.Join(dir, s.FileName())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", gitsyncErrors.Wrap(err, "failed to create report file")
	}

	if err := s.Render(f); err != nil {
		_ = f.Close()
		return "", gitsyncErrors.Wrap(err, "failed to write report file")
	}
	if err := f.Close(); err != nil {
		return "", gitsyncErrors.Wrap(err, "failed to close report file")
	}
	return path, nil
}

// Print shows the end-of-run summary on the console.
func (s *Summary) Print(log logger.Logger) {
	run := s.run

	log.StatusMessage("")
	log.StatusMessage(rule)
	log.StatusMessage("📊 gitsync Summary")
	log.StatusMessage(rule)

	branch := run.Branch
	if run.DryRun {
		branch += " (dry-run, nothing pushed)"
	}
	log.StatusMessage("🌿 Branch: %s", branch)
	log.StatusMessage("🔗 Remotes: %d synchronized, %d up to date, %d partial, %d skipped",
		run.Count(syncer.Synchronized), run.Count(syncer.UpToDate),
		run.Count(syncer.PartiallySynchronized), run.Count(syncer.Skipped))

	verb := "pushed"
	if run.DryRun {
		verb = "to push"
	}
	log.StatusMessage("✅ Commits %s: %s", verb, humanize.Comma(int64(run.Pushed())))

	for _, r := range run.Results {
		if r.Outcome == syncer.PartiallySynchronized || r.Outcome == syncer.Skipped {
			log.StatusMessage("   %s: %s", r.Remote.Name, Describe(r))
		}
	}

	duration := run.Duration()
	log.StatusMessage("⏱️  Duration: %dh %dm %ds", int(duration.Hours()), int(duration.Minutes())%60, int(duration.Seconds())%60)
	log.StatusMessage(rule)
}
