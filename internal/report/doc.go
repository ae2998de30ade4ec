// Package report renders what a sync did.
//
// Console is a syncer.Observer that turns engine events into log lines and
// user messages as the run progresses. Summary is built from the finished
// run: Print shows it on the console and WriteFile stores it as
//
//	<dir>/gitsync-report-YYYYMMDD-HHMMSS.txt
//
// The report lists the branch, mode, repository statistics and one line per
// remote, followed by a conventional-commit type breakdown of the commits
// that were pushed (or would be, in a dry run).
package report
