// Package gitsync pushes a branch to every remote, one commit at a time
//
// gitsync looks at the current branch of a repository, works out which
// commits each configured remote is missing, and pushes them individually in
// ancestor-first order with a short delay between pushes. Remotes whose
// hooks, mirrors or CI react to every update therefore see each commit
// instead of a single jump to the tip.
//
// # Quick Start
//
//	# Navigate to your Git repository
//	cd /path/to/your/repo
//
//	# See what would be pushed where
//	gitsync --dry-run
//
//	# Synchronize
//	gitsync
//
// # Key Features
//
//   - Per-remote commit gaps: each remote gets exactly the commits it lacks
//   - Failure isolation: an unreachable or rejecting remote never blocks the others
//   - Retries with exponential backoff and per-operation network timeouts
//   - Dry runs that report the full plan without touching any remote
//   - Two backends: the git command line (runs hooks) or go-git (no git binary needed)
//   - Summary reports with a conventional-commit breakdown and Prometheus textfile metrics
//   - Advisory health checks for disk space, memory, load, hooks and credentials in URLs
//
// # Layout
//
// The command lives in cmd/gitsync. The sync engine is internal/syncer, the
// git backends are internal/git, and internal/report and internal/metrics
// turn a finished run into console output, report files and metrics.
package gitsync
