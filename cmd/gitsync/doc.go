// Package main implements gitsync, a commit-by-commit remote synchronizer
//
// gitsync pushes the current branch of a repository to every configured
// remote. Instead of one push with the whole backlog, it computes the commits
// each remote is missing and pushes them one at a time, oldest first, with a
// short pause in between. Remotes that run hooks or CI per update see every
// intermediate commit.
//
// A remote that cannot be reached, fails to fetch, or rejects a push is
// reported and left behind; the remaining remotes are still synchronized and
// the exit status stays zero.
//
// # Basic Usage
//
//	gitsync                  # Synchronize the current branch to all remotes
//	gitsync --dry-run        # Show what would be pushed to each remote
//	gitsync -v --delay 2     # Verbose, two seconds between pushes
//	gitsync --repo ~/src/app # Synchronize another repository
//
// # Configuration Options
//
// Settings are read from $XDG_CONFIG_HOME/gitsync/config (KEY=value lines),
// then GITSYNC_-prefixed environment variables, then flags:
//
//	-n, --dry-run      Plan only (env: GITSYNC_DRY_RUN)
//	-v, --verbose      Stream progress (env: GITSYNC_VERBOSE)
//	-c, --config       Configuration file (env: GITSYNC_CONFIG)
//	-l, --log          Log file (env: GITSYNC_LOG_FILE)
//	--repo             Repository path (env: GITSYNC_REPO_PATH)
//	--backend          cli or native (env: GITSYNC_BACKEND)
//	--delay            Seconds between pushes (env: GITSYNC_PUSH_DELAY)
//	--max-retries      Retries per commit push (env: GITSYNC_MAX_RETRIES)
//	--retry-delay      Initial retry backoff (env: GITSYNC_RETRY_DELAY)
//	--timeout          Per network operation (env: GITSYNC_NETWORK_TIMEOUT)
//	--report-dir       Summary report directory (env: GITSYNC_REPORT_DIR)
//	--no-report        Skip the summary report (env: GITSYNC_REPORT=false)
//	--metrics-file     Prometheus textfile output (env: GITSYNC_METRICS_FILE)
//	--min-free-disk    Disk space warning threshold in MB (env: GITSYNC_MIN_FREE_DISK_MB)
//	--version          Print version information and exit
//
// # Exit Status
//
//	0   the run completed, even if some remotes were skipped or left partial
//	1   a fatal pre-flight or configuration error
//	2   invalid flags or arguments
//	130 interrupted by a signal
package main
