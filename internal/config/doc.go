// Package config provides configuration handling for gitsync.
//
// A Config is built once per run and handed to every component. Nothing
// downstream reads flags or the environment directly.
//
// # Configuration Sources
//
// Values are layered with the following precedence:
//
// 1. Command-line flags that were explicitly set (highest priority)
// 2. GITSYNC_-prefixed environment variables
// 3. The configuration file
// 4. Default values (lowest priority)
//
// # Configuration File
//
// The file holds KEY=value lines. Blank lines and lines starting with # are
// ignored, an "export " prefix is tolerated and one pair of matching quotes
// around a value is removed. The file is parsed as data and is never
// executed. Unknown keys and invalid values are reported as warnings.
//
//	PUSH_DELAY        Seconds between pushes (default: 0.5)
//	LOG_FILE          Log file path
//	VERBOSE           Stream progress to the console (default: false)
//	DRY_RUN           Plan without pushing (default: false)
//	BACKEND           cli or native (default: cli)
//	MAX_RETRIES       Retries per commit push (default: 0)
//	RETRY_DELAY       Initial retry backoff (default: 1s)
//	NETWORK_TIMEOUT   Timeout per network operation (default: 60s)
//	REPORT            Write a summary report (default: true)
//	REPORT_DIR        Report directory
//	METRICS_FILE      Prometheus textfile output
//	MIN_FREE_DISK_MB  Disk space warning threshold (default: 100)
//
// The default file is $XDG_CONFIG_HOME/gitsync/config. A different file can
// be named with --config or GITSYNC_CONFIG, in which case it must exist.
//
// # Environment Variables
//
// Every file key is also read from the environment with the GITSYNC_ prefix,
// for example GITSYNC_PUSH_DELAY. GITSYNC_REPO_PATH selects the repository.
package config
