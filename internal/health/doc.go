// Package health runs the environment checks around a sync.
//
// Preflight is fatal: the repository directory must be readable and
// writable. Everything else is advisory and only produces findings:
//
// - free disk space on the repository filesystem
// - available memory and 1-minute load average (Linux only)
// - credentials embedded in remote URLs
// - an executable pre-push hook, which runs once per pushed commit
//
// Warning findings are shown to the user, info findings go to the log.
package health
