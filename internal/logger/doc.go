// Package logger provides logging facilities for gitsync.
//
// Every run appends to a log file whose lines have the form
//
//	[2006-01-02 15:04:05] message
//	[2006-01-02 15:04:05] WARNING: message
//	[2006-01-02 15:04:05] ERROR: message
//
// The Logger interface distinguishes internal messages (Info, Warning, Error)
// from user-facing ones (InfoToUser, WarningToUser, Success, StatusMessage).
// Internal messages reach the console only in verbose mode; errors always go
// to stderr.
//
// Console output is styled with lipgloss. Styles are bound to the actual
// writers, so redirected output and test buffers receive plain text.
//
// # Usage
//
//	log := logger.New("/path/to/gitsync.log", verbose)
//	defer log.Close()
//
//	log.Info("fetching %s", remote)
//	log.Success("%s synchronized", remote)
package logger
