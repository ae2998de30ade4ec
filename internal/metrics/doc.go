// Package metrics exports per-remote sync results in the Prometheus text
// format, for collection by node_exporter's textfile collector.
package metrics
