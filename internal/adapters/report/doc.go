// Package report contains the reporting sinks a processed window fans out
// to: a console summary table, a durable CSV log, a SQLite store, a rendered
// echogram, and a remote uplink batching rows out of the store.
package report
