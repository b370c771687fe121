// Package alerts persists cold-period alerts and notification history in a
// sqlite database file.
//
// It defines the Repository interface consumed by the alerting service and a
// sqlite-backed implementation (modernc.org/sqlite, no cgo). Timestamps are
// stored as RFC 3339 strings, so lexical comparison in SQL matches temporal
// comparison as long as one zone offset is used per store, which holds for a
// single-location deployment.
package alerts
