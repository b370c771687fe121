// Package alerting orchestrates one plantalert run: fetch the forecast,
// detect cold intervals, reconcile them against the stored alerts, persist
// every resulting action and deliver the notifications that matter.
//
// The Service performs no I/O of its own beyond its injected collaborators
// (forecast source, alert store, senders), which are invoked synchronously.
// Runs are sequential; concurrent runs against the same store must be
// excluded by the caller.
package alerting
