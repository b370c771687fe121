// Package coldsnap contains the cold-period detection and reconciliation
// engine.
//
// It turns an hourly temperature forecast into continuous cold intervals per
// threshold band (Detector), diffs those intervals against previously stored
// alerts to classify each as create/update/ignore/delete (Reconciler), and
// decides which classified actions warrant a notification (ShouldNotify).
// The engine is pure: it performs no I/O and holds no mutable package state;
// thresholds are passed in at construction.
package coldsnap
