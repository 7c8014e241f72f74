// Package flush drives the periodic export of aggregated metrics.
//
// A Scheduler owns a ticker. On every tick it moves through
//
//	Idle -> Rotating -> Draining -> Transmitting -> Idle
//
// Rotating calls Source.SnapshotAndReset, Draining runs the Encoder, and
// Transmitting hands the batch to the Transport on a separate goroutine with
// a SendTimeout deadline. At most one batch is in flight: a window that
// closes while the previous send is still running is dropped and counted in
// Stats.DroppedBatches. Send failures are logged and counted but never
// retried, and never reach code that records metrics.
//
// Stop halts the ticker, waits for the in-flight send and flushes the
// current partial window once more, bounded by FinalFlushTimeout.
//
// Each cycle is traced as a "flush.cycle" span, and its duration is written
// to a self-monitoring gauge in the source registry.
//
// The package-level interfaces have gomock doubles in mock_interface.go.
package flush
