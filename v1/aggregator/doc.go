// Package aggregator holds metric state between flushes.
//
// Application code records into lightweight handles; the engine keeps one
// live aggregator per metric identity and freezes all of them into a
// Snapshot each time the flush scheduler rotates the window.
//
// # Identities
//
// An Identity is a metric name plus a tag set. Tags are sorted by key then
// value and duplicates collapse, so the order in which call sites pass tags
// never produces distinct series:
//
//	a := aggregator.NewIdentity("http.requests", aggregator.T("route", "/a"), aggregator.T("code", "200"))
//	b := aggregator.NewIdentity("http.requests", aggregator.T("code", "200"), aggregator.T("route", "/a"))
//	a.Equal(b) // true
//
// # Kinds
//
//   - Counter: windowed sum of increments. Lock-free.
//   - Gauge: last value set. Persists across windows until set again; a gauge
//     that was never set reports no data rather than 0.
//   - Distribution: count, sum, min and max plus quantile estimates from an
//     HDR histogram of fixed size.
//   - TimingCount: total elapsed time and number of recordings.
//
// Recording never returns an error and never blocks on I/O. Invalid values
// (NaN, infinities, negative distribution observations) are discarded and
// counted in Stats.
//
// # Registry
//
//	reg := aggregator.NewRegistry(aggregator.Config{})
//	completed := reg.MustCounter("jobs.completed", aggregator.T("queue", "default"))
//	completed.Add(5)
//
//	snap := reg.SnapshotAndReset()
//	// snap.Samples holds jobs.completed with Count 5; the counter is back at 0.
//
// Handles are safe for concurrent use and should be cached by hot paths.
// Registering a name with a second kind is a programmer error: the plain
// accessors return a *KindMismatchError, the Must variants panic.
//
// # Declarative registration
//
// Groups of metrics can be declared on a struct and bound once at startup:
//
//	type JobMetrics struct {
//		Completed *aggregator.Counter      `metric:"jobs.completed"`
//		Latency   *aggregator.Distribution `metric:"jobs.latency"`
//	}
//
//	var m JobMetrics
//	aggregator.MustBind(reg, &m)
//
// # FX Module
//
//	app := fx.New(
//		logger.FXModule,
//		aggregator.FXModule,
//		fx.Provide(func() aggregator.Config { return aggregator.Config{} }),
//	)
package aggregator
