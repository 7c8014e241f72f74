package aggregator

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	entries map[string]Aggregator
}

// Registry maps identities to live aggregators. Lookups go to one of
// shardCount shards selected by the identity hash; a shard takes its write
// lock only when a new series is inserted.
//
// A Registry is constructed explicitly and passed to whoever records metrics.
type Registry struct {
	cfg    Config
	params sketchParams
	log    Logger
	clock  clock.Clock
	stats  Stats

	shards [shardCount]shard
	series atomic.Int64

	namesMu sync.Mutex
	kinds   map[string]Kind

	snapMu      sync.Mutex
	generation  atomic.Uint64
	windowStart time.Time

	overflow    overflow
	capWarnOnce sync.Once
}

// overflow holds what the registry hands out once MaxSeries is reached:
// one detached aggregator per kind, shared by every rejected identity, and
// the hashes of rejected identities so each is counted once.
type overflow struct {
	mu       sync.Mutex
	detached [KindTimingCount + 1]Aggregator
	seen     map[uint64]struct{}
}

// overflowName is the identity carried by detached aggregators.
const overflowName = "statsagg.series_overflow"

// Option customizes a Registry.
type Option func(*Registry)

// WithClock sets the clock used for window boundaries. Tests pass clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// NewRegistry creates an empty registry. Zero-valued config fields take
// their defaults.
func NewRegistry(cfg Config, opts ...Option) *Registry {
	cfg = cfg.withDefaults()

	r := &Registry{
		cfg: cfg,
		params: sketchParams{
			sigFigs:    cfg.HistogramSignificantFigures,
			maxValue:   cfg.HistogramMaxValue,
			resolution: cfg.HistogramResolution,
			quantiles:  slices.Clone(cfg.Quantiles),
		},
		log:   cfg.Logger,
		clock: clock.New(),
		kinds: make(map[string]Kind),
	}
	r.overflow.seen = make(map[uint64]struct{})
	for i := range r.shards {
		r.shards[i].entries = make(map[string]Aggregator)
	}
	for _, opt := range opts {
		opt(r)
	}
	r.windowStart = r.clock.Now()
	return r
}

// GetOrCreate returns the aggregator for id, creating it with kind on first
// use. Concurrent callers for the same identity converge on one instance.
// Registering a name that already exists with another kind returns a
// *KindMismatchError.
func (r *Registry) GetOrCreate(id Identity, kind Kind) (Aggregator, error) {
	return r.getOrCreate(id, kind, Micros)
}

func (r *Registry) getOrCreate(id Identity, kind Kind, unit Unit) (Aggregator, error) {
	if id.IsZero() {
		return nil, ErrInvalidName
	}
	if !kind.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}

	sh := &r.shards[id.hash%shardCount]
	sh.mu.RLock()
	agg, ok := sh.entries[id.key]
	sh.mu.RUnlock()
	if ok {
		return r.checkKind(agg, kind)
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if agg, ok := sh.entries[id.key]; ok {
		return r.checkKind(agg, kind)
	}

	if !r.reserveSeries() {
		return r.reject(id, kind, unit)
	}
	if err := r.claimName(id.name, kind); err != nil {
		r.series.Add(-1)
		return nil, err
	}

	agg = r.newAggregator(id, kind, unit, r.generation.Load())
	sh.entries[id.key] = agg
	return agg, nil
}

// reject handles an identity refused by the series cap. Kind conflicts with
// names that already hold series are still reported.
func (r *Registry) reject(id Identity, kind Kind, unit Unit) (Aggregator, error) {
	r.namesMu.Lock()
	existing, ok := r.kinds[id.name]
	r.namesMu.Unlock()
	if ok && existing != kind {
		return nil, r.conflict(id.name, existing, kind)
	}

	o := &r.overflow
	o.mu.Lock()
	defer o.mu.Unlock()

	// Tracking stops growing at MaxSeries hashes; past that every call counts.
	if _, seen := o.seen[id.hash]; !seen {
		if len(o.seen) < r.cfg.MaxSeries {
			o.seen[id.hash] = struct{}{}
		}
		r.stats.rejectedSeries.Add(1)
	}
	r.capWarnOnce.Do(func() {
		r.log.Warn("metric series limit reached, new series are discarded", nil, map[string]interface{}{
			"max_series": r.cfg.MaxSeries,
			"metric":     id.String(),
		})
	})

	if o.detached[kind] == nil {
		o.detached[kind] = r.newAggregator(NewIdentity(overflowName), kind, unit, 0)
	}
	return o.detached[kind], nil
}

func (r *Registry) reserveSeries() bool {
	limit := int64(r.cfg.MaxSeries)
	if limit <= 0 {
		r.series.Add(1)
		return true
	}
	for {
		n := r.series.Load()
		if n >= limit {
			return false
		}
		if r.series.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (r *Registry) claimName(name string, kind Kind) error {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()

	if existing, ok := r.kinds[name]; ok && existing != kind {
		return r.conflict(name, existing, kind)
	}
	r.kinds[name] = kind
	return nil
}

func (r *Registry) checkKind(agg Aggregator, kind Kind) (Aggregator, error) {
	if agg.Kind() != kind {
		return nil, r.conflict(agg.Identity().Name(), agg.Kind(), kind)
	}
	return agg, nil
}

func (r *Registry) conflict(name string, registered, requested Kind) error {
	r.stats.kindConflicts.Add(1)
	err := &KindMismatchError{Name: name, Registered: registered, Requested: requested}
	r.log.Error("metric registration conflict", err, map[string]interface{}{
		"metric": name,
	})
	return err
}

func (r *Registry) newAggregator(id Identity, kind Kind, unit Unit, born uint64) Aggregator {
	switch kind {
	case KindCounter:
		return newCounter(id, born)
	case KindGauge:
		return newGauge(id, born, &r.stats)
	case KindDistribution:
		return newDistribution(id, born, r.params, &r.stats)
	case KindTimingCount:
		return newTimingCount(id, born, unit)
	default:
		panic("aggregator: unknown kind " + kind.String())
	}
}

// Counter returns the counter for name and tags.
func (r *Registry) Counter(name string, tags ...Tag) (*Counter, error) {
	agg, err := r.GetOrCreate(NewIdentity(name, tags...), KindCounter)
	if err != nil {
		return nil, err
	}
	return agg.(*Counter), nil
}

// Gauge returns the gauge for name and tags.
func (r *Registry) Gauge(name string, tags ...Tag) (*Gauge, error) {
	agg, err := r.GetOrCreate(NewIdentity(name, tags...), KindGauge)
	if err != nil {
		return nil, err
	}
	return agg.(*Gauge), nil
}

// Distribution returns the distribution for name and tags.
func (r *Registry) Distribution(name string, tags ...Tag) (*Distribution, error) {
	agg, err := r.GetOrCreate(NewIdentity(name, tags...), KindDistribution)
	if err != nil {
		return nil, err
	}
	return agg.(*Distribution), nil
}

// TimingCount returns the timing count for name and tags. The unit only
// applies when the series is created.
func (r *Registry) TimingCount(name string, unit Unit, tags ...Tag) (*TimingCount, error) {
	agg, err := r.getOrCreate(NewIdentity(name, tags...), KindTimingCount, unit)
	if err != nil {
		return nil, err
	}
	return agg.(*TimingCount), nil
}

// MustCounter is like Counter but panics on a registration conflict.
func (r *Registry) MustCounter(name string, tags ...Tag) *Counter {
	c, err := r.Counter(name, tags...)
	if err != nil {
		panic(err)
	}
	return c
}

// MustGauge is like Gauge but panics on a registration conflict.
func (r *Registry) MustGauge(name string, tags ...Tag) *Gauge {
	g, err := r.Gauge(name, tags...)
	if err != nil {
		panic(err)
	}
	return g
}

// MustDistribution is like Distribution but panics on a registration conflict.
func (r *Registry) MustDistribution(name string, tags ...Tag) *Distribution {
	d, err := r.Distribution(name, tags...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustTimingCount is like TimingCount but panics on a registration conflict.
func (r *Registry) MustTimingCount(name string, unit Unit, tags ...Tag) *TimingCount {
	t, err := r.TimingCount(name, unit, tags...)
	if err != nil {
		panic(err)
	}
	return t
}

// SnapshotAndReset closes the current window: every registered aggregator
// is frozen and reset in turn, and the window generation advances. Recording
// continues concurrently; a value recorded before an aggregator's swap lands
// in this snapshot, anything after lands in the next one.
func (r *Registry) SnapshotAndReset() Snapshot {
	r.snapMu.Lock()
	defer r.snapMu.Unlock()

	now := r.clock.Now()
	window := Window{
		Generation: r.generation.Load(),
		Start:      r.windowStart,
		End:        now,
	}
	r.generation.Add(1)
	r.windowStart = now

	aggs := r.aggregators()
	samples := make([]Sample, 0, len(aggs))
	for _, agg := range aggs {
		samples = append(samples, agg.snapshot(r.cfg.ResetGauges))
	}
	slices.SortFunc(samples, func(a, b Sample) int {
		return strings.Compare(a.Identity.key, b.Identity.key)
	})

	return Snapshot{Window: window, Samples: samples}
}

// aggregators copies every shard's values under its read lock, one shard at a time.
func (r *Registry) aggregators() []Aggregator {
	out := make([]Aggregator, 0, r.Len())
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		for _, agg := range sh.entries {
			out = append(out, agg)
		}
		sh.mu.RUnlock()
	}
	return out
}

// Len returns the number of registered series.
func (r *Registry) Len() int {
	return int(r.series.Load())
}

// Generation returns the number of completed rotations.
func (r *Registry) Generation() uint64 {
	return r.generation.Load()
}

// Stats returns the registry's drop and rejection counters.
func (r *Registry) Stats() StatsSnapshot {
	return r.stats.load(r.Len())
}
