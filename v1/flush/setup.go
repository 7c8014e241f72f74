package flush

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const tracerName = "github.com/Aleph-Alpha/statsagg/v1/flush"

// Scheduler rotates a Source on a fixed interval and hands each encoded
// batch to a Transport.
//
// Rotation and encoding run on the timer goroutine. Transmission runs on its
// own goroutine, and only one may be in flight: if the previous batch is
// still being sent when the next window closes, the new batch is dropped and
// counted rather than queued.
type Scheduler struct {
	cfg       Config
	source    Source
	encoder   Encoder
	transport Transport
	log       logger.Logger
	clock     clock.Clock
	tracer    trace.Tracer
	emitGauge *aggregator.Gauge

	inflight *semaphore.Weighted
	state    atomic.Int32
	counters counters

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock driving the ticker. Tests pass clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithTracerProvider sets where flush cycle spans go. Defaults to the
// global OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Scheduler) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// gaugeSource is implemented by *aggregator.Registry.
type gaugeSource interface {
	Gauge(name string, tags ...aggregator.Tag) (*aggregator.Gauge, error)
}

// NewScheduler wires a scheduler. It does not start ticking until Start.
// When source can create gauges, the cycle duration is recorded in the
// gauge named by cfg.SelfMetricName unless self metrics are disabled.
//
// Example:
//
//	reg := aggregator.NewRegistry(aggregator.Config{})
//	client, _ := statsd.NewClient(statsd.Config{})
//	s := flush.NewScheduler(flush.Config{Interval: 10 * time.Second}, reg, client, client)
//	_ = s.Start()
//	defer s.Stop(context.Background())
func NewScheduler(cfg Config, source Source, encoder Encoder, transport Transport, opts ...Option) *Scheduler {
	cfg = cfg.withDefaults()

	s := &Scheduler{
		cfg:       cfg,
		source:    source,
		encoder:   encoder,
		transport: transport,
		log:       cfg.Logger,
		clock:     clock.New(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
		inflight:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}

	if gs, ok := source.(gaugeSource); ok && !cfg.DisableSelfMetrics {
		g, err := gs.Gauge(cfg.SelfMetricName)
		if err != nil {
			s.log.Warn("self metric disabled", err, map[string]interface{}{
				"metric": cfg.SelfMetricName,
			})
		}
		s.emitGauge = g
	}
	return s
}

// Start begins ticking. The ticker is armed before Start returns.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	ticker := s.clock.Ticker(s.cfg.Interval)
	notBefore := s.clock.Now().Add(s.cfg.Delay)
	go s.run(ctx, ticker, notBefore)

	s.log.Info("metrics flush scheduler started", nil, map[string]interface{}{
		"interval": s.cfg.Interval.String(),
		"delay":    s.cfg.Delay.String(),
	})
	return nil
}

func (s *Scheduler) run(ctx context.Context, ticker *clock.Ticker, notBefore time.Time) {
	defer close(s.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Before(notBefore) {
				continue
			}
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	// In-flight sends outlive Stop's cancellation; Stop waits for them.
	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "flush.cycle")

	batch, window := s.collect(ctx)

	if !s.inflight.TryAcquire(1) {
		s.counters.droppedBatches.Add(1)
		s.setState(StateIdle)
		span.SetStatus(codes.Error, ErrBatchDropped.Error())
		span.End()
		s.log.WarnWithContext(ctx, "previous metrics batch still in flight, dropping window", ErrBatchDropped, map[string]interface{}{
			"generation": window.Generation,
			"records":    len(batch),
		})
		return
	}

	go func() {
		defer span.End()
		defer s.inflight.Release(1)
		_ = s.transmit(ctx, batch, window, start)
	}()
}

// collect rotates the source and encodes the closed window.
func (s *Scheduler) collect(ctx context.Context) ([][]byte, aggregator.Window) {
	s.setState(StateRotating)
	snap := s.source.SnapshotAndReset()

	s.setState(StateDraining)
	batch := s.encoder.Encode(snap)
	s.counters.flushes.Add(1)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int64("metrics.window.generation", int64(snap.Window.Generation)),
		attribute.Int("metrics.samples", len(snap.Samples)),
		attribute.Int("metrics.records", len(batch)),
	)
	return batch, snap.Window
}

// transmit must be called with the in-flight slot held.
func (s *Scheduler) transmit(ctx context.Context, batch [][]byte, window aggregator.Window, start time.Time) error {
	s.setState(StateTransmitting)

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	err := s.transport.Send(sendCtx, batch)
	cancel()

	elapsed := time.Since(start)
	s.counters.lastCycle.Store(int64(elapsed))
	s.emitGauge.Set(float64(elapsed.Microseconds()))
	s.state.CompareAndSwap(int32(StateTransmitting), int32(StateIdle))

	if err != nil {
		s.counters.sendFailures.Add(1)
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		s.log.WarnWithContext(ctx, "failed to send metrics batch", err, map[string]interface{}{
			"generation": window.Generation,
			"records":    len(batch),
		})
		return err
	}

	s.counters.sentBatches.Add(1)
	s.counters.sentRecords.Add(uint64(len(batch)))
	s.log.DebugWithContext(ctx, "metrics batch sent", nil, map[string]interface{}{
		"generation":  window.Generation,
		"records":     len(batch),
		"duration_us": elapsed.Microseconds(),
	})
	return nil
}

// FlushNow rotates and transmits synchronously. If a batch is in flight it
// waits for it until ctx is done, in which case the new batch is dropped.
func (s *Scheduler) FlushNow(ctx context.Context) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "flush.cycle")
	defer span.End()

	batch, window := s.collect(ctx)

	if err := s.inflight.Acquire(ctx, 1); err != nil {
		s.counters.droppedBatches.Add(1)
		s.setState(StateIdle)
		span.SetStatus(codes.Error, ErrBatchDropped.Error())
		return fmt.Errorf("%w: %w", ErrBatchDropped, err)
	}
	defer s.inflight.Release(1)

	return s.transmit(ctx, batch, window, start)
}

// Stop halts the ticker, waits for an in-flight send and performs a final
// flush bounded by FinalFlushTimeout and ctx. The final flush error is
// logged and returned; the scheduler is stopped either way. Calling Stop
// again is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started, cancel, done := s.started, s.cancel, s.done
	s.mu.Unlock()

	if started {
		cancel()
		<-done
	}

	flushCtx, cancelFlush := context.WithTimeout(ctx, s.cfg.FinalFlushTimeout)
	defer cancelFlush()

	err := s.FlushNow(flushCtx)
	s.setState(StateStopped)
	if err != nil {
		s.log.WarnWithContext(ctx, "final metrics flush failed", err)
		return err
	}
	s.log.Info("metrics flush scheduler stopped", nil)
	return nil
}

// State returns the phase of the most recent cycle.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(st State) {
	if s.State() == StateStopped {
		return
	}
	s.state.Store(int32(st))
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() Stats {
	return s.counters.load()
}
