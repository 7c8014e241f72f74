package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobMetrics struct {
	Completed *Counter      `metric:"jobs.completed" tags:"queue:default"`
	Depth     *Gauge        `metric:"queue.depth" tags:"queue:default, region:eu"`
	Latency   *Distribution `metric:"jobs.latency"`
	Runtime   *TimingCount  `metric:"jobs.runtime" unit:"ms"`
	Untouched *Counter
}

func TestBindPopulatesHandles(t *testing.T) {
	reg := NewRegistry(Config{})
	var m jobMetrics
	require.NoError(t, Bind(reg, &m))

	require.NotNil(t, m.Completed)
	require.NotNil(t, m.Depth)
	require.NotNil(t, m.Latency)
	require.NotNil(t, m.Runtime)
	assert.Nil(t, m.Untouched)
	assert.Equal(t, Millis, m.Runtime.Unit())

	m.Completed.Add(2)
	m.Runtime.Record(3 * time.Millisecond)

	snap := reg.SnapshotAndReset()
	s, ok := snap.Find("jobs.completed", T("queue", "default"))
	require.True(t, ok)
	assert.EqualValues(t, 2, s.Count)

	_, ok = snap.Find("queue.depth", T("region", "eu"), T("queue", "default"))
	assert.True(t, ok)

	// Binding again returns the same handles.
	var again jobMetrics
	MustBind(reg, &again)
	assert.Same(t, m.Completed, again.Completed)
}

func TestBindRejectsConflicts(t *testing.T) {
	type conflicting struct {
		A *Counter `metric:"jobs"`
		B *Gauge   `metric:"jobs"`
	}
	reg := NewRegistry(Config{})
	var c conflicting
	err := Bind(reg, &c)
	assert.True(t, IsKindMismatch(err))
	assert.Nil(t, c.A, "nothing is written when validation fails")
	assert.Equal(t, 0, reg.Len())

	assert.Panics(t, func() { MustBind(reg, &c) })
}

func TestBindConflictWithRegistry(t *testing.T) {
	reg := NewRegistry(Config{})
	reg.MustGauge("jobs.completed", T("queue", "default"))

	var m jobMetrics
	err := Bind(reg, &m)
	assert.True(t, IsKindMismatch(err))
}

func TestBindInvalidTargets(t *testing.T) {
	reg := NewRegistry(Config{})

	type badType struct {
		X *int `metric:"x"`
	}
	type badUnit struct {
		X *TimingCount `metric:"x" unit:"fortnights"`
	}

	assert.ErrorIs(t, Bind(reg, jobMetrics{}), ErrInvalidBinding)
	assert.ErrorIs(t, Bind(reg, (*jobMetrics)(nil)), ErrInvalidBinding)
	assert.ErrorIs(t, Bind(reg, &badType{}), ErrInvalidBinding)
	assert.ErrorIs(t, Bind(reg, &badUnit{}), ErrInvalidBinding)
}

func TestSchemaRegister(t *testing.T) {
	schema := MustSchema(
		Definition{Name: "a", Kind: KindCounter},
		Definition{Name: "b", Kind: KindTimingCount, Unit: Seconds},
	)
	reg := NewRegistry(Config{})
	handles, err := schema.Register(reg)
	require.NoError(t, err)
	require.Len(t, handles, 2)
	assert.Equal(t, KindCounter, handles[0].Kind())
	assert.Equal(t, Seconds, handles[1].(*TimingCount).Unit())

	_, err = NewSchema(Definition{Name: "a", Kind: KindCounter}, Definition{Name: "a", Kind: KindGauge})
	assert.True(t, IsKindMismatch(err))

	_, err = NewSchema(Definition{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidName)
}
