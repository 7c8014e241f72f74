package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newTestSink(t *testing.T, cfg Config) (*Sink, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	cfg.Host = srv.Host()
	cfg.Port = port
	cfg.Logger = logger.NewNop()
	sink, err := NewSink(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	reader := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = reader.Close() })
	return sink, reader
}

func TestSendStream(t *testing.T) {
	sink, reader := newTestSink(t, Config{Key: "metrics:billing"})
	sink.propagator = propagation.TraceContext{}

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "flush")
	defer span.End()

	require.NoError(t, sink.Send(ctx, [][]byte{
		[]byte("requests:3|c"),
		[]byte("queue.depth:7|g"),
	}))
	require.NoError(t, sink.Send(context.Background(), [][]byte{[]byte("requests:1|c")}))

	entries, err := reader.XRange(context.Background(), "metrics:billing", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "requests:3|c\nqueue.depth:7|g", entries[0].Values["body"])
	assert.Equal(t, "2", entries[0].Values["records"])
	assert.Contains(t, entries[0].Values["traceparent"], span.SpanContext().TraceID().String())
	assert.Equal(t, "requests:1|c", entries[1].Values["body"])
	assert.NotContains(t, entries[1].Values, "traceparent")
}

func TestSendPubSub(t *testing.T) {
	sink, reader := newTestSink(t, Config{Mode: ModePubSub, Key: "metrics"})

	sub := reader.Subscribe(context.Background(), "metrics")
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), [][]byte{[]byte("a:1|c"), []byte("b:2|c")}))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "metrics", msg.Channel)
		assert.Equal(t, "a:1|c\nb:2|c", msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSendEmptyBatch(t *testing.T) {
	sink, reader := newTestSink(t, Config{})

	require.NoError(t, sink.Send(context.Background(), nil))
	n, err := reader.Exists(context.Background(), DefaultKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSendServerError(t *testing.T) {
	sink, reader := newTestSink(t, Config{Key: "taken"})
	require.NoError(t, reader.Set(context.Background(), "taken", "string value", 0).Err())

	err := sink.Send(context.Background(), [][]byte{[]byte("a:1|c")})
	require.Error(t, err)
	assert.True(t, IsPublishError(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	sink, _ := newTestSink(t, Config{})

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err := sink.Send(context.Background(), [][]byte{[]byte("a:1|c")})
	assert.ErrorIs(t, err, ErrSinkClosed)
	assert.True(t, IsClosedError(err))
}

func TestConfig(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ModeStream, cfg.Mode)
	assert.Equal(t, DefaultKey, cfg.Key)
	assert.Equal(t, int64(DefaultMaxLen), cfg.MaxLen)

	assert.NoError(t, Config{}.Validate())
	assert.ErrorIs(t, Config{Mode: "list"}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{Port: 70000}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{DB: -1}.Validate(), ErrInvalidConfig)
}
