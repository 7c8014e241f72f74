// Package redis publishes flushed metrics to Redis.
//
// Sink implements flush.Transport in one of two modes. In stream mode each
// window is appended to a stream with XADD, trimmed approximately to MaxLen
// entries, so consumers can read it with consumer groups and replay after
// downtime. In pubsub mode each window is published to a channel and is
// lost when nobody is subscribed.
//
//	sink, err := redis.NewSink(redis.Config{
//		Host:   "redis",
//		Mode:   redis.ModeStream,
//		Key:    "metrics:billing",
//		MaxLen: 50000,
//	})
//	if err != nil {
//		return err
//	}
//	scheduler := flush.NewScheduler(flushCfg, registry, statsd.NewEncoder(statsdCfg), sink)
package redis
