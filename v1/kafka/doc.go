// Package kafka publishes flushed metrics to an Apache Kafka topic.
//
// Sink implements flush.Transport: every encoded line of a window becomes one
// Kafka message on the configured topic, carrying the flush span context in
// W3C trace headers. TLS and SASL (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512) are
// supported.
//
//	sink, err := kafka.NewSink(kafka.Config{
//		Brokers:          []string{"kafka-1:9092", "kafka-2:9092"},
//		Topic:            "metrics",
//		CompressionCodec: "zstd",
//		SASL: kafka.SASLConfig{
//			Enabled:   true,
//			Mechanism: "SCRAM-SHA-512",
//			Username:  "metrics",
//			Password:  os.Getenv("KAFKA_PASSWORD"),
//		},
//	})
//	if err != nil {
//		return err
//	}
//	scheduler := flush.NewScheduler(flushCfg, registry, statsd.NewEncoder(statsdCfg), sink)
//
// Send errors are returned to the scheduler, which logs and counts them; a
// failed window is not retried.
package kafka
