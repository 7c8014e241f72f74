// Package rabbit publishes flushed metrics to a RabbitMQ exchange.
//
// Sink implements flush.Transport. Each window becomes one message whose
// body is the newline-separated DogStatsD lines, so a consumer can replay it
// into an agent unchanged. Publishes use publisher confirms; the flush span
// context travels in the W3C trace headers and the record count in the
// x-records header.
//
//	sink, err := rabbit.NewSink(rabbit.Config{
//		Connection: rabbit.Connection{
//			Host:         "rabbitmq",
//			User:         "metrics",
//			Password:     os.Getenv("RABBITMQ_PASSWORD"),
//			IsSSLEnabled: true,
//			CACertPath:   "/etc/ssl/rabbit-ca.pem",
//		},
//		Exchange: rabbit.Exchange{Name: "metrics", Declare: true, RoutingKey: "statsd"},
//	})
//
// Broker errors are translated into the sentinels in errors.go and can be
// tested with errors.Is, IsConnectionError and IsPermanentError. A broken
// connection is reopened on the next Send.
package rabbit
