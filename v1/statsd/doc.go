// Package statsd encodes aggregated snapshots in the DogStatsD line protocol
// and sends them over UDP or a unix datagram socket.
//
// A Client is both the Encoder and the Transport of a flush.Scheduler:
//
//	client, err := statsd.NewClient(statsd.Config{
//		Host:      "127.0.0.1",
//		Port:      8125,
//		Namespace: "billing",
//		Env:       "prod",
//		Service:   "invoicer",
//	})
//	if err != nil {
//		return err
//	}
//	scheduler := flush.NewScheduler(flush.Config{}, registry, client, client)
//
// Lines are packed newline-separated into datagrams of at most
// MaxPacketSize bytes. Datagram writes are rate limited and bounded by the
// context deadline; failures are collected into one error per batch.
//
// Every line carries the default tags (env, version, service and the
// configured extras) followed by the metric's own tags. The Count, Gauge,
// Timing and Event methods send a single line immediately without
// aggregation.
package statsd
