// Package config loads statsagg configuration with viper and wires the
// pipeline into an fx application.
//
// Values come from package defaults, an optional YAML file and the
// environment. Every field with an envconfig tag is bound to that variable:
//
//	STATSD_HOST=agent STATSD_PORT=8125 DD_ENV=prod DD_SERVICE=billing \
//	METRICS_FLUSH_INTERVAL=10s METRICS_MAX_SERIES=50000 ./billing
//
// A YAML file uses the mapstructure keys:
//
//	statsd:
//	  namespace: billing
//	  tags: ["team:payments"]
//	flush:
//	  interval: 10s
//	sink:
//	  type: kafka
//	  kafka:
//	    brokers: ["kafka:9092"]
//	    topic: metrics
//
// Module(cfg) returns the fx options for a complete service:
//
//	cfg, err := config.Load(os.Getenv("METRICS_CONFIG"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fx.New(config.Module(cfg), fx.Invoke(registerHandlers)).Run()
package config
