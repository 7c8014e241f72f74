// Package logger provides the structured logger used by every statsagg package.
//
// The package follows the "accept interfaces, return structs" pattern:
//   - Logger interface: the logging contract other packages depend on
//   - LoggerClient struct: zap-backed implementation
//   - NewLoggerClient constructor: returns *LoggerClient
//   - FXModule: provides both *LoggerClient and Logger for dependency injection
//
// Entries are JSON encoded with an ISO8601 "timestamp", the process id and the
// configured service name. With EnableTracing set, the *WithContext methods add
// trace_id and span_id from the active OpenTelemetry span, so log lines written
// during a flush cycle can be correlated with the cycle's span.
//
// # Direct Usage
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "billing",
//		EnableTracing: true,
//	})
//	log.Warn("metric batch dropped", nil, map[string]interface{}{
//		"records": 120,
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config { return logger.Config{Level: logger.Debug} }),
//	)
//
// Packages such as aggregator and flush take an optional Logger; when none is
// given they use NewNop.
package logger
