package config

import "errors"

var (
	// ErrUnknownSink is returned for a Sink.Type other than statsd, kafka,
	// rabbit or redis.
	ErrUnknownSink = errors.New("unknown sink type")

	// ErrReadConfig is returned when the config file exists but cannot be
	// read or parsed.
	ErrReadConfig = errors.New("cannot read config file")
)
