package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes encoded metric lines to a Kafka topic, one message per
// line. It implements flush.Transport.
type Sink struct {
	cfg        Config
	log        logger.Logger
	writer     messageWriter
	propagator propagation.TextMapPropagator

	mu     sync.RWMutex
	closed bool
}

// NewSink validates cfg and creates the producer. No connection is made
// until the first Send.
//
// Example:
//
//	sink, err := kafka.NewSink(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		Topic:   "metrics",
//	})
//	if err != nil {
//		return err
//	}
//	defer sink.Close()
func NewSink(cfg Config) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	var tlsConfig *tls.Config
	var err error
	if cfg.TLS.Enabled {
		tlsConfig, err = createTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	var mechanism sasl.Mechanism
	if cfg.SASL.Enabled {
		mechanism, err = createSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
	}

	sink := newSink(cfg, createWriter(cfg, tlsConfig, mechanism))
	cfg.Logger.Info("kafka sink initialized", nil, map[string]interface{}{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	})
	return sink, nil
}

func newSink(cfg Config, w messageWriter) *Sink {
	return &Sink{
		cfg:        cfg,
		log:        cfg.Logger,
		writer:     w,
		propagator: otel.GetTextMapPropagator(),
	}
}

// Send writes one message per record. The span context of ctx, if any, is
// injected into the message headers.
func (s *Sink) Send(ctx context.Context, batch [][]byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	if len(batch) == 0 {
		return nil
	}

	headers := s.headers(ctx)
	var key []byte
	if s.cfg.Key != "" {
		key = []byte(s.cfg.Key)
	}

	msgs := make([]kafka.Message, len(batch))
	for i, record := range batch {
		msgs[i] = kafka.Message{Key: key, Value: record, Headers: headers}
	}

	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish metrics to kafka", err, map[string]interface{}{
			"topic":   s.cfg.Topic,
			"records": len(batch),
		})
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

func (s *Sink) headers(ctx context.Context) []kafka.Header {
	carrier := propagation.MapCarrier{}
	s.propagator.Inject(ctx, carrier)
	if len(carrier) == 0 {
		return nil
	}
	headers := make([]kafka.Header, 0, len(carrier))
	for _, k := range carrier.Keys() {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(carrier.Get(k))})
	}
	return headers
}

// Close flushes pending writes and closes the producer. It waits for an
// in-flight Send to return.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Info("closing kafka sink", nil, map[string]interface{}{"topic": s.cfg.Topic})
	return s.writer.Close()
}

func createErrorLogger(log logger.Logger) kafka.LoggerFunc {
	return func(msg string, args ...interface{}) {
		log.Error("kafka internal error", nil, map[string]interface{}{
			"error": fmt.Sprintf(msg, args...),
		})
	}
}

func createWriter(cfg Config, tlsConfig *tls.Config, mechanism sasl.Mechanism) *kafka.Writer {
	writerConfig := kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: int(cfg.RequiredAcks),
		ErrorLogger:  createErrorLogger(cfg.Logger),
		Dialer: &kafka.Dialer{
			TLS:           tlsConfig,
			SASLMechanism: mechanism,
		},
	}

	switch cfg.CompressionCodec {
	case "gzip":
		writerConfig.CompressionCodec = &compress.GzipCodec
	case "snappy":
		writerConfig.CompressionCodec = &compress.SnappyCodec
	case "lz4":
		writerConfig.CompressionCodec = &compress.Lz4Codec
	case "zstd":
		writerConfig.CompressionCodec = &compress.ZstdCodec
	}

	return kafka.NewWriter(writerConfig)
}

func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}
