package redis

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Sink writes each flushed window to Redis, either as a stream entry or as
// a pub/sub message. It implements flush.Transport.
//
// A stream entry has the fields body (newline-separated lines), records
// (line count) and the W3C trace context fields of the flush span.
type Sink struct {
	cfg        Config
	log        logger.Logger
	client     redis.UniversalClient
	propagator propagation.TextMapPropagator

	mu     sync.RWMutex
	closed bool
}

// NewSink validates cfg and creates the client. Connections are opened
// lazily by the first Send.
//
// Example:
//
//	sink, err := redis.NewSink(redis.Config{Host: "redis", Key: "metrics:billing"})
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
	if cfg.TLS.Enabled {
		var err error
		tlsConfig, err = createTLSConfig(cfg.TLS, cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:            cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Username:        cfg.Username,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		TLSConfig:       tlsConfig,
	})

	cfg.Logger.Info("redis sink initialized", nil, map[string]interface{}{
		"addr": client.Options().Addr,
		"mode": cfg.Mode,
		"key":  cfg.Key,
	})
	return newSink(cfg, client), nil
}

func newSink(cfg Config, client redis.UniversalClient) *Sink {
	return &Sink{
		cfg:        cfg,
		log:        cfg.Logger,
		client:     client,
		propagator: otel.GetTextMapPropagator(),
	}
}

// Send writes batch as one stream entry or one pub/sub message.
func (s *Sink) Send(ctx context.Context, batch [][]byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	if len(batch) == 0 {
		return nil
	}

	body := bytes.Join(batch, []byte{'\n'})

	var err error
	switch s.cfg.Mode {
	case ModePubSub:
		err = s.client.Publish(ctx, s.cfg.Key, body).Err()
	default:
		values := map[string]interface{}{
			"body":    body,
			"records": len(batch),
		}
		carrier := propagation.MapCarrier{}
		s.propagator.Inject(ctx, carrier)
		for k, v := range carrier {
			values[k] = v
		}
		args := &redis.XAddArgs{Stream: s.cfg.Key, Values: values}
		if s.cfg.MaxLen > 0 {
			args.MaxLen = s.cfg.MaxLen
			args.Approx = true
		}
		err = s.client.XAdd(ctx, args).Err()
	}

	if err != nil {
		s.log.ErrorWithContext(ctx, "failed to publish metrics to redis", err, map[string]interface{}{
			"mode":    s.cfg.Mode,
			"key":     s.cfg.Key,
			"records": len(batch),
		})
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

// Close closes the client. It waits for an in-flight Send.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Info("closing redis sink", nil, map[string]interface{}{"key": s.cfg.Key})
	return s.client.Close()
}

func createTLSConfig(cfg TLSConfig, defaultServerName string) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		ServerName:         defaultServerName,
	}
	if cfg.ServerName != "" {
		tlsConfig.ServerName = cfg.ServerName
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
