package rabbit

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/multierr"
)

// Sink publishes each flushed window as one newline-separated message to
// an exchange. It implements flush.Transport.
//
// The connection is opened on first use and reopened on the next Send after
// it breaks; a window that fails is not retried.
type Sink struct {
	cfg        Config
	log        logger.Logger
	dial       dialFunc
	propagator propagation.TextMapPropagator

	mu        sync.Mutex
	ch        channel
	closeConn func() error
	closed    bool
}

// NewSink validates cfg and connects to the broker. A failed initial
// connection is returned so misconfiguration surfaces at startup.
//
// Example:
//
//	sink, err := rabbit.NewSink(rabbit.Config{
//		Connection: rabbit.Connection{Host: "localhost", User: "guest", Password: "guest"},
//		Exchange:   rabbit.Exchange{Name: "metrics", RoutingKey: "statsd"},
//	})
//	if err != nil {
//		return err
//	}
//	defer sink.Close()
func NewSink(cfg Config) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := newSink(cfg.withDefaults(), dialAMQP)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Connection.DialTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connectLocked(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newSink(cfg Config, dial dialFunc) *Sink {
	return &Sink{
		cfg:        cfg,
		log:        cfg.Logger,
		dial:       dial,
		propagator: otel.GetTextMapPropagator(),
	}
}

// Send publishes batch as a single message and waits for the broker to
// confirm it or for ctx to end. A reconnect made by Send is bounded by ctx
// as well.
func (s *Sink) Send(ctx context.Context, batch [][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}
	if len(batch) == 0 {
		return nil
	}
	if s.ch == nil || s.ch.IsClosed() {
		if err := s.connectLocked(ctx); err != nil {
			return err
		}
	}

	headers := amqp.Table{}
	carrier := propagation.MapCarrier{}
	s.propagator.Inject(ctx, carrier)
	for k, v := range carrier {
		headers[k] = v
	}
	headers["x-records"] = int32(len(batch))

	msg := amqp.Publishing{
		Headers:     headers,
		ContentType: s.cfg.Exchange.ContentType,
		Body:        bytes.Join(batch, []byte{'\n'}),
	}
	if s.cfg.Exchange.Persistent {
		msg.DeliveryMode = amqp.Persistent
	}

	confirm, err := s.ch.Publish(ctx, s.cfg.Exchange.Name, s.cfg.Exchange.RoutingKey, msg)
	if err == nil && confirm != nil {
		var acked bool
		acked, err = confirm.WaitContext(ctx)
		if err == nil && !acked {
			err = ErrNotConfirmed
		}
	}
	if err != nil {
		err = translateError(err)
		if IsConnectionError(err) {
			s.resetLocked()
		}
		s.log.ErrorWithContext(ctx, "failed to publish metrics to rabbitmq", err, map[string]interface{}{
			"exchange":    s.cfg.Exchange.Name,
			"routing_key": s.cfg.Exchange.RoutingKey,
			"records":     len(batch),
		})
		return err
	}
	return nil
}

// Close closes the channel and connection. It waits for an in-flight Send.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Info("shutting down rabbitmq sink", nil)
	return s.resetLocked()
}

func (s *Sink) connectLocked(ctx context.Context) error {
	s.resetLocked()
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Connection.DialTimeout)
		defer cancel()
	}
	ch, closeConn, err := s.dial(ctx, s.cfg)
	if err != nil {
		err = translateError(err)
		s.log.Error("failed to connect to rabbitmq", err, map[string]interface{}{
			"host": s.cfg.Connection.Host,
			"port": s.cfg.Connection.Port,
		})
		return err
	}
	s.ch, s.closeConn = ch, closeConn
	s.log.Info("connected to rabbitmq", nil, map[string]interface{}{
		"host":     s.cfg.Connection.Host,
		"exchange": s.cfg.Exchange.Name,
	})
	return nil
}

func (s *Sink) resetLocked() error {
	var err error
	if s.ch != nil && !s.ch.IsClosed() {
		err = s.ch.Close()
	}
	if s.closeConn != nil {
		err = multierr.Append(err, s.closeConn())
	}
	s.ch, s.closeConn = nil, nil
	return err
}

type dialResult struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	err  error
}

func dialAMQP(ctx context.Context, cfg Config) (channel, func() error, error) {
	done := make(chan dialResult, 1)
	go func() {
		conn, err := newConnection(ctx, cfg.Connection)
		if err != nil {
			done <- dialResult{err: err}
			return
		}
		ch, err := connectToChannel(conn, cfg.Exchange)
		if err != nil {
			_ = conn.Close()
			done <- dialResult{err: err}
			return
		}
		done <- dialResult{conn: conn, ch: ch}
	}()

	var res dialResult
	select {
	case res = <-done:
	case <-ctx.Done():
		// The handshake is abandoned; close whatever it still produces.
		go func() {
			if late := <-done; late.conn != nil {
				_ = late.conn.Close()
			}
		}()
		return nil, nil, ctx.Err()
	}
	if res.err != nil {
		return nil, nil, res.err
	}

	conn := res.conn
	return amqpChannel{ch: res.ch}, func() error {
		if conn.IsClosed() {
			return nil
		}
		return conn.Close()
	}, nil
}

// connectToChannel opens a channel in confirm mode and declares the
// exchange when asked to.
func connectToChannel(conn *amqp.Connection, ex Exchange) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if ex.Declare && ex.Name != "" {
		err = ch.ExchangeDeclare(
			ex.Name,
			ex.Type,
			true,  // durable
			false, // autoDelete
			false, // internal
			false, // noWait
			nil,
		)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("failed to declare exchange: %w", err)
		}
	}
	return ch, nil
}

// newConnection dials the broker over plain AMQP, server-authenticated TLS
// or mutual TLS depending on cfg. The socket dial and the AMQP handshake
// share a timeout that never outlives ctx.
func newConnection(ctx context.Context, cfg Connection) (*amqp.Connection, error) {
	timeout := cfg.DialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	amqpCfg := amqp.Config{
		Heartbeat: cfg.Heartbeat,
		Vhost:     cfg.VHost,
		Dial:      amqp.DefaultDial(timeout),
	}

	if cfg.IsSSLEnabled {
		tlsConfig, err := createTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	return amqp.DialConfig(connectionURL(cfg), amqpCfg)
}

func connectionURL(cfg Connection) string {
	scheme := "amqp"
	if cfg.IsSSLEnabled {
		scheme = "amqps"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.FormatUint(uint64(cfg.Port), 10),
	}
	return u.String()
}

func createTLSConfig(cfg Connection) (*tls.Config, error) {
	tlsConfig := &tls.Config{ServerName: cfg.ServerName}

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

	if cfg.UseCert {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}
