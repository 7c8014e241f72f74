package statsd

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/logger"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

// Client writes DogStatsD lines to a datagram socket. It embeds the Encoder
// used for snapshots so one value serves as both halves of a flush pipeline.
type Client struct {
	*Encoder

	cfg     Config
	log     logger.Logger
	conn    net.Conn
	limiter *rate.Limiter

	// writeMu keeps deadline and write of one datagram together when
	// ad-hoc sends race with a flush.
	writeMu sync.Mutex
	closed  atomic.Bool

	droppedLines atomic.Uint64
}

// NewClient dials the agent. For UDP nothing is sent during dialing, so an
// absent agent only surfaces as write errors later.
//
// Example:
//
//	client, err := statsd.NewClient(statsd.Config{Namespace: "billing", Env: "prod"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	network, address := "udp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	if cfg.SocketPath != "" {
		network, address = "unixgram", cfg.SocketPath
	}

	dialer := net.Dialer{Timeout: cfg.WriteTimeout}
	conn, err := dialer.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("failed to dial statsd agent at %s: %w", address, err)
	}

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit < 0 {
		limit = rate.Inf
	}

	cfg.Logger.Info("statsd client created", nil, map[string]interface{}{
		"network":   network,
		"address":   address,
		"namespace": cfg.Namespace,
	})

	return &Client{
		Encoder: NewEncoder(cfg),
		cfg:     cfg,
		log:     cfg.Logger,
		conn:    conn,
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}, nil
}

// Send packs lines into datagrams of at most MaxPacketSize bytes and writes
// them in order. Every failed datagram is reported in the returned error;
// once ctx is done the remaining datagrams are abandoned.
//
// Lines longer than MaxPacketSize can never be delivered. They are skipped,
// logged and counted in DroppedLines, but do not fail the send.
func (c *Client) Send(ctx context.Context, batch [][]byte) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	packets, dropped := pack(batch, c.cfg.MaxPacketSize)
	if dropped > 0 {
		c.droppedLines.Add(uint64(dropped))
		c.log.Warn("statsd lines exceed max packet size", ErrLineTooLong, map[string]interface{}{
			"dropped":         dropped,
			"max_packet_size": c.cfg.MaxPacketSize,
		})
	}

	var errs error
	for _, p := range packets {
		if err := c.write(ctx, p); err != nil {
			errs = multierr.Append(errs, err)
			if ctx.Err() != nil {
				break
			}
		}
	}
	return errs
}

// DroppedLines returns how many lines Send skipped for exceeding
// MaxPacketSize since the client was created.
func (c *Client) DroppedLines() uint64 {
	return c.droppedLines.Load()
}

func (c *Client) write(ctx context.Context, packet []byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.cfg.WriteTimeout)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := c.conn.Write(packet)
	return err
}

// pack joins lines with '\n' into packets no larger than maxSize.
// Lines that do not fit into an empty packet are counted and skipped.
func pack(lines [][]byte, maxSize int) (packets [][]byte, dropped int) {
	var buf []byte
	for _, line := range lines {
		if len(line) > maxSize {
			dropped++
			continue
		}
		if len(buf) > 0 && len(buf)+1+len(line) > maxSize {
			packets = append(packets, buf)
			buf = nil
		}
		if buf == nil {
			buf = make([]byte, 0, maxSize)
		} else {
			buf = append(buf, '\n')
		}
		buf = append(buf, line...)
	}
	if len(buf) > 0 {
		packets = append(packets, buf)
	}
	return packets, dropped
}

// Close releases the socket. Subsequent sends return ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

// LocalAddr returns the local end of the socket.
func (c *Client) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}
