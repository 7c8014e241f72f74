package statsd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
)

// The methods below bypass aggregation and send a single line immediately.
// They suit rare events where a window of latency is not acceptable.

// Count sends a counter increment.
func (c *Client) Count(ctx context.Context, name string, value int64, tags ...aggregator.Tag) error {
	return c.sendLine(ctx, aggregator.NewIdentity(name, tags...), strconv.FormatInt(value, 10), typeCount)
}

// Gauge sends a gauge value.
func (c *Client) Gauge(ctx context.Context, name string, value float64, tags ...aggregator.Tag) error {
	return c.sendLine(ctx, aggregator.NewIdentity(name, tags...), formatFloat(value), typeGauge)
}

// Timing sends a timer in milliseconds.
func (c *Client) Timing(ctx context.Context, name string, d time.Duration, tags ...aggregator.Tag) error {
	ms := float64(d) / float64(time.Millisecond)
	return c.sendLine(ctx, aggregator.NewIdentity(name, tags...), formatFloat(ms), typeTiming)
}

// Event sends a DogStatsD event: _e{<title len>,<text len>}:<title>|<text>|#tags.
// Newlines in text are escaped as the protocol requires.
func (c *Client) Event(ctx context.Context, title, text string, tags ...aggregator.Tag) error {
	text = escapeNewlines(text)

	line := make([]byte, 0, 32+len(title)+len(text))
	line = append(line, "_e{"...)
	line = strconv.AppendInt(line, int64(len(title)), 10)
	line = append(line, ',')
	line = strconv.AppendInt(line, int64(len(text)), 10)
	line = append(line, "}:"...)
	line = append(line, title...)
	line = append(line, '|')
	line = append(line, text...)
	line = c.appendTags(line, aggregator.NewIdentity("_e", tags...))
	return c.sendOne(ctx, line)
}

func (c *Client) sendLine(ctx context.Context, id aggregator.Identity, value, typ string) error {
	return c.sendOne(ctx, c.appendLine(nil, id, "", value, typ))
}

// sendOne reports an oversized line to the caller, since nothing else
// would be sent in its place.
func (c *Client) sendOne(ctx context.Context, line []byte) error {
	if len(line) > c.cfg.MaxPacketSize {
		return fmt.Errorf("%w: %d > %d bytes", ErrLineTooLong, len(line), c.cfg.MaxPacketSize)
	}
	return c.Send(ctx, [][]byte{line})
}

func escapeNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, '\\', 'n')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
