package statsd

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Aleph-Alpha/statsagg/v1/aggregator"
)

// Metric type markers of the DogStatsD protocol.
const (
	typeCount  = "c"
	typeGauge  = "g"
	typeTiming = "ms"
)

// Encoder renders snapshots as DogStatsD lines:
//
//	<namespace>.<name>[.<suffix>]:<value>|<type>|#<tag>,<tag>
//
// Counters are written every window, including zero. Gauges are written
// only once set. Distributions expand to .count, .sum, .min, .max, .avg and
// one .pNN gauge per quantile, and are skipped for windows without
// observations. Timing counts expand to "<name>.time" (sum) and "<name>"
// (count) counters.
type Encoder struct {
	prefix      string
	defaultTags []string
}

// NewEncoder builds an encoder with the namespace and default tags from cfg.
func NewEncoder(cfg Config) *Encoder {
	prefix := cfg.Namespace
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &Encoder{
		prefix:      string(sanitize(nil, prefix, false)),
		defaultTags: defaultTags(cfg),
	}
}

// defaultTags returns env, version and service tags first, followed by the
// configured extra tags in sorted order.
func defaultTags(cfg Config) []string {
	var tags []string
	for _, t := range []struct{ key, value string }{
		{"env", cfg.Env},
		{"version", cfg.Version},
		{"service", cfg.Service},
	} {
		if t.value != "" {
			tags = append(tags, string(appendTag(nil, aggregator.T(t.key, t.value))))
		}
	}

	extra := make([]string, 0, len(cfg.Tags))
	for _, t := range aggregator.ParseTags(cfg.Tags...) {
		extra = append(extra, string(appendTag(nil, t)))
	}
	slices.Sort(extra)
	return append(tags, slices.Compact(extra)...)
}

// Encode turns one snapshot into protocol lines without trailing newlines.
func (e *Encoder) Encode(snap aggregator.Snapshot) [][]byte {
	lines := make([][]byte, 0, len(snap.Samples))
	for _, s := range snap.Samples {
		switch s.Kind {
		case aggregator.KindCounter:
			lines = append(lines, e.line(s.Identity, "", formatUint(s.Count), typeCount))

		case aggregator.KindGauge:
			if !s.HasValue {
				continue
			}
			lines = append(lines, e.line(s.Identity, "", formatFloat(s.Value), typeGauge))

		case aggregator.KindDistribution:
			if !s.HasValue {
				continue
			}
			lines = append(lines,
				e.line(s.Identity, ".count", formatUint(s.Count), typeCount),
				e.line(s.Identity, ".sum", formatFloat(s.Sum), typeGauge),
				e.line(s.Identity, ".min", formatFloat(s.Min), typeGauge),
				e.line(s.Identity, ".max", formatFloat(s.Max), typeGauge),
				e.line(s.Identity, ".avg", formatFloat(s.Mean()), typeGauge),
			)
			for _, q := range s.Quantiles {
				lines = append(lines, e.line(s.Identity, quantileSuffix(q.Q), formatFloat(q.Value), typeGauge))
			}

		case aggregator.KindTimingCount:
			lines = append(lines,
				e.line(s.Identity, ".time", formatFloat(s.Sum), typeCount),
				e.line(s.Identity, "", formatUint(s.Count), typeCount),
			)
		}
	}
	return lines
}

func (e *Encoder) line(id aggregator.Identity, suffix, value, typ string) []byte {
	return e.appendLine(make([]byte, 0, 64), id, suffix, value, typ)
}

func (e *Encoder) appendLine(dst []byte, id aggregator.Identity, suffix, value, typ string) []byte {
	dst = append(dst, e.prefix...)
	dst = sanitize(dst, id.Name(), false)
	dst = append(dst, suffix...)
	dst = append(dst, ':')
	dst = append(dst, value...)
	dst = append(dst, '|')
	dst = append(dst, typ...)
	return e.appendTags(dst, id)
}

func (e *Encoder) appendTags(dst []byte, id aggregator.Identity) []byte {
	if len(e.defaultTags) == 0 && id.NumTags() == 0 {
		return dst
	}
	dst = append(dst, "|#"...)
	n := 0
	for _, t := range e.defaultTags {
		if n > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, t...)
		n++
	}
	id.EachTag(func(t aggregator.Tag) {
		if n > 0 {
			dst = append(dst, ',')
		}
		dst = appendTag(dst, t)
		n++
	})
	return dst
}

func appendTag(dst []byte, t aggregator.Tag) []byte {
	dst = sanitize(dst, t.Key, true)
	if t.Value != "" {
		dst = append(dst, ':')
		dst = sanitize(dst, t.Value, true)
	}
	return dst
}

// sanitize appends s with protocol separators replaced by '_'. Names may
// not contain ':', '|' or '@'; tags may not contain ',', '|' or '#'.
func sanitize(dst []byte, s string, tag bool) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '|' || c == '\n' || c == '\r':
			c = '_'
		case !tag && (c == ':' || c == '@'):
			c = '_'
		case tag && (c == ',' || c == '#'):
			c = '_'
		}
		dst = append(dst, c)
	}
	return dst
}

// quantileSuffix renders 0.5 as ".p50" and 0.999 as ".p99_9".
func quantileSuffix(q float64) string {
	pct := math.Round(q*1000) / 10
	return ".p" + strings.ReplaceAll(strconv.FormatFloat(pct, 'f', -1, 64), ".", "_")
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
