package aggregator

import (
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Tag is one key/value dimension of a metric. A tag with an empty Value is
// a bare key, e.g. "canary".
type Tag struct {
	Key   string
	Value string
}

// T is shorthand for Tag{Key: key, Value: value}.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// ParseTag splits "key:value" at the first colon. Input without a colon is a bare key.
func ParseTag(s string) Tag {
	key, value, _ := strings.Cut(s, ":")
	return Tag{Key: key, Value: value}
}

// ParseTags parses every element with ParseTag, skipping empty strings.
func ParseTags(raw ...string) []Tag {
	tags := make([]Tag, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, ParseTag(s))
		}
	}
	return tags
}

func (t Tag) String() string {
	if t.Value == "" {
		return t.Key
	}
	return t.Key + ":" + t.Value
}

func compareTags(a, b Tag) int {
	if c := strings.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	return strings.Compare(a.Value, b.Value)
}

// Identity is a metric name plus its canonically ordered tag set.
// Two identities built from the same tags in any order are equal.
// The zero value is not a valid identity.
type Identity struct {
	name string
	tags []Tag
	key  string
	hash uint64
}

// NewIdentity sorts the tags by key then value and collapses duplicates.
func NewIdentity(name string, tags ...Tag) Identity {
	sorted := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if t.Key != "" {
			sorted = append(sorted, t)
		}
	}
	slices.SortFunc(sorted, compareTags)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	b.Grow(len(name) + 16*len(sorted))
	b.WriteString(name)
	for _, t := range sorted {
		// NUL separators keep "a" + "b:c" distinct from "a:b" + "c".
		b.WriteByte(0)
		b.WriteString(t.Key)
		b.WriteByte(0)
		b.WriteString(t.Value)
	}
	key := b.String()

	return Identity{
		name: name,
		tags: sorted,
		key:  key,
		hash: xxhash.Sum64String(key),
	}
}

// Name returns the metric name.
func (id Identity) Name() string { return id.name }

// Key returns the canonical string form used for map lookups and ordering.
func (id Identity) Key() string { return id.key }

// Hash returns the xxhash64 of Key.
func (id Identity) Hash() uint64 { return id.hash }

// Tags returns a copy of the canonical tag list.
func (id Identity) Tags() []Tag { return slices.Clone(id.tags) }

// NumTags returns the number of distinct tags.
func (id Identity) NumTags() int { return len(id.tags) }

// EachTag calls fn for each tag in canonical order without copying.
func (id Identity) EachTag(fn func(Tag)) {
	for _, t := range id.tags {
		fn(t)
	}
}

// Equal reports whether both identities have the same name and tag set.
func (id Identity) Equal(other Identity) bool {
	return id.hash == other.hash && id.key == other.key
}

// IsZero reports whether the identity was never constructed.
func (id Identity) IsZero() bool { return id.name == "" }

// With returns a new identity carrying the extra tags as well.
func (id Identity) With(extra ...Tag) Identity {
	all := make([]Tag, 0, len(id.tags)+len(extra))
	all = append(all, id.tags...)
	all = append(all, extra...)
	return NewIdentity(id.name, all...)
}

// String renders "name{k:v,k2}".
func (id Identity) String() string {
	if len(id.tags) == 0 {
		return id.name
	}
	var b strings.Builder
	b.WriteString(id.name)
	b.WriteByte('{')
	for i, t := range id.tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
	b.WriteByte('}')
	return b.String()
}
