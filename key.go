package cacheflow

import (
	"fmt"
	"strings"
)

const (
	// MinKeySegments is the fewest segments a Key may have.
	MinKeySegments = 3
	// DefaultSeparator joins segments when the caller has no preference.
	DefaultSeparator = "|"
)

// Key is an immutable composite cache key: ordered segments joined by a
// separator. The zero Key is invalid and rejected by every request constructor.
// Keys compare by their joined value.
type Key struct {
	sep      string
	segments []string
	value    string
}

// NewKey builds a Key from at least MinKeySegments non-blank segments.
//
//	k, _ := NewKey("|", "Order", "123", "v1") // k.String() == "Order|123|v1"
func NewKey(separator string, segments ...string) (Key, error) {
	if strings.TrimSpace(separator) == "" {
		return Key{}, fmt.Errorf("%w: key separator is empty", ErrInvalidArgument)
	}
	if len(segments) < MinKeySegments {
		return Key{}, fmt.Errorf("%w: key needs at least %d segments, got %d",
			ErrInvalidArgument, MinKeySegments, len(segments))
	}
	for i, s := range segments {
		if strings.TrimSpace(s) == "" {
			return Key{}, fmt.Errorf("%w: key segment %d is empty", ErrInvalidArgument, i)
		}
	}
	segs := make([]string, len(segments))
	copy(segs, segments)
	return Key{sep: separator, segments: segs, value: strings.Join(segs, separator)}, nil
}

// MustKey is like NewKey but panics on error.
func MustKey(separator string, segments ...string) Key {
	k, err := NewKey(separator, segments...)
	if err != nil {
		panic(err)
	}
	return k
}

// ParseKey rebuilds a Key from its joined form.
func ParseKey(separator, value string) (Key, error) {
	if strings.TrimSpace(separator) == "" {
		return Key{}, fmt.Errorf("%w: key separator is empty", ErrInvalidArgument)
	}
	return NewKey(separator, strings.Split(value, separator)...)
}

func (k Key) String() string    { return k.value }
func (k Key) Separator() string { return k.sep }
func (k Key) IsZero() bool      { return k.value == "" }

// Segments returns a copy of the key segments.
func (k Key) Segments() []string {
	out := make([]string, len(k.segments))
	copy(out, k.segments)
	return out
}

func (k Key) Equal(o Key) bool { return k.value == o.value }

// Compare orders keys by their joined value: -1, 0 or +1.
func (k Key) Compare(o Key) int { return strings.Compare(k.value, o.value) }
