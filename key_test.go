package cacheflow

import (
	"errors"
	"testing"
)

func TestNewKeyJoinsSegments(t *testing.T) {
	k, err := NewKey("|", "Order", "123", "v1")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	if k.String() != "Order|123|v1" {
		t.Fatalf("String = %q", k.String())
	}
	if k.Separator() != "|" || len(k.Segments()) != 3 {
		t.Fatalf("sep=%q segs=%v", k.Separator(), k.Segments())
	}
}

func TestNewKeyRejects(t *testing.T) {
	cases := []struct {
		name string
		sep  string
		segs []string
	}{
		{"blank separator", " ", []string{"a", "b", "c"}},
		{"too few segments", "|", []string{"a", "b"}},
		{"blank segment", "|", []string{"a", "  ", "c"}},
		{"empty segment", ":", []string{"a", "b", ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewKey(tc.sep, tc.segs...)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("want ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestKeySegmentsAreCopied(t *testing.T) {
	in := []string{"a", "b", "c"}
	k := MustKey("|", in...)
	in[0] = "z"
	out := k.Segments()
	out[1] = "y"
	if k.String() != "a|b|c" || k.Segments()[1] != "b" {
		t.Fatalf("key mutated through caller slices: %q", k.String())
	}
}

func TestKeyEqualityAndOrder(t *testing.T) {
	a := MustKey("|", "Order", "1", "v1")
	b := MustKey("|", "Order", "1", "v1")
	c := MustKey("|", "Order", "2", "v1")
	if !a.Equal(b) || a.Compare(b) != 0 {
		t.Fatalf("equal keys compare unequal")
	}
	if a.Equal(c) || a.Compare(c) >= 0 || c.Compare(a) <= 0 {
		t.Fatalf("ordering broken: %d %d", a.Compare(c), c.Compare(a))
	}
	if (Key{}).IsZero() != true || a.IsZero() {
		t.Fatalf("IsZero")
	}
}

func TestParseKeyRoundTrip(t *testing.T) {
	k := MustKey(DefaultSeparator, "users", "profile", "42")
	p, err := ParseKey(DefaultSeparator, k.String())
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if !p.Equal(k) {
		t.Fatalf("got %q want %q", p, k)
	}
	if _, err := ParseKey("|", "only|two"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestMustKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustKey("|", "a")
}
