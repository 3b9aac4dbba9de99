package redis

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/cacheflow/provider"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	p, err := New(Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
		CloseClient: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p, mr
}

func TestNewNilClient(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilClient) {
		t.Fatalf("want ErrNilClient, got %v", err)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("miss expected, ok=%v err=%v", ok, err)
	}

	payload := []byte{0, 1, 2, 0xFF, 'x'}
	if ok, err := p.Set(ctx, "k", payload, 1, pr.Expiration{}); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	got, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(got, payload) {
		t.Fatalf("Get: got=%x ok=%v err=%v", got, ok, err)
	}
	if ttl := mr.TTL("k"); ttl != 0 {
		t.Fatalf("no-expiry entry should have no TTL, got %v", ttl)
	}

	if err := p.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if mr.Exists("k") {
		t.Fatalf("key should be gone after Del")
	}
}

func TestRelativeExpiry(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	if _, err := p.Set(ctx, "k", []byte("v"), 1, pr.Expiration{RelativeToNow: 30 * time.Second}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != 30*time.Second {
		t.Fatalf("TTL=%v want 30s", ttl)
	}
	mr.FastForward(31 * time.Second)
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatalf("expected miss after TTL")
	}
}

func TestSlidingGetExtendsTTL(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	if _, err := p.Set(ctx, "k", []byte("v"), 1, pr.Expiration{Sliding: 10 * time.Second}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(8 * time.Second)
	if ttl := mr.TTL("k"); ttl != 2*time.Second {
		t.Fatalf("TTL before read=%v want 2s", ttl)
	}
	if _, ok, err := p.Get(ctx, "k"); err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL("k"); ttl != 10*time.Second {
		t.Fatalf("TTL after read=%v want 10s", ttl)
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	if found, err := p.Refresh(ctx, "missing", pr.Expiration{}); err != nil || found {
		t.Fatalf("Refresh missing: found=%v err=%v", found, err)
	}

	_, _ = p.Set(ctx, "slide", []byte("v"), 1, pr.Expiration{Sliding: 10 * time.Second})
	mr.FastForward(9 * time.Second)
	if found, err := p.Refresh(ctx, "slide", pr.Expiration{}); err != nil || !found {
		t.Fatalf("Refresh: found=%v err=%v", found, err)
	}
	if ttl := mr.TTL("slide"); ttl != 10*time.Second {
		t.Fatalf("TTL after refresh=%v want 10s", ttl)
	}

	_, _ = p.Set(ctx, "lease", []byte("v"), 1, pr.Expiration{RelativeToNow: time.Second})
	if found, err := p.Refresh(ctx, "lease", pr.Expiration{RelativeToNow: time.Hour}); err != nil || !found {
		t.Fatalf("Refresh re-lease: found=%v err=%v", found, err)
	}
	if ttl := mr.TTL("lease"); ttl != time.Hour {
		t.Fatalf("TTL after re-lease=%v want 1h", ttl)
	}
	got, ok, _ := p.Get(ctx, "lease")
	if !ok || string(got) != "v" {
		t.Fatalf("payload must survive re-lease, got=%q ok=%v", got, ok)
	}
}

func TestSetElapsedAbsoluteRejected(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	_, _ = p.Set(ctx, "k", []byte("old"), 1, pr.Expiration{})
	ok, err := p.Set(ctx, "k", []byte("v"), 1, pr.Expiration{AbsoluteAt: time.Now().Add(-time.Minute)})
	if err != nil || ok {
		t.Fatalf("elapsed expiration should be rejected, ok=%v err=%v", ok, err)
	}
	if mr.Exists("k") {
		t.Fatalf("rejected write must clear the previous value")
	}
}

func TestGetSelfHealsForeignShape(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	mr.HSet("k", fieldData, "v", fieldAbs, "not-a-number", fieldSliding, "-1")
	if _, ok, err := p.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("malformed entry should miss, ok=%v err=%v", ok, err)
	}
	if mr.Exists("k") {
		t.Fatalf("malformed entry should be deleted")
	}
}

func TestRefreshAfterConcurrentDelDoesNotResurrect(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	if _, err := p.Set(ctx, "k", []byte("v"), 1, pr.Expiration{RelativeToNow: time.Minute}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// the entry disappears after Refresh has seen it but before it re-leases
	p.now = func() time.Time {
		mr.Del("k")
		return time.Now()
	}
	found, err := p.Refresh(ctx, "k", pr.Expiration{RelativeToNow: time.Hour})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if found {
		t.Fatalf("re-lease of a deleted entry reported found")
	}
	if mr.Exists("k") {
		t.Fatalf("re-lease recreated a hash without data: %v", mr.Keys())
	}
}

func TestRefreshReleaseToAbsoluteDeadline(t *testing.T) {
	ctx := context.Background()
	p, mr := newTestRedis(t)

	_, _ = p.Set(ctx, "k", []byte("v"), 1, pr.Expiration{RelativeToNow: time.Minute})
	found, err := p.Refresh(ctx, "k", pr.Expiration{AbsoluteAt: time.Now().Add(2 * time.Hour)})
	if err != nil || !found {
		t.Fatalf("Refresh: found=%v err=%v", found, err)
	}
	if ttl := mr.TTL("k"); ttl <= time.Hour {
		t.Fatalf("TTL=%v want ~2h", ttl)
	}
}
