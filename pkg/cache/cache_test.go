package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should never hit")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "layout:abc", []byte(`{"width":800}`), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil || !hit {
		t.Fatalf("Get after Set: hit=%v err=%v", hit, err)
	}
	if string(data) != `{"width":800}` {
		t.Errorf("Get returned %q", data)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)

	stats, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 2 || stats.Expired != 1 {
		t.Errorf("Stats = %+v, want 2 entries with 1 expired", stats)
	}

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should never expire")
	}
}

func TestFileCachePruneAndClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "old", []byte("1"), time.Second)
	_ = c.Set(ctx, "new", []byte("2"), time.Hour)
	// A corrupt entry is pruned as well.
	broken := c.path("broken")
	if err := os.MkdirAll(filepath.Dir(broken), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Minute)
	removed, err := c.Prune()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("Prune removed %d, want 2", removed)
	}
	if _, hit, _ := c.Get(ctx, "new"); !hit {
		t.Error("live entry should survive Prune")
	}

	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	stats, _ := c.Stats()
	if stats.Entries != 0 {
		t.Errorf("Clear left %d entries", stats.Entries)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if got := k.DocumentKey("news", "doc-1"); got != "doc:news/doc-1" {
		t.Errorf("DocumentKey = %s", got)
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 800})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Width: 600})
	if lk1 == lk2 {
		t.Error("different widths should produce different layout keys")
	}
	if !strings.HasPrefix(lk1, "layout:") {
		t.Errorf("LayoutKey should be namespaced: %s", lk1)
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", VizType: "arcs"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", VizType: "arcs"})
	if ak1 == ak2 {
		t.Error("different formats should produce different artifact keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tenant:7:")

	if got := scoped.DocumentKey("news", "a"); got != "tenant:7:doc:news/a" {
		t.Errorf("DocumentKey = %s", got)
	}
	if got := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(got, "tenant:7:layout:") {
		t.Errorf("LayoutKey should be prefixed: %s", got)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.DocumentKey("c", "d"); got != "p:doc:c/d" {
		t.Errorf("nil inner should fall back to DefaultKeyer: %s", got)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrBackend)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrBackend) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if IsRetryable(ErrBackend) {
		t.Error("unwrapped errors are not retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrBackend)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("want success after one retry, got err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("bad request")
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("non-retryable error should stop at once, got err=%v calls=%d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(ErrBackend)
	})
	if !errors.Is(err, ErrBackend) || calls != 3 {
		t.Errorf("want last error after 3 attempts, got err=%v calls=%d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		return Retryable(ErrBackend)
	})
	if err != context.Canceled {
		t.Errorf("should return context error: %v", err)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("ANNOVIEW_TEST_REDIS")
	if addr == "" {
		t.Skip("ANNOVIEW_TEST_REDIS not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, Prefix: "annoview-test:"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("missing key: hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get: %q hit=%v err=%v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
}
