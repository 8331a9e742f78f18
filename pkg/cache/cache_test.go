package cache

import (
	"context"
	"errors"
	"net"
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

	if err := c.Set(ctx, "graph:abc", []byte("{}"), time.Hour); err != nil {
		t.Errorf("Set() error: %v", err)
	}
	if data, hit, err := c.Get(ctx, "graph:abc"); hit || data != nil || err != nil {
		t.Errorf("Get() = (%q, %v, %v), want a miss", data, hit, err)
	}
	if err := c.Delete(ctx, "graph:abc"); err != nil {
		t.Errorf("Delete() error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// sha256("") is well known.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Hash(nil); got != empty {
		t.Errorf("Hash(nil) = %s, want %s", got, empty)
	}
	if Hash([]byte("mr(6)")) == Hash([]byte("mr(7)")) {
		t.Error("Hash should differ for different patterns")
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// GraphKey should include options in hash
	gk1 := k.GraphKey("mr(6) 6*inc", GraphKeyOpts{Leniency: "no-mercy", TipFromFO: true})
	gk2 := k.GraphKey("mr(6) 6*inc", GraphKeyOpts{Leniency: "skip-incorrect", TipFromFO: true})
	if gk1 == gk2 {
		t.Error("Different GraphKeyOpts should produce different keys")
	}
	if gk3 := k.GraphKey("mr(6) 6*sc", GraphKeyOpts{Leniency: "no-mercy", TipFromFO: true}); gk1 == gk3 {
		t.Error("Different sources should produce different keys")
	}
	if !strings.HasPrefix(gk1, "graph:") || len(gk1) != len("graph:")+64 {
		t.Errorf("GraphKey unexpected: %s", gk1)
	}

	// ResultKey
	rk1 := k.ResultKey("hash123", ResultKeyOpts{Params: []byte(`{"gravity":0.1}`), Steps: 100})
	rk2 := k.ResultKey("hash123", ResultKeyOpts{Params: []byte(`{"gravity":0.2}`), Steps: 100})
	rk3 := k.ResultKey("hash123", ResultKeyOpts{Params: []byte(`{"gravity":0.1}`), Steps: 200})
	if rk1 == rk2 || rk1 == rk3 {
		t.Error("Different ResultKeyOpts should produce different keys")
	}
	if rk1 != k.ResultKey("hash123", ResultKeyOpts{Params: []byte(`{"gravity":0.1}`), Steps: 100}) {
		t.Error("ResultKey should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "server:")

	// All keys should be prefixed
	graphKey := scoped.GraphKey("mr(6)", GraphKeyOpts{})
	if want := "server:" + inner.GraphKey("mr(6)", GraphKeyOpts{}); graphKey != want {
		t.Errorf("ScopedKeyer GraphKey = %q, want %q", graphKey, want)
	}

	resultKey := scoped.ResultKey("abc", ResultKeyOpts{})
	if !strings.HasPrefix(resultKey, "server:result:") {
		t.Errorf("ScopedKeyer ResultKey should be prefixed: %s", resultKey)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.GraphKey("sc", GraphKeyOpts{})
	if key != "prefix:"+NewDefaultKeyer().GraphKey("sc", GraphKeyOpts{}) {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit {
		t.Fatalf("Get = (%v, %v), want hit", hit, err)
	}
	if string(data) != "value" {
		t.Errorf("Get = %q, want %q", data, "value")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete of missing key error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should miss")
	}

	if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte(key), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	type entry struct {
		Nodes int `json:"nodes"`
	}
	var got entry
	if err := GetJSON(ctx, c, "k", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON on empty cache = %v, want ErrCacheMiss", err)
	}

	if err := SetJSON(ctx, c, "k", entry{Nodes: 42}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, c, "k", &got); err != nil {
		t.Fatalf("GetJSON error: %v", err)
	}
	if got.Nodes != 42 {
		t.Errorf("Nodes = %d, want 42", got.Nodes)
	}

	if err := c.Set(ctx, "bad", []byte("{"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, c, "bad", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetJSON on corrupt entry = %v, want ErrCacheMiss", err)
	}
	if _, hit, _ := c.Get(ctx, "bad"); hit {
		t.Error("corrupt entry should be deleted")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("PLUSHIE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PLUSHIE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, Prefix: "plushie-test:"})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || !hit || string(data) != "value" {
		t.Errorf("Get = (%q, %v, %v), want hit", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestClassify(t *testing.T) {
	if classify(nil) != nil {
		t.Error("classify(nil) should be nil")
	}
	err := classify(&net.OpError{Op: "dial", Err: errors.New("connection refused")})
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("classify(net error) = %v, want retryable ErrNetwork", err)
	}
	plain := errors.New("WRONGTYPE")
	if classify(plain) != plain {
		t.Error("classify should pass other errors through")
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Errorf("Retryable(ErrNetwork) = %v, want retryable ErrNetwork", err)
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error() = %q, want %q", err.Error(), ErrNetwork.Error())
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable(ErrCacheMiss) = true, want false")
	}
}

func TestBackoffDo(t *testing.T) {
	ctx := context.Background()
	b := Backoff{Attempts: 3, Delay: time.Millisecond}

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, true, 1, false},
		{"recovers", 2, true, 3, false},
		{"exhausted", 5, true, 3, true},
		{"permanent", 5, false, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := b.Do(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(ErrNetwork)
					}
					return ErrCacheMiss
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Backoff{Attempts: 3, Delay: time.Hour}.Do(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
}

func TestFileCacheSkipsCollidingEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "a", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	// Move a's entry to where b lives.
	if err := os.MkdirAll(filepath.Dir(c.path("b")), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(c.path("a"), c.path("b")); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("entry stored for another key should miss")
	}
}
