package infra

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRenderCacheGetSet(t *testing.T) {
	c := NewRenderCache(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("empty cache should miss")
	}
	c.Set("a", []byte("png"), "image/png")
	e, ok := c.Get("a")
	if !ok || string(e.Data) != "png" || e.ContentType != "image/png" {
		t.Errorf("Get: got %+v, %v", e, ok)
	}
}

func TestRenderCacheExpiry(t *testing.T) {
	c := NewRenderCache(10 * time.Millisecond)
	c.Set("a", []byte("x"), "text/plain")
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry should miss")
	}
	c.Cleanup()
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("entries after cleanup: got %d, want 0", n)
	}
}

func TestRenderCacheZeroTTLDisables(t *testing.T) {
	c := NewRenderCache(0)
	calls := 0
	render := func() ([]byte, string, error) {
		calls++
		return []byte("x"), "text/plain", nil
	}
	c.GetOrRender("k", render)
	c.GetOrRender("k", render)
	if calls != 2 {
		t.Errorf("render calls: got %d, want 2", calls)
	}
}

func TestGetOrRender(t *testing.T) {
	c := NewRenderCache(time.Minute)
	var calls atomic.Int32
	render := func() ([]byte, string, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return []byte("chart"), "text/html", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := c.GetOrRender(Key("production", "Rice", "html"), render)
			if err != nil || string(e.Data) != "chart" {
				t.Errorf("GetOrRender: %v %q", err, e.Data)
			}
		}()
	}
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("render calls: got %d, want 1", n)
	}
	if s := c.Stats(); s.Entries != 1 || s.Hits+s.Misses != 8 {
		t.Errorf("stats: got %+v", s)
	}
}

func TestGetOrRenderErrorNotCached(t *testing.T) {
	c := NewRenderCache(time.Minute)
	boom := errors.New("boom")
	if _, err := c.GetOrRender("k", func() ([]byte, string, error) { return nil, "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("errors must not be cached")
	}
}

func TestFlush(t *testing.T) {
	c := NewRenderCache(time.Minute)
	c.Set("a", []byte("1"), "")
	c.Set("b", []byte("2"), "")
	c.Flush()
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("entries after flush: got %d, want 0", n)
	}
}

func TestKey(t *testing.T) {
	if Key("a", "b") == Key("ab") {
		t.Error("keys with different parts should differ")
	}
}

func TestFlushDuringRenderDropsResult(t *testing.T) {
	c := NewRenderCache(time.Minute)
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan CacheEntry)
	go func() {
		e, _ := c.GetOrRender("k", func() ([]byte, string, error) {
			close(started)
			<-release
			return []byte("old-table"), "text/html", nil
		})
		done <- e
	}()

	<-started
	c.Flush()

	// A request after the flush must not join the in-flight render.
	e, err := c.GetOrRender("k", func() ([]byte, string, error) {
		return []byte("new-table"), "text/html", nil
	})
	if err != nil || string(e.Data) != "new-table" {
		t.Fatalf("after flush: got %q, %v, want new-table", e.Data, err)
	}

	close(release)
	if old := <-done; string(old.Data) != "old-table" {
		t.Errorf("in-flight caller: got %q, want old-table", old.Data)
	}

	e, ok := c.Get("k")
	if !ok || string(e.Data) != "new-table" {
		t.Errorf("cached after flush: got %q, %v, want new-table", e.Data, ok)
	}
}
