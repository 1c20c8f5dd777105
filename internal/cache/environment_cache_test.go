package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/WilliamArmst/testTwoStageRocket/internal/environment"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

var june1 = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// slowResolver blocks every Resolve until release is closed.
type slowResolver struct {
	resolves atomic.Int32
	cached   atomic.Int32
	release  chan struct{}
	err      error
}

func (r *slowResolver) Resolve(ctx context.Context, date time.Time) (*environment.Resolution, error) {
	r.resolves.Add(1)
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &environment.Resolution{
		Record: &environment.Record{Date: date.Add(12 * time.Hour)},
		Source: environment.SourceForecast,
		Key:    environment.Key(date),
	}, nil
}

func (r *slowResolver) Cached(_ context.Context, date time.Time) (*environment.Record, error) {
	r.cached.Add(1)
	if date.Equal(june1) {
		return &environment.Record{Date: date.Add(12 * time.Hour)}, nil
	}
	return nil, &environment.CacheMiss{Key: environment.Key(date), Err: errors.New("not found")}
}

func TestResolveHitsMemory(t *testing.T) {
	r := &slowResolver{}
	c := New(Config{}, r, testLogger())
	ctx := context.Background()

	first, err := c.Resolve(ctx, june1.Add(3*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if first.Source != environment.SourceForecast {
		t.Errorf("first source = %s, want forecast", first.Source)
	}

	second, err := c.Resolve(ctx, june1.Add(20*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if second.Source != environment.SourceCache {
		t.Errorf("second source = %s, want cache", second.Source)
	}
	if second.Record != first.Record {
		t.Error("second resolve returned a different record")
	}
	if second.Key != "environment_2025-06-01.json" {
		t.Errorf("key = %q", second.Key)
	}
	if n := r.resolves.Load(); n != 1 {
		t.Errorf("backing resolves = %d, want 1", n)
	}

	stats := c.Stats()
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestResolveCoalesces verifies that concurrent callers for one day share a
// single backing resolution.
func TestResolveCoalesces(t *testing.T) {
	r := &slowResolver{release: make(chan struct{})}
	c := New(Config{}, r, testLogger())

	const callers = 20
	var wg sync.WaitGroup
	results := make([]*environment.Resolution, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Resolve(context.Background(), june1)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
				return
			}
			results[i] = res
		}()
	}

	// Let the callers pile up on the in-flight resolution.
	time.Sleep(50 * time.Millisecond)
	close(r.release)
	wg.Wait()

	if n := r.resolves.Load(); n != 1 {
		t.Errorf("backing resolves = %d, want 1", n)
	}
	for i, res := range results {
		if res == nil || res.Record != results[0].Record {
			t.Errorf("caller %d got a different record", i)
		}
	}
}

func TestResolveErrorIsNotCached(t *testing.T) {
	r := &slowResolver{err: environment.ErrFetchFailed}
	c := New(Config{}, r, testLogger())

	for range 2 {
		_, err := c.Resolve(context.Background(), june1)
		if !errors.Is(err, environment.ErrFetchFailed) {
			t.Fatalf("err = %v, want ErrFetchFailed", err)
		}
	}
	if n := r.resolves.Load(); n != 2 {
		t.Errorf("backing resolves = %d, want 2", n)
	}
	if c.Stats().Entries != 0 {
		t.Error("failed resolution was cached")
	}
}

// TestResolveOutlivesCaller verifies that a caller giving up does not
// cancel the shared resolution.
func TestResolveOutlivesCaller(t *testing.T) {
	r := &slowResolver{release: make(chan struct{})}
	c := New(Config{}, r, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Resolve(ctx, june1)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	close(r.release)
	res, err := c.Resolve(context.Background(), june1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Record == nil {
		t.Fatal("nil record")
	}
	if n := r.resolves.Load(); n != 1 {
		t.Errorf("backing resolves = %d, want 1", n)
	}
}

func TestCached(t *testing.T) {
	r := &slowResolver{}
	c := New(Config{}, r, testLogger())
	ctx := context.Background()

	if _, err := c.Cached(ctx, june1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Cached(ctx, june1); err != nil {
		t.Fatal(err)
	}
	if n := r.cached.Load(); n != 1 {
		t.Errorf("backing Cached calls = %d, want 1", n)
	}

	var miss *environment.CacheMiss
	if _, err := c.Cached(ctx, june1.AddDate(0, 0, 1)); !errors.As(err, &miss) {
		t.Errorf("err = %v, want *CacheMiss", err)
	}
	if r.resolves.Load() != 0 {
		t.Error("Cached must not resolve")
	}

	// A day loaded through Cached serves Resolve from memory.
	res, err := c.Resolve(ctx, june1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Source != environment.SourceCache || r.resolves.Load() != 0 {
		t.Errorf("source = %s, resolves = %d", res.Source, r.resolves.Load())
	}
}

func TestEvictExpired(t *testing.T) {
	r := &slowResolver{}
	c := New(Config{Retain: 1}, r, testLogger())
	ctx := context.Background()

	for i := range 5 {
		if _, err := c.Resolve(ctx, june1.AddDate(0, 0, i)); err != nil {
			t.Fatal(err)
		}
	}

	// Today is June 4: keep June 3 onward.
	c.now = func() time.Time { return time.Date(2025, 6, 4, 9, 0, 0, 0, time.UTC) }
	if removed := c.evictExpired(); removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	stats := c.Stats()
	if stats.Entries != 3 {
		t.Errorf("entries = %d, want 3", stats.Entries)
	}
	if !stats.Oldest.Equal(june1.AddDate(0, 0, 2)) || !stats.Newest.Equal(june1.AddDate(0, 0, 4)) {
		t.Errorf("range = %v .. %v", stats.Oldest, stats.Newest)
	}
	if stats.Evictions != 2 {
		t.Errorf("evictions = %d, want 2", stats.Evictions)
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	c := New(Config{SweepInterval: time.Millisecond}, &slowResolver{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
