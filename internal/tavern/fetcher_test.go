package tavern_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/engine/cache"
	"github.com/rshade/beacondash/internal/tavern"
)

// stubFetcher answers every request with the currently set result.
type stubFetcher struct {
	calls     atomic.Int32
	cancelled atomic.Int32
	gate      chan struct{}

	mu   sync.Mutex
	data json.RawMessage
	err  error
}

func (s *stubFetcher) set(data string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data, s.err = json.RawMessage(data), err
}

func (s *stubFetcher) Raw(ctx context.Context, _ tavern.Operation, _ map[string]any) (json.RawMessage, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			s.cancelled.Add(1)
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.err
}

var detailOp = tavern.Operation{Name: "GetHostDetail"}

func newStore(t *testing.T, now func() time.Time) *cache.FileStore {
	t.Helper()
	store, err := cache.NewFileStore(cache.Options{
		Directory: t.TempDir(),
		Enabled:   true,
		TTL:       time.Hour,
		Now:       now,
	})
	require.NoError(t, err)
	return store
}

func TestCachedFetcher_NetworkFirstWritesCache(t *testing.T) {
	stub := &stubFetcher{}
	stub.set(`{"hosts":{"edges":[]}}`, nil)
	store := newStore(t, nil)
	f := tavern.NewCachedFetcher(stub, store, "http://tavern/graphql", tavern.NetworkFirst)

	data, err := f.Raw(context.Background(), detailOp, map[string]any{"id": "h1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hosts":{"edges":[]}}`, string(data))

	// Network-first still asks the server while a fresh copy exists.
	_, err = f.Raw(context.Background(), detailOp, map[string]any{"id": "h1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, stub.calls.Load())

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}

func TestCachedFetcher_ServesStaleOnFailure(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	stub := &stubFetcher{}
	stub.set(`{"v":1}`, nil)
	f := tavern.NewCachedFetcher(stub, newStore(t, clock), "http://tavern/graphql", tavern.NetworkFirst)
	vars := map[string]any{"id": "h1"}

	_, err := f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)

	// Well past the TTL: stale copies are still served when the server fails.
	now = now.Add(48 * time.Hour)
	stub.set("", errors.New("connection refused"))

	data, err := f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))

	// Other variables have no cached copy.
	_, err = f.Raw(context.Background(), detailOp, map[string]any{"id": "h2"})
	require.EqualError(t, err, "connection refused")
}

func TestCachedFetcher_CancelledRequestNotServedFromCache(t *testing.T) {
	stub := &stubFetcher{}
	stub.set(`{"v":1}`, nil)
	f := tavern.NewCachedFetcher(stub, newStore(t, nil), "http://tavern/graphql", tavern.NetworkFirst)
	vars := map[string]any{"id": "h1"}
	_, err := f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)

	stub.set("", context.Canceled)
	_, err = f.Raw(context.Background(), detailOp, vars)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCachedFetcher_CacheFirst(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	stub := &stubFetcher{}
	stub.set(`{"v":1}`, nil)
	f := tavern.NewCachedFetcher(stub, newStore(t, clock), "http://tavern/graphql", tavern.CacheFirst)
	vars := map[string]any{"id": "h1"}

	_, err := f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)
	stub.set(`{"v":2}`, nil)

	data, err := f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))
	assert.EqualValues(t, 1, stub.calls.Load())

	// Expired entries go back to the network.
	now = now.Add(2 * time.Hour)
	data, err = f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))
	assert.EqualValues(t, 2, stub.calls.Load())
}

func TestCachedFetcher_DeduplicatesInFlight(t *testing.T) {
	stub := &stubFetcher{gate: make(chan struct{})}
	stub.set(`{"v":1}`, nil)
	f := tavern.NewCachedFetcher(stub, nil, "http://tavern/graphql", tavern.NetworkFirst)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := f.Raw(context.Background(), detailOp, map[string]any{"id": "h1"})
			if err == nil {
				results[i] = string(data)
			}
		}()
	}

	require.Eventually(t, func() bool { return stub.calls.Load() == 1 }, time.Second, time.Millisecond)
	// Give the other callers time to join the in-flight request.
	time.Sleep(50 * time.Millisecond)
	close(stub.gate)
	wg.Wait()

	assert.EqualValues(t, 1, stub.calls.Load())
	for _, r := range results {
		assert.JSONEq(t, `{"v":1}`, r)
	}
}

func TestCachedFetcher_CancelledCallerLeavesSharedRequest(t *testing.T) {
	stub := &stubFetcher{gate: make(chan struct{})}
	stub.set(`{"v":1}`, nil)
	f := tavern.NewCachedFetcher(stub, nil, "http://tavern/graphql", tavern.NetworkFirst)
	vars := map[string]any{"id": "h1"}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.Raw(ctx, detailOp, vars)
		first <- err
	}()
	require.Eventually(t, func() bool { return stub.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		data json.RawMessage
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := f.Raw(context.Background(), detailOp, vars)
		second <- result{data, err}
	}()
	// Let the second caller join the in-flight request.
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(stub.gate)
	got := <-second
	require.NoError(t, got.err)
	assert.JSONEq(t, `{"v":1}`, string(got.data))
	assert.EqualValues(t, 1, stub.calls.Load())
	assert.Zero(t, stub.cancelled.Load())
}

func TestCachedFetcher_LastCallerCancelsSharedRequest(t *testing.T) {
	stub := &stubFetcher{gate: make(chan struct{})}
	stub.set(`{"v":1}`, nil)
	f := tavern.NewCachedFetcher(stub, nil, "http://tavern/graphql", tavern.NetworkFirst)
	vars := map[string]any{"id": "h1"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.Raw(ctx, detailOp, vars)
		done <- err
	}()
	require.Eventually(t, func() bool { return stub.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Eventually(t, func() bool { return stub.cancelled.Load() == 1 }, time.Second, time.Millisecond)

	close(stub.gate)
	data, err := f.Raw(context.Background(), detailOp, vars)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))
	assert.EqualValues(t, 2, stub.calls.Load(), "a later caller starts a fresh request")
}

func TestCachedFetcher_DisabledStore(t *testing.T) {
	store, err := cache.NewFileStore(cache.Options{})
	require.NoError(t, err)
	stub := &stubFetcher{}
	stub.set("", errors.New("offline"))
	f := tavern.NewCachedFetcher(stub, store, "http://tavern/graphql", tavern.NetworkFirst)

	_, err = f.Raw(context.Background(), detailOp, nil)
	require.EqualError(t, err, "offline")
}

func TestQuery_Typed(t *testing.T) {
	stub := &stubFetcher{}
	stub.set(`{"hosts":{"edges":[{"node":{"id":"h1","name":"db-02"}}]}}`, nil)

	resp, err := tavern.Query[tavern.HostsResponse](context.Background(), stub, detailOp, nil)
	require.NoError(t, err)
	host := tavern.ExtractHost(resp, "h1")
	require.NotNil(t, host)
	assert.Equal(t, "db-02", host.Name)

	stub.set(`{"hosts":"nope"}`, nil)
	_, err = tavern.Query[tavern.HostsResponse](context.Background(), stub, detailOp, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding GetHostDetail data")
}
