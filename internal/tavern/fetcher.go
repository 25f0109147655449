package tavern

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/beacondash/internal/engine/cache"
	"github.com/rshade/beacondash/internal/logging"
)

// Policy selects how CachedFetcher consults the cache.
type Policy int

const (
	// NetworkFirst always asks the server and falls back to any cached copy,
	// however old, when the request fails.
	NetworkFirst Policy = iota

	// CacheFirst answers from a fresh cache entry without a request.
	CacheFirst
)

// CachedFetcher deduplicates identical in-flight requests and keeps the last
// good response of every request on disk.
//
// A shared request outlives the caller that started it. Each caller stops
// waiting when its own context ends, and the request is cancelled once no
// caller is waiting for it.
type CachedFetcher struct {
	next     Fetcher
	store    *cache.FileStore
	endpoint string
	policy   Policy
	group    singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the context shared by every caller waiting on one key.
type flight struct {
	ctx     context.Context //nolint:containedctx // Outlives any single caller.
	cancel  context.CancelFunc
	waiters int
}

// NewCachedFetcher wraps next. store may be nil or disabled; the fetcher then
// only deduplicates.
func NewCachedFetcher(next Fetcher, store *cache.FileStore, endpoint string, policy Policy) *CachedFetcher {
	return &CachedFetcher{
		next:     next,
		store:    store,
		endpoint: endpoint,
		policy:   policy,
		flights:  make(map[string]*flight),
	}
}

type fetchResult struct {
	data  json.RawMessage
	stale bool
}

// Raw implements Fetcher.
func (f *CachedFetcher) Raw(ctx context.Context, op Operation, vars map[string]any) (json.RawMessage, error) {
	key, err := cache.GenerateKey(cache.KeyParams{Endpoint: f.endpoint, Operation: op.Name, Variables: vars})
	if err != nil {
		return nil, err
	}

	if f.policy == CacheFirst && f.cacheEnabled() {
		if entry, getErr := f.store.Get(key); getErr == nil {
			return entry.Data, nil
		}
	}

	shared := f.join(ctx, key)
	defer f.leave(key)
	ch := f.group.DoChan(key, func() (any, error) {
		return f.fetch(shared, key, op, vars)
	})

	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.Err != nil {
		return nil, r.Err
	}
	res, _ := r.Val.(fetchResult)

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str(logging.FieldComponent, "tavern").
		Str(logging.FieldOperation, op.Name).
		Bool("shared", r.Shared).
		Bool("stale", res.stale).
		Msg("detail fetch served")
	return res.data, nil
}

func (f *CachedFetcher) fetch(ctx context.Context, key string, op Operation, vars map[string]any) (fetchResult, error) {
	logger := logging.FromContext(ctx)

	data, err := f.next.Raw(ctx, op, vars)
	if err == nil {
		if f.cacheEnabled() {
			if setErr := f.store.Set(key, op.Name, data); setErr != nil {
				logger.Debug().
					Str(logging.FieldComponent, "tavern").
					Err(setErr).
					Msg("cache write failed")
			}
		}
		return fetchResult{data: data}, nil
	}

	// A cancelled row must not be resurrected from cache.
	if errors.Is(err, context.Canceled) || !f.cacheEnabled() {
		return fetchResult{}, err
	}
	entry, staleErr := f.store.GetStale(key)
	if staleErr != nil {
		return fetchResult{}, err
	}
	logger.Warn().
		Str(logging.FieldComponent, "tavern").
		Str(logging.FieldOperation, op.Name).
		Err(err).
		Time("stored_at", entry.StoredAt).
		Msg("request failed, serving cached response")
	return fetchResult{data: entry.Data, stale: true}, nil
}

// join registers a waiter on key and returns the context the shared request
// runs under. It keeps the caller's values but not its cancellation.
func (f *CachedFetcher) join(ctx context.Context, key string) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.flights[key]
	if !ok {
		sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{ctx: sctx, cancel: cancel}
		f.flights[key] = fl
	}
	fl.waiters++
	return fl.ctx
}

// leave drops a waiter. The last one cancels the shared request and forgets
// the key so the next caller starts a fresh one.
func (f *CachedFetcher) leave(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.flights[key]
	if !ok {
		return
	}
	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	fl.cancel()
	delete(f.flights, key)
	f.group.Forget(key)
}

func (f *CachedFetcher) cacheEnabled() bool {
	return f.store != nil && f.store.IsEnabled()
}
