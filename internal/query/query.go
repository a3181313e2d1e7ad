// Package query caches keyed fetch results with per-call staleness,
// deduplicating concurrent fetches of the same key.
package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"markets-lab/internal/observability"
)

// StaleInfinite marks cached data as never stale.
const StaleInfinite time.Duration = -1

// FetchFunc produces the data cached under a key.
type FetchFunc func(ctx context.Context) (any, error)

// Options tunes a single Fetch call.
type Options struct {
	// ForceRefetch ignores cached data even when fresh.
	ForceRefetch bool
}

// Result is the non-blocking view of a key.
type Result struct {
	Data       any
	IsLoading  bool // no data yet and no error
	IsFetching bool
	Err        error
	UpdatedAt  time.Time
}

type entry struct {
	data      any
	hasData   bool
	err       error
	updatedAt time.Time
	fetching  int
	stale     bool
}

// ClientOptions configures a Client.
type ClientOptions struct {
	Logger *zap.Logger
	Now    func() time.Time
}

// Client is a keyed result cache.
type Client struct {
	group  singleflight.Group
	logger *zap.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewClient creates an empty Client.
func NewClient(opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		logger:  logger.Named("query"),
		now:     now,
		entries: make(map[string]*entry),
	}
}

// Key joins parts into a cache key. The first part names the query family.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

func family(key string) string {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i]
	}
	return key
}

// Fetch returns cached data for key when fresh, otherwise runs fn.
// Concurrent calls for one key share a single fn execution, which is
// detached from the caller's cancellation; ctx only bounds the wait.
// A failed fetch keeps the previous data and records the error.
func (c *Client) Fetch(ctx context.Context, key string, staleTime time.Duration, fn FetchFunc, opts Options) (any, error) {
	if !opts.ForceRefetch {
		if data, ok := c.fresh(key, staleTime); ok {
			observability.RecordCacheHit(family(key))
			return data, nil
		}
	}
	observability.RecordCacheMiss(family(key))

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		c.begin(key)
		data, err := fn(shared)
		c.finish(key, data, err)
		return data, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.logger.Debug("fetch failed", zap.String("key", key), zap.Error(res.Err))
		}
		return res.Val, res.Err
	}
}

// Snapshot reports the current state of key without fetching.
func (c *Client) Snapshot(key string) Result {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{IsLoading: true}
	}
	return Result{
		Data:       e.data,
		IsLoading:  !e.hasData && e.err == nil,
		IsFetching: e.fetching > 0,
		Err:        e.err,
		UpdatedAt:  e.updatedAt,
	}
}

// Seed stores data under key as of updatedAt when the key has no data yet.
// It reports whether data was stored.
func (c *Client) Seed(key string, data any, updatedAt time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	if e.hasData {
		return false
	}
	e.data = data
	e.hasData = true
	e.err = nil
	e.updatedAt = updatedAt
	return true
}

// Invalidate marks key stale so the next Fetch runs its fn.
// Cached data stays visible through Snapshot until replaced.
func (c *Client) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// Keys returns every key with an entry.
func (c *Client) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *Client) fresh(key string, staleTime time.Duration) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.hasData || e.stale {
		return nil, false
	}
	if staleTime == StaleInfinite {
		return e.data, true
	}
	if c.now().Sub(e.updatedAt) < staleTime {
		return e.data, true
	}
	return nil, false
}

func (c *Client) begin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.fetching++
}

func (c *Client) finish(key string, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key]
	e.fetching--
	if err != nil {
		e.err = err
		return
	}
	e.data = data
	e.hasData = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
}

// Fetch is the typed form of Client.Fetch.
func Fetch[T any](ctx context.Context, c *Client, key string, staleTime time.Duration, fn func(context.Context) (T, error), opts Options) (T, error) {
	var zero T
	data, err := c.Fetch(ctx, key, staleTime, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts)
	if err != nil {
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}

// Get is the typed form of Client.Snapshot. The zero T is returned while
// the key has no data.
func Get[T any](c *Client, key string) (T, Result) {
	res := c.Snapshot(key)
	v, _ := res.Data.(T)
	return v, res
}
