// Package cache keeps server state as invalidatable, per-query entries.
//
// Entries are addressed by a typed Key. Reads go through Fetch, which serves a
// fresh entry from memory and otherwise calls the supplied fetch function once
// per key no matter how many readers are waiting. Mutations call Invalidate after
// the remote write succeeds; the next Fetch then goes back to the server.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// Kind names a query type.
type Kind string

const (
	KindItemList Kind = "item_list"
	KindItem     Kind = "item"
)

// Key identifies one cached query: its kind plus the parameter that scopes it.
type Key struct {
	Kind  Kind
	Scope string
}

// ItemListKey scopes the item list to one user.
func ItemListKey(userID string) Key { return Key{Kind: KindItemList, Scope: userID} }

// ItemKey scopes a single-item read to its id. The owner is part of the scope
// because rows are only visible to their owner.
func ItemKey(userID, id string) Key { return Key{Kind: KindItem, Scope: userID + "/" + id} }

func (k Key) String() string { return string(k.Kind) + ":" + k.Scope }

// Status is the lifecycle state a reader sees.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is what a reader gets back. Data holds the last successful value even
// when Status is StatusError.
type Result[T any] struct {
	Data      T         `json:"data"`
	Err       error     `json:"-"`
	Status    Status    `json:"status"`
	Stale     bool      `json:"stale"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

type entry struct {
	value     any
	hasValue  bool
	err       error
	status    Status
	stale     bool
	gen       uint64
	storedGen uint64
	updatedAt time.Time
}

func (e *entry) fresh() bool {
	return e.status == StatusSuccess && !e.stale
}

// Client is the cache. The zero value is not usable; call New.
type Client struct {
	mu      sync.Mutex
	entries map[Key]*entry
	subs    map[Key]map[int]func(Key)
	nextSub int

	group singleflight.Group
	now   func() time.Time

	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// New creates a Client and registers its counters with reg. A nil reg leaves the
// counters unregistered.
func New(reg prometheus.Registerer) *Client {
	f := promauto.With(reg)
	return &Client{
		entries: make(map[Key]*entry),
		subs:    make(map[Key]map[int]func(Key)),
		now:     time.Now,
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_cache_hits_total",
			Help: "Reads served from a fresh cache entry.",
		}, []string{"kind"}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_cache_misses_total",
			Help: "Reads that went to the remote store.",
		}, []string{"kind"}),
		invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_cache_invalidations_total",
			Help: "Entries moved from fresh to stale.",
		}, []string{"kind"}),
	}
}

// Fetch returns the entry for key, calling fetch when it is missing, stale or
// failed. Concurrent fetches of one key share a single call. A value that arrives
// after the key was invalidated is stored but stays stale, and never replaces a
// value from a flight started after the invalidation.
func Fetch[T any](ctx context.Context, c *Client, key Key, fetch func(context.Context) (T, error)) Result[T] {
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.fresh() {
		res := snapshot[T](e)
		c.mu.Unlock()
		c.hits.WithLabelValues(string(key.Kind)).Inc()
		return res
	}
	c.mu.Unlock()
	c.misses.WithLabelValues(string(key.Kind)).Inc()

	_, _, _ = c.group.Do(key.String(), func() (any, error) {
		c.mu.Lock()
		gen := e.gen
		e.status = StatusLoading
		c.mu.Unlock()

		v, err := fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen < e.storedGen {
			return nil, err
		}
		e.storedGen = gen
		if err != nil {
			e.err = err
			e.status = StatusError
			return nil, err
		}
		e.value, e.hasValue, e.err = v, true, nil
		e.status = StatusSuccess
		e.updatedAt = c.now()
		if e.gen == gen {
			e.stale = false
		}
		return v, nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot[T](e)
}

// Peek reports the entry for key without fetching.
func Peek[T any](c *Client, key Key) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	return snapshot[T](e)
}

func snapshot[T any](e *entry) Result[T] {
	res := Result[T]{
		Err:       e.err,
		Status:    e.status,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}
	if e.hasValue {
		res.Data, _ = e.value.(T)
	}
	return res
}

func (c *Client) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{status: StatusIdle}
		c.entries[key] = e
	}
	return e
}

// Invalidate marks key stale. Invalidating a stale or unknown key is a no-op
// beyond cancelling the freshness of any fetch still in flight. Readers arriving
// after Invalidate start a new fetch instead of joining the one in flight.
func (c *Client) Invalidate(key Key) {
	c.invalidate(func(k Key) bool { return k == key })
}

// InvalidateAll marks every entry stale.
func (c *Client) InvalidateAll() {
	c.invalidate(func(Key) bool { return true })
}

func (c *Client) invalidate(match func(Key) bool) {
	var notify []func()

	c.mu.Lock()
	for key, e := range c.entries {
		if !match(key) {
			continue
		}
		e.gen++
		c.group.Forget(key.String())
		wasFresh := e.fresh()
		e.stale = true
		if !wasFresh {
			continue
		}
		c.invalidations.WithLabelValues(string(key.Kind)).Inc()
		for _, fn := range c.subs[key] {
			fn, key := fn, key
			notify = append(notify, func() { fn(key) })
		}
	}
	c.mu.Unlock()

	for _, n := range notify {
		n()
	}
}

// Subscribe calls fn whenever key goes from fresh to stale. The returned func
// removes the subscription.
func (c *Client) Subscribe(key Key, fn func(Key)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	if c.subs[key] == nil {
		c.subs[key] = make(map[int]func(Key))
	}
	c.subs[key][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[key], id)
		if len(c.subs[key]) == 0 {
			delete(c.subs, key)
		}
	}
}
