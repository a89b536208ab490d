// Package garage tracks keys written to a datastore, stamps each with its
// insertion time and evicts them by age or by an explicit blacklist.
//
// The tracking index is a JSON object of key to insertion time in Unix
// milliseconds, stored in the same datastore under a reserved key. The
// datastore is the source of truth: the index is persisted only after the
// store mutation it describes succeeded, and it is reloaded before every
// expiration sweep.
package garage

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/UltraSive/garage/internal/datastore"
)

const (
	DefaultIndexKey       = "GARAGEITEMS"
	DefaultExpirationDays = 7

	dayMillis = int64(24 * time.Hour / time.Millisecond)
)

type Garage struct {
	facade   *Facade
	indexKey string
	now      func() time.Time
	logger   log.Logger

	mu        sync.Mutex
	index     map[string]int64
	days      int
	blacklist []string

	subMu     sync.Mutex
	subs      []subscription
	nextSubID int
}

type Option func(*Garage)

func WithIndexKey(key string) Option {
	return func(g *Garage) { g.indexKey = key }
}

func WithExpirationDays(days int) Option {
	return func(g *Garage) { g.days = days }
}

// WithBlacklist sets the initial blacklist used by Clean.
func WithBlacklist(keys ...string) Option {
	return func(g *Garage) { g.blacklist = append([]string(nil), keys...) }
}

func WithClock(now func() time.Time) Option {
	return func(g *Garage) { g.now = now }
}

func WithLogger(logger log.Logger) Option {
	return func(g *Garage) { g.logger = logger }
}

// New binds a Garage to ds and makes sure the index key exists.
func New(ds datastore.Datastore, opts ...Option) (*Garage, error) {
	g := &Garage{
		facade:   NewFacade(ds),
		indexKey: DefaultIndexKey,
		days:     DefaultExpirationDays,
		now:      time.Now,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.indexKey == "" {
		return nil, fmt.Errorf("index key is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.setupIndex(); err != nil {
		return nil, err
	}
	return g, nil
}

// Facade exposes the untracked pass-through operations.
func (g *Garage) Facade() *Facade { return g.facade }

func (g *Garage) IndexKey() string { return g.indexKey }

func (g *Garage) Get(key string) (string, bool, error) {
	return g.facade.Get(key)
}

func (g *Garage) GetJSON(key string) (any, error) {
	return g.facade.GetJSON(key)
}

func (g *Garage) DecodeJSON(key string, out any) error {
	return g.facade.DecodeJSON(key, out)
}

// Add stores value under key and records the insertion time in the index.
// The index is left untouched when the store rejects the value.
func (g *Garage) Add(key string, value any) error {
	g.mu.Lock()
	err := g.add(key, value)
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.emit([]Event{{Name: EventAdd, Key: key}})
	return nil
}

func (g *Garage) add(key string, value any) error {
	if key == g.indexKey {
		return fmt.Errorf("add %q: %w", key, ErrReservedKey)
	}
	if err := g.facade.Set(key, value); err != nil {
		return err
	}

	prev, had := g.index[key]
	g.index[key] = g.now().UnixMilli()
	if err := g.persistIndex(); err != nil {
		if had {
			g.index[key] = prev
		} else {
			delete(g.index, key)
		}
		return err
	}
	return nil
}

// Remove deletes key from the store and from the index. Removing a key that
// does not exist is not an error.
func (g *Garage) Remove(key string) error {
	g.mu.Lock()
	err := g.remove(key)
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.emit([]Event{{Name: EventRemove, Key: key}})
	return nil
}

func (g *Garage) remove(key string) error {
	if key == g.indexKey {
		return fmt.Errorf("remove %q: %w", key, ErrReservedKey)
	}
	if err := g.facade.Remove(key); err != nil {
		return err
	}

	ts, ok := g.index[key]
	if !ok {
		return nil
	}
	delete(g.index, key)
	if err := g.persistIndex(); err != nil {
		g.index[key] = ts
		return err
	}
	return nil
}

// Refresh reloads the in-memory index from the datastore.
func (g *Garage) Refresh() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadIndex()
}

// Expire removes every tracked entry inserted before now minus the
// expiration window and returns the removed keys in sorted order. An entry
// stamped exactly at the cutoff is kept.
func (g *Garage) Expire(now time.Time) ([]string, error) {
	g.mu.Lock()
	removed, err := g.expire(now)
	g.mu.Unlock()

	events := make([]Event, len(removed))
	for i, k := range removed {
		events[i] = Event{Name: EventRemove, Key: k}
	}
	g.emit(events)
	return removed, err
}

func (g *Garage) expire(now time.Time) ([]string, error) {
	if err := g.loadIndex(); err != nil {
		return nil, err
	}
	cutoff := cutoffMillis(now, g.days)

	keys := make([]string, 0, len(g.index))
	for k := range g.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var removed []string
	for _, k := range keys {
		ts, ok := g.index[k]
		if !ok || ts >= cutoff {
			continue
		}
		if err := g.remove(k); err != nil {
			return removed, fmt.Errorf("expire %q: %w", k, err)
		}
		removed = append(removed, k)
	}

	level.Debug(g.logger).Log("msg", "expired entries", "removed", len(removed), "tracked", len(g.index), "cutoff", cutoff)
	return removed, nil
}

// cutoffMillis returns now minus days, saturating at the int64 bounds.
func cutoffMillis(now time.Time, days int) int64 {
	ms := now.UnixMilli()
	d := int64(days)
	switch {
	case d > maxDays:
		return math.MinInt64
	case d < -maxDays:
		return math.MaxInt64
	}
	window := d * dayMillis
	if window > 0 && ms < math.MinInt64+window {
		return math.MinInt64
	}
	if window < 0 && ms > math.MaxInt64+window {
		return math.MaxInt64
	}
	return ms - window
}

// Clear deletes every key in the datastore, tracked or not, and starts a new
// empty index.
func (g *Garage) Clear() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clear()
}

func (g *Garage) clear() error {
	if err := g.facade.Clear(); err != nil {
		return err
	}
	return g.setupIndex()
}

// Clean removes the blacklisted keys, or everything when no blacklist is set.
// Blacklisted keys missing from the store are skipped.
func (g *Garage) Clean() error {
	g.mu.Lock()
	if len(g.blacklist) == 0 {
		defer g.mu.Unlock()
		return g.clear()
	}

	var (
		events []Event
		err    error
	)
	for _, k := range g.blacklist {
		if k == g.indexKey {
			continue
		}
		var present bool
		if _, present, err = g.facade.Get(k); err != nil {
			break
		}
		if _, tracked := g.index[k]; !present && !tracked {
			continue
		}
		if err = g.remove(k); err != nil {
			break
		}
		events = append(events, Event{Name: EventRemove, Key: k})
	}
	g.mu.Unlock()

	g.emit(events)
	return err
}

// Index returns a copy of the in-memory index.
func (g *Garage) Index() map[string]int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]int64, len(g.index))
	for k, v := range g.index {
		out[k] = v
	}
	return out
}

// Keys returns the tracked keys in sorted order.
func (g *Garage) Keys() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.index))
	for k := range g.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (g *Garage) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.index)
}

// setupIndex writes an empty index when none exists, then loads it. It goes
// straight to the datastore so no add event is emitted.
func (g *Garage) setupIndex() error {
	_, ok, err := g.facade.Get(g.indexKey)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	if !ok {
		if err := g.facade.Set(g.indexKey, "{}"); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return g.loadIndex()
}

func (g *Garage) loadIndex() error {
	raw, ok, err := g.facade.Get(g.indexKey)
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}
	if !ok {
		// cleared behind our back
		level.Debug(g.logger).Log("msg", "index missing, recreating", "key", g.indexKey)
		if err := g.facade.Set(g.indexKey, "{}"); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		g.index = make(map[string]int64)
		return nil
	}

	var idx map[string]int64
	if err := json.Unmarshal([]byte(raw), &idx); err != nil {
		return &ParseError{Key: g.indexKey, Err: err}
	}
	if idx == nil {
		idx = make(map[string]int64)
	}
	delete(idx, g.indexKey)
	g.index = idx
	return nil
}

func (g *Garage) persistIndex() error {
	b, err := json.Marshal(g.index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return g.facade.Set(g.indexKey, string(b))
}
