// Package dashboard owns the snapshot lifecycle for one selected location:
// fetch on selection change, fixed-interval auto-refresh, connectivity
// handling and the last-known-snapshot store. State is exclusively owned by
// the controller and exposed only as copied views.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/citypulse/citypulse/internal/citydata"
)

const (
	// DefaultInterval is the auto-refresh period.
	DefaultInterval = 30 * time.Second

	// DefaultCacheSize bounds the last-known-snapshot store.
	DefaultCacheSize = 16
)

// Fetcher fetches dashboard snapshots.
type Fetcher interface {
	Dashboard(ctx context.Context, state, city string) (*citydata.Snapshot, error)
}

// Config holds configuration for the controller.
type Config struct {
	// Fetcher retrieves snapshots (required).
	Fetcher Fetcher

	// Interval is the auto-refresh period (optional, defaults to 30s).
	Interval time.Duration

	// RequestTimeout bounds each snapshot fetch (optional, defaults to 30s).
	RequestTimeout time.Duration

	// CacheSize bounds the per-location last-known-snapshot store
	// (optional, defaults to 16).
	CacheSize int

	// OnUpdate, if set, is called with a fresh view after every state
	// change. Views are delivered from a single goroutine in the order the
	// state changes were applied, without internal locks held.
	OnUpdate func(View)

	// Logger for controller events.
	Logger zerolog.Logger
}

// View is a copied, read-only look at the controller state.
type View struct {
	State    string
	City     string
	Snapshot *citydata.Snapshot
	// Stale is true when Snapshot comes from the last-known store rather
	// than a successful fetch for the current selection.
	Stale     bool
	Loading   bool
	Err       error
	Online    bool
	FetchedAt time.Time
}

// Controller orchestrates snapshot fetching for the selected location.
type Controller struct {
	fetcher  Fetcher
	logger   zerolog.Logger
	interval time.Duration
	timeout  time.Duration
	onUpdate func(View)

	// seq tags every fetch; a response is applied only when its tag is
	// still the latest issued, so a slow older response can never
	// overwrite a newer one.
	seq atomic.Uint64

	mu          sync.Mutex
	state       string
	city        string
	snapshot    *citydata.Snapshot
	stale       bool
	loading     bool
	lastErr     error
	online      bool
	autoRefresh bool
	fetchedAt   time.Time
	cache       *lru.Cache
	stopTicker  chan struct{}
	closed      bool

	// emitQueue holds views pending delivery, appended under mu so the
	// queue order matches the order state changes were applied. A single
	// emitter goroutine drains it, so OnUpdate never sees an older view
	// after a newer one.
	emitQueue []View
	emitWake  chan struct{}
	emitDone  chan struct{}
}

// New creates a controller.
func New(cfg Config) *Controller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New(cacheSize)

	c := &Controller{
		fetcher:  cfg.Fetcher,
		logger:   cfg.Logger,
		interval: interval,
		timeout:  timeout,
		onUpdate: cfg.OnUpdate,
		online:   true,
		cache:    cache,
		emitWake: make(chan struct{}, 1),
		emitDone: make(chan struct{}),
	}
	if c.onUpdate != nil {
		go c.runEmitter()
	}
	return c
}

// SetLocation switches the controller to a new location and fetches a fresh
// snapshot. The previous snapshot is dropped immediately; a last-known
// snapshot for the new location, if cached, is shown as stale until the
// fetch completes.
func (c *Controller) SetLocation(state, city string) {
	c.mu.Lock()
	c.state = state
	c.city = city
	c.snapshot = nil
	c.stale = false
	c.lastErr = nil
	c.loading = true
	if cached, ok := c.cache.Get(locationKey(state, city)); ok {
		c.snapshot = cached.(*citydata.Snapshot)
		c.stale = true
	}
	c.restartTickerLocked()
	c.queueUpdateLocked()
	c.mu.Unlock()

	go c.fetch()
}

// SetAutoRefresh enables or disables the recurring fetch. Disabling stops
// future ticks but never cancels a fetch already in flight.
func (c *Controller) SetAutoRefresh(enabled bool) {
	c.mu.Lock()
	c.autoRefresh = enabled
	c.restartTickerLocked()
	c.mu.Unlock()
}

// SetOnline records a connectivity transition. Going offline only flips the
// display flag; coming back online fetches, but only when no snapshot is
// currently held.
func (c *Controller) SetOnline(online bool) {
	c.mu.Lock()
	c.online = online
	fetchNeeded := online && c.snapshot == nil && c.state != "" && c.city != ""
	c.queueUpdateLocked()
	c.mu.Unlock()

	if fetchNeeded {
		go c.fetch()
	}
}

// Refresh fetches a fresh snapshot for the current location, blocking until
// the response is applied or dropped. It backs the manual retry action.
func (c *Controller) Refresh() {
	c.fetch()
}

// View returns a copy of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close stops the auto-refresh ticker. In-flight fetches are not canceled;
// their responses are dropped by the sequence guard if they lose the race.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.emitDone)
	if c.stopTicker != nil {
		close(c.stopTicker)
		c.stopTicker = nil
	}
}

func (c *Controller) fetch() {
	c.mu.Lock()
	state, city := c.state, c.city
	c.mu.Unlock()
	if state == "" || city == "" {
		return
	}

	seq := c.seq.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	snap, err := c.fetcher.Dashboard(ctx, state, city)

	c.mu.Lock()
	if seq != c.seq.Load() || state != c.state || city != c.city {
		c.mu.Unlock()
		c.logger.Debug().
			Str("state", state).
			Str("city", city).
			Msg("dropping stale snapshot response")
		return
	}

	c.loading = false
	if err != nil {
		c.lastErr = err
		if c.snapshot == nil {
			if cached, ok := c.cache.Get(locationKey(state, city)); ok {
				c.snapshot = cached.(*citydata.Snapshot)
				c.stale = true
			}
		}
	} else {
		c.snapshot = snap
		c.stale = false
		c.lastErr = nil
		c.fetchedAt = time.Now()
		c.cache.Add(locationKey(state, city), snap)
	}
	c.queueUpdateLocked()
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Str("city", city).Msg("snapshot fetch failed")
	}
}

// restartTickerLocked tears down and, when auto-refresh is on and a location
// is selected, recreates the interval ticker. Callers must hold the mutex.
func (c *Controller) restartTickerLocked() {
	if c.stopTicker != nil {
		close(c.stopTicker)
		c.stopTicker = nil
	}
	if c.closed || !c.autoRefresh || c.state == "" || c.city == "" {
		return
	}
	stop := make(chan struct{})
	c.stopTicker = stop
	go c.runTicker(stop)
}

func (c *Controller) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.fetch()
		}
	}
}

func (c *Controller) viewLocked() View {
	return View{
		State:     c.state,
		City:      c.city,
		Snapshot:  c.snapshot,
		Stale:     c.stale,
		Loading:   c.loading,
		Err:       c.lastErr,
		Online:    c.online,
		FetchedAt: c.fetchedAt,
	}
}

// queueUpdateLocked appends the current view for the emitter goroutine.
// Callers must hold the mutex.
func (c *Controller) queueUpdateLocked() {
	if c.onUpdate == nil || c.closed {
		return
	}
	c.emitQueue = append(c.emitQueue, c.viewLocked())
	select {
	case c.emitWake <- struct{}{}:
	default:
	}
}

// runEmitter delivers queued views to OnUpdate one at a time, preserving the
// order they were applied in.
func (c *Controller) runEmitter() {
	for {
		select {
		case <-c.emitDone:
			return
		case <-c.emitWake:
		}
		for {
			c.mu.Lock()
			queue := c.emitQueue
			c.emitQueue = nil
			c.mu.Unlock()
			if len(queue) == 0 {
				break
			}
			for _, v := range queue {
				c.onUpdate(v)
			}
		}
	}
}

func locationKey(state, city string) string {
	return state + "/" + city
}
