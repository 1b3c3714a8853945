// Package client implements the search-as-you-type side of the anagram service.
//
// A Controller turns keystrokes into at most one search per quiet period and
// guarantees that only the response for the latest input is ever shown.
// Every keystroke starts a new generation; timers and responses belonging to an
// older generation are dropped, and the in-flight request of the previous
// generation is cancelled.
package client

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/services"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 400 * time.Millisecond

// State is the lifecycle phase of the current query.
type State int

const (
	// Idle means the input is empty and nothing is scheduled.
	Idle State = iota
	// Pending means the debounce timer is running.
	Pending
	// InFlight means the search request has been sent.
	InFlight
	// Settled means the current query has results or an error.
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case Settled:
		return "settled"
	default:
		return "unknown"
	}
}

// View is an immutable snapshot of what a consumer should display.
type View struct {
	RawQuery   string
	State      State
	Loading    bool
	Results    []string
	Err        error // set when the latest search failed
	Generation uint64
}

func (v View) clone() View {
	results := make([]string, len(v.Results))
	copy(results, v.Results)
	v.Results = results
	return v
}

// Options configures a Controller.
type Options struct {
	Debounce time.Duration
	Clock    Clock
	Logger   *log.Logger
}

// Controller debounces queries and applies last-write-wins to their responses.
type Controller struct {
	searcher services.Searcher
	debounce time.Duration
	clock    Clock
	logger   *log.Logger

	mu         sync.Mutex
	view       View
	generation uint64
	timer      Timer
	cancel     context.CancelFunc
	closed     bool

	listeners []func(View)
	outbox    []View
	flushing  bool
}

// NewController creates a Controller that sends queries to searcher.
func NewController(searcher services.Searcher, opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("client")
	}

	return &Controller{
		searcher: searcher,
		debounce: opts.Debounce,
		clock:    opts.Clock,
		logger:   opts.Logger,
		view:     View{State: Idle, Results: []string{}},
	}
}

// State returns a snapshot of the current view.
func (c *Controller) State() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// OnChange registers fn to be called with the new view after every visible
// state change. Calls are serialized and arrive in mutation order. fn may call
// back into the Controller.
func (c *Controller) OnChange(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Type records new input. It supersedes whatever the previous input had
// scheduled or sent. Empty input clears the results immediately; anything else
// is searched once the input has been quiet for the debounce period.
func (c *Controller) Type(raw string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.supersedeLocked()
	generation := c.generation

	c.view.RawQuery = raw
	c.view.Generation = generation
	c.view.Err = nil
	if raw == "" {
		c.view.State = Idle
		c.view.Loading = false
		c.view.Results = []string{}
	} else {
		c.view.State = Pending
		c.view.Loading = true
		c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(generation) })
	}

	c.publishLocked()
	c.mu.Unlock()
	c.flush()
}

// Close stops the pending timer and cancels the in-flight request.
// Later calls to Type are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.supersedeLocked()
}

// supersedeLocked invalidates everything the current generation scheduled.
func (c *Controller) supersedeLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

func (c *Controller) fire(generation uint64) {
	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.timer = nil
	c.cancel = cancel
	raw := c.view.RawQuery
	c.view.State = InFlight

	c.publishLocked()
	c.mu.Unlock()
	c.flush()

	go c.dispatch(ctx, generation, raw)
}

func (c *Controller) dispatch(ctx context.Context, generation uint64, raw string) {
	result, err := c.searcher.Search(ctx, raw)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		c.logger.Debug("Search cancelled", "query", raw, "generation", generation)
		return
	}
	c.settle(generation, raw, result.Anagrams, err)
}

// settle applies a response if it still belongs to the current generation.
func (c *Controller) settle(generation uint64, raw string, anagrams []string, err error) {
	c.mu.Lock()
	if c.closed || generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale response", "query", raw, "generation", generation)
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	c.view.State = Settled
	c.view.Loading = false
	if err != nil {
		c.view.Results = []string{}
		c.view.Err = err
		c.logger.Error("Search failed", "query", raw, "err", err)
	} else {
		if anagrams == nil {
			anagrams = []string{}
		}
		c.view.Results = anagrams
		c.view.Err = nil
	}

	c.publishLocked()
	c.mu.Unlock()
	c.flush()
}

func (c *Controller) publishLocked() {
	if len(c.listeners) == 0 {
		return
	}
	c.outbox = append(c.outbox, c.view.clone())
}

// flush delivers queued views outside the lock. Only one goroutine delivers at
// a time; views queued meanwhile are picked up by that goroutine's loop.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return
	}
	c.flushing = true

	for len(c.outbox) > 0 {
		views := c.outbox
		c.outbox = nil
		listeners := slices.Clone(c.listeners)
		c.mu.Unlock()

		for _, v := range views {
			for _, fn := range listeners {
				fn(v)
			}
		}

		c.mu.Lock()
	}

	c.flushing = false
	c.mu.Unlock()
}
