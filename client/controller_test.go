package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-anagram-search/internal/logger"
	"github.com/gcbaptista/go-anagram-search/model"
)

const testDebounce = 400 * time.Millisecond

type reply struct {
	anagrams []string
	err      error
}

type call struct {
	ctx   context.Context
	raw   string
	reply chan reply
}

// stubSearcher hands every request to the test, which answers it through call.reply.
type stubSearcher struct {
	calls        chan *call
	ignoreCancel bool
}

func newStubSearcher() *stubSearcher {
	return &stubSearcher{calls: make(chan *call, 16)}
}

func (s *stubSearcher) Search(ctx context.Context, raw string) (model.SearchResult, error) {
	cl := &call{ctx: ctx, raw: raw, reply: make(chan reply, 1)}
	s.calls <- cl

	var r reply
	if s.ignoreCancel {
		r = <-cl.reply
	} else {
		select {
		case r = <-cl.reply:
		case <-ctx.Done():
			return model.SearchResult{}, ctx.Err()
		}
	}
	if r.err != nil {
		return model.SearchResult{}, r.err
	}
	return model.SearchResult{Anagrams: r.anagrams}, nil
}

func (s *stubSearcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case cl := <-s.calls:
		return cl
	case <-time.After(2 * time.Second):
		t.Fatal("expected a search request")
		return nil
	}
}

func (s *stubSearcher) assertNoCall(t *testing.T) {
	t.Helper()
	select {
	case cl := <-s.calls:
		t.Fatalf("unexpected search for %q", cl.raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestController(t *testing.T, searcher *stubSearcher) (*Controller, *FakeClock) {
	t.Helper()
	clock := NewFakeClock()
	c := NewController(searcher, Options{Debounce: testDebounce, Clock: clock, Logger: logger.Discard()})
	t.Cleanup(c.Close)
	return c, clock
}

func waitForView(t *testing.T, c *Controller, cond func(View) bool) View {
	t.Helper()
	require.Eventually(t, func() bool { return cond(c.State()) }, 2*time.Second, 5*time.Millisecond,
		"last view: %+v", c.State())
	return c.State()
}

func settled(v View) bool { return v.State == Settled }

func TestController_InitialState(t *testing.T) {
	c, _ := newTestController(t, newStubSearcher())

	v := c.State()
	assert.Equal(t, Idle, v.State)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Results)
	assert.NotNil(t, v.Results)
}

func TestController_EmptyInputIsIdle(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)

	c.Type("")

	v := c.State()
	assert.Equal(t, Idle, v.State)
	assert.False(t, v.Loading)
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Hour)
	searcher.assertNoCall(t)
}

func TestController_TypeStartsLoading(t *testing.T) {
	c, clock := newTestController(t, newStubSearcher())

	c.Type("l")

	v := c.State()
	assert.Equal(t, Pending, v.State)
	assert.True(t, v.Loading, "loading shows from the first keystroke")
	assert.Equal(t, "l", v.RawQuery)
	assert.Equal(t, 1, clock.Pending())
}

func TestController_DebounceCoalescesKeystrokes(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)

	for _, raw := range []string{"l", "li", "lis", "list", "liste"} {
		c.Type(raw)
		clock.Advance(testDebounce / 4)
	}
	c.Type("listen")
	assert.Equal(t, 1, clock.Pending(), "older timers are stopped")

	clock.Advance(testDebounce - time.Millisecond)
	searcher.assertNoCall(t)

	clock.Advance(time.Millisecond)
	cl := searcher.next(t)
	assert.Equal(t, "listen", cl.raw)
	assert.Equal(t, InFlight, c.State().State)

	cl.reply <- reply{anagrams: []string{"listen", "silent", "enlist"}}
	v := waitForView(t, c, settled)
	assert.Equal(t, []string{"listen", "silent", "enlist"}, v.Results)
	assert.False(t, v.Loading)
	assert.NoError(t, v.Err)

	searcher.assertNoCall(t)
}

func TestController_StaleResponseIsSuppressed(t *testing.T) {
	searcher := newStubSearcher()
	searcher.ignoreCancel = true
	c, clock := newTestController(t, searcher)

	c.Type("listen")
	clock.Advance(testDebounce)
	first := searcher.next(t)

	c.Type("tea")
	assert.ErrorIs(t, first.ctx.Err(), context.Canceled, "the superseded request is cancelled")

	clock.Advance(testDebounce)
	second := searcher.next(t)
	assert.Equal(t, "tea", second.raw)

	second.reply <- reply{anagrams: []string{"tea", "eat"}}
	waitForView(t, c, settled)

	// The first generation resolves last and must not overwrite the view.
	first.reply <- reply{anagrams: []string{"listen", "silent", "enlist"}}
	assert.Never(t, func() bool {
		v := c.State()
		return v.RawQuery != "tea" || len(v.Results) != 2
	}, 100*time.Millisecond, 5*time.Millisecond)

	v := c.State()
	assert.Equal(t, []string{"tea", "eat"}, v.Results)
	assert.Equal(t, Settled, v.State)
}

func TestController_SettleIgnoresStaleGeneration(t *testing.T) {
	c, _ := newTestController(t, newStubSearcher())

	c.Type("tea")
	stale := c.State().Generation
	c.Type("eat")

	c.settle(stale, "tea", []string{"tea", "eat"}, nil)
	c.settle(stale, "tea", nil, errors.New("boom"))

	v := c.State()
	assert.Equal(t, Pending, v.State)
	assert.True(t, v.Loading)
	assert.Empty(t, v.Results)
	assert.NoError(t, v.Err)
}

func TestController_CancelledRequestIsNotReported(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)

	c.Type("listen")
	clock.Advance(testDebounce)
	first := searcher.next(t)

	c.Type("tea")
	<-first.ctx.Done()

	assert.Never(t, func() bool {
		v := c.State()
		return v.Err != nil || !v.Loading || v.State != Pending
	}, 100*time.Millisecond, 5*time.Millisecond)

	clock.Advance(testDebounce)
	second := searcher.next(t)
	second.reply <- reply{anagrams: []string{"tea", "eat"}}

	v := waitForView(t, c, settled)
	assert.Equal(t, []string{"tea", "eat"}, v.Results)
	assert.NoError(t, v.Err)
}

func TestController_FailureSettlesWithError(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)
	boom := errors.New("boom")

	c.Type("tea")
	clock.Advance(testDebounce)
	searcher.next(t).reply <- reply{anagrams: []string{"tea", "eat"}}
	waitForView(t, c, settled)

	c.Type("eat")
	clock.Advance(testDebounce)
	searcher.next(t).reply <- reply{err: boom}

	v := waitForView(t, c, func(v View) bool { return v.State == Settled && v.RawQuery == "eat" })
	assert.ErrorIs(t, v.Err, boom)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Results)
}

func TestController_ClearingInputCancelsInFlight(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)

	c.Type("listen")
	clock.Advance(testDebounce)
	cl := searcher.next(t)

	c.Type("")

	assert.ErrorIs(t, cl.ctx.Err(), context.Canceled)
	v := c.State()
	assert.Equal(t, Idle, v.State)
	assert.False(t, v.Loading)
	assert.Empty(t, v.Results)
}

func TestController_OnChangeOrder(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)

	var mu sync.Mutex
	var states []State
	c.OnChange(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, v.State)
	})

	c.Type("tea")
	clock.Advance(testDebounce)
	searcher.next(t).reply <- reply{anagrams: []string{"tea", "eat"}}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 3
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{Pending, InFlight, Settled}, states)
}

func TestController_OnChangeMayCallBack(t *testing.T) {
	c, _ := newTestController(t, newStubSearcher())

	var seen []string
	c.OnChange(func(v View) {
		seen = append(seen, v.RawQuery)
		if v.RawQuery == "tea" {
			c.Type("")
		}
		_ = c.State()
	})

	c.Type("tea")

	assert.Equal(t, []string{"tea", ""}, seen)
	assert.Equal(t, Idle, c.State().State)
}

func TestController_ListenerAddedDuringDelivery(t *testing.T) {
	c, _ := newTestController(t, newStubSearcher())

	var first, second []string
	c.OnChange(func(v View) {
		first = append(first, v.RawQuery)
		if v.RawQuery == "tea" {
			c.OnChange(func(v View) { second = append(second, v.RawQuery) })
		}
	})

	c.Type("tea")
	c.Type("eat")

	assert.Equal(t, []string{"tea", "eat"}, first)
	assert.Equal(t, []string{"eat"}, second)
}

func TestController_Close(t *testing.T) {
	searcher := newStubSearcher()
	c, clock := newTestController(t, searcher)

	c.Type("tea")
	c.Close()
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Hour)
	searcher.assertNoCall(t)

	c.Type("eat")
	assert.Equal(t, "tea", c.State().RawQuery)
	assert.Zero(t, clock.Pending())
}

func TestController_WithHTTPSearcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("search") == "tea" {
			_, _ = w.Write([]byte(`{"anagrams":["tea","eat"]}`))
			return
		}
		_, _ = w.Write([]byte(`{"anagrams":[]}`))
	}))
	defer server.Close()

	c := NewController(NewHTTPSearcher(server.URL, time.Second), Options{
		Debounce: 10 * time.Millisecond,
		Logger:   logger.Discard(),
	})
	defer c.Close()

	c.Type("t")
	c.Type("te")
	c.Type("tea")

	v := waitForView(t, c, settled)
	assert.Equal(t, "tea", v.RawQuery)
	assert.Equal(t, []string{"tea", "eat"}, v.Results)
}
