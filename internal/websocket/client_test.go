// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/printdeck/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// setupWebSocketServer creates a test server that upgrades every request
// and hands the connection to handler.
func setupWebSocketServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)
	return server, "ws" + strings.TrimPrefix(server.URL, "http")
}

// holdOpen keeps the server side of a connection alive until the client
// goes away.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// delayRecorder replaces time.After so backoff runs instantly.
type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *delayRecorder) after(delay time.Duration) <-chan time.Time {
	d.mu.Lock()
	d.delays = append(d.delays, delay)
	d.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (d *delayRecorder) get() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.delays...)
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", c.State(), want)
}

func waitForEnvelope(t *testing.T, ch <-chan models.Envelope) models.Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for envelope")
		return models.Envelope{}
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{URL: "ws://localhost:8001"})

	if c.opts.ReconnectDelay != time.Second {
		t.Errorf("ReconnectDelay = %v, want 1s", c.opts.ReconnectDelay)
	}
	if c.opts.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", c.opts.MaxReconnectAttempts)
	}
	if c.State() != models.ConnDisconnected {
		t.Errorf("initial state = %s, want disconnected", c.State())
	}
	if c.IsConnected() {
		t.Error("new client should not be connected")
	}
}

func TestConnect_NoURL(t *testing.T) {
	c := New(Options{})
	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestConnect_ReachesConnected(t *testing.T) {
	_, url := setupWebSocketServer(t, holdOpen)

	c := New(Options{URL: url})
	var mu sync.Mutex
	var states []State
	c.OnStateChange(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	waitForState(t, c, models.ConnConnected)
	if !c.IsConnected() {
		t.Error("IsConnected = false after connect")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 2 || states[0] != models.ConnConnecting || states[len(states)-1] != models.ConnConnected {
		t.Errorf("states = %v, want connecting ... connected", states)
	}
}

func TestConnect_Idempotent(t *testing.T) {
	var dials atomic.Int32
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		dials.Add(1)
		holdOpen(conn)
	})

	c := New(Options{URL: url})
	ctx := context.Background()
	_ = c.Connect(ctx)
	_ = c.Connect(ctx)
	defer c.Disconnect()

	waitForState(t, c, models.ConnConnected)
	time.Sleep(50 * time.Millisecond)
	if got := dials.Load(); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
}

func TestReconnect_ExponentialBackoff(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		holdOpen(conn)
	}))
	defer server.Close()

	rec := &delayRecorder{}
	c := New(Options{URL: "ws" + strings.TrimPrefix(server.URL, "http")})
	c.after = rec.after

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	waitForState(t, c, models.ConnConnected)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	got := rec.get()
	if len(got) != len(want) {
		t.Fatalf("delays = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if c.Attempts() != 0 {
		t.Errorf("Attempts after open = %d, want 0", c.Attempts())
	}
}

func TestReconnect_LostAfterMaxAttempts(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rec := &delayRecorder{}
	c := New(Options{
		URL:                  "ws" + strings.TrimPrefix(server.URL, "http"),
		MaxReconnectAttempts: 3,
	})
	c.after = rec.after

	_ = c.Connect(context.Background())
	defer c.Disconnect()

	waitForState(t, c, models.ConnLost)

	if got := len(rec.get()); got != 3 {
		t.Errorf("backoff waits = %d, want 3", got)
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("dial attempts = %d, want 4 (initial + 3 retries)", got)
	}

	// Lost is terminal: no further dials without a new Connect.
	time.Sleep(50 * time.Millisecond)
	if got := requests.Load(); got != 4 {
		t.Errorf("dials after lost = %d, want 4", got)
	}
}

func TestReconnect_LostReleasesLoopContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rec := &delayRecorder{}
	c := New(Options{
		URL:                  "ws" + strings.TrimPrefix(server.URL, "http"),
		MaxReconnectAttempts: 1,
	})
	c.after = rec.after

	loops := make(chan context.Context, 1)
	c.withCancel = func(parent context.Context) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(parent)
		loops <- ctx
		return ctx, cancel
	}

	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()
	_ = c.Connect(parent)
	defer c.Disconnect()

	loopCtx := <-loops
	waitForState(t, c, models.ConnLost)

	if loopCtx.Err() == nil {
		t.Error("loop context still live after the client gave up")
	}
	if parent.Err() != nil {
		t.Error("parent context canceled by the client")
	}

	// A later Connect starts a fresh loop.
	_ = c.Connect(parent)
	select {
	case <-loops:
	case <-time.After(time.Second):
		t.Fatal("Connect after lost did not start a new loop")
	}
}

func TestReconnect_AfterServerDrop(t *testing.T) {
	var conns atomic.Int32
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		if conns.Add(1) == 1 {
			return // drop the first connection immediately
		}
		holdOpen(conn)
	})

	rec := &delayRecorder{}
	c := New(Options{URL: url})
	c.after = rec.after

	_ = c.Connect(context.Background())
	defer c.Disconnect()

	deadline := time.Now().Add(3 * time.Second)
	for conns.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	waitForState(t, c, models.ConnConnected)

	got := rec.get()
	if len(got) != 1 || got[0] != time.Second {
		t.Errorf("delays = %v, want [1s]", got)
	}
}

func TestDispatch_TypedThenWildcardInOrder(t *testing.T) {
	frames := []string{
		`{"type":"job_progress_update","payload":{"job_id":"j1","progress":10}}`,
		`{"type":"printer_status_update","payload":{"printer_id":"p1","status":"offline"}}`,
		`{"type":"job_progress_update","payload":{"job_id":"j1","progress":20}}`,
	}
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		holdOpen(conn)
	})

	c := New(Options{URL: url})

	var mu sync.Mutex
	var calls []string
	record := func(tag string) Handler {
		return func(env models.Envelope) {
			mu.Lock()
			calls = append(calls, tag+":"+env.Type)
			mu.Unlock()
		}
	}
	c.On(models.EventJobProgress, record("a"))
	c.On(models.EventJobProgress, record("b"))
	c.On(models.EventWildcard, record("w"))

	_ = c.Connect(context.Background())
	defer c.Disconnect()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(calls)
		mu.Unlock()
		if n >= 7 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := []string{
		"a:job_progress_update", "b:job_progress_update", "w:job_progress_update",
		"w:printer_status_update",
		"a:job_progress_update", "b:job_progress_update", "w:job_progress_update",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call[%d] = %s, want %s", i, calls[i], want[i])
		}
	}
}

func TestDispatch_DropsMalformedFrames(t *testing.T) {
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"payload":{}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"*"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"notification","payload":{"title":"ok"}}`))
		holdOpen(conn)
	})

	c := New(Options{URL: url})
	got := make(chan models.Envelope, 8)
	c.On(models.EventWildcard, func(env models.Envelope) { got <- env })

	_ = c.Connect(context.Background())
	defer c.Disconnect()

	env := waitForEnvelope(t, got)
	if env.Type != models.EventNotification {
		t.Errorf("first delivered type = %q, want notification", env.Type)
	}
	if c.State() != models.ConnConnected {
		t.Errorf("malformed frames should not drop the connection, state = %s", c.State())
	}
	select {
	case extra := <-got:
		t.Errorf("unexpected extra envelope %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatch_HandlerPanicIsContained(t *testing.T) {
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"system_metrics","payload":{}}`))
		holdOpen(conn)
	})

	c := New(Options{URL: url})
	got := make(chan models.Envelope, 1)
	c.On(models.EventSystemMetrics, func(models.Envelope) { panic("boom") })
	c.On(models.EventSystemMetrics, func(env models.Envelope) { got <- env })

	_ = c.Connect(context.Background())
	defer c.Disconnect()

	waitForEnvelope(t, got)
}

func TestOn_UnsubscribeIdempotent(t *testing.T) {
	c := New(Options{URL: "ws://unused"})

	off1 := c.On(models.EventJobProgress, func(models.Envelope) {})
	off2 := c.On(models.EventJobProgress, func(models.Envelope) {})
	if c.HandlerCount(models.EventJobProgress) != 2 {
		t.Fatalf("HandlerCount = %d, want 2", c.HandlerCount(models.EventJobProgress))
	}

	off1()
	off1()
	if c.HandlerCount(models.EventJobProgress) != 1 {
		t.Errorf("HandlerCount after double unsubscribe = %d, want 1", c.HandlerCount(models.EventJobProgress))
	}
	off2()
	if c.HandlerCount(models.EventJobProgress) != 0 {
		t.Errorf("HandlerCount = %d, want 0", c.HandlerCount(models.EventJobProgress))
	}
}

func TestSend_NotConnected(t *testing.T) {
	c := New(Options{URL: "ws://unused"})
	if err := c.Send(map[string]string{"type": "ping"}); err != ErrNotConnected {
		t.Errorf("Send err = %v, want ErrNotConnected", err)
	}
}

func TestSend_WritesFrame(t *testing.T) {
	received := make(chan string, 1)
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		holdOpen(conn)
	})

	c := New(Options{URL: url})
	_ = c.Connect(context.Background())
	defer c.Disconnect()
	waitForState(t, c, models.ConnConnected)

	if err := c.Send(map[string]string{"type": "subscribe"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case msg := <-received:
		if msg != `{"type":"subscribe"}` {
			t.Errorf("server got %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive frame")
	}
}

func TestDisconnect_ClearsHandlersAndStops(t *testing.T) {
	var dials atomic.Int32
	_, url := setupWebSocketServer(t, func(conn *websocket.Conn) {
		dials.Add(1)
		holdOpen(conn)
	})

	c := New(Options{URL: url})
	c.On(models.EventJobProgress, func(models.Envelope) {})
	c.OnStateChange(func(State) {})

	_ = c.Connect(context.Background())
	waitForState(t, c, models.ConnConnected)

	c.Disconnect()

	if c.State() != models.ConnDisconnected {
		t.Errorf("state = %s, want disconnected", c.State())
	}
	if c.HandlerCount(models.EventJobProgress) != 0 {
		t.Error("handlers should be cleared on disconnect")
	}
	if c.Attempts() != 0 {
		t.Errorf("Attempts = %d, want 0", c.Attempts())
	}

	time.Sleep(100 * time.Millisecond)
	if got := dials.Load(); got != 1 {
		t.Errorf("dials after disconnect = %d, want 1", got)
	}
	if c.State() != models.ConnDisconnected {
		t.Errorf("stale loop changed state to %s", c.State())
	}
}

func TestConnect_ContextCancelDisconnects(t *testing.T) {
	_, url := setupWebSocketServer(t, holdOpen)

	c := New(Options{URL: url})
	ctx, cancel := context.WithCancel(context.Background())
	_ = c.Connect(ctx)
	waitForState(t, c, models.ConnConnected)

	cancel()
	waitForState(t, c, models.ConnDisconnected)

	// A fresh Connect works after the loop has ended.
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	defer c.Disconnect()
	waitForState(t, c, models.ConnConnected)
}
