// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/printdeck/internal/logging"
	"github.com/tomtom215/printdeck/internal/metrics"
	"github.com/tomtom215/printdeck/internal/models"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// ErrNotConnected is returned by Send when the channel is not open.
var ErrNotConnected = errors.New("websocket: not connected")

// State is the connection state.
type State = models.ConnectionState

// Handler receives one decoded frame.
type Handler func(env models.Envelope)

// StateListener receives every state transition.
type StateListener func(state State)

// Unsubscribe removes a registration. Calling it more than once is a no-op.
type Unsubscribe func()

// Options configures a Client. Zero fields take the defaults noted.
type Options struct {
	URL string

	// ReconnectDelay is the backoff base. Default 1s.
	ReconnectDelay time.Duration
	// MaxReconnectAttempts caps consecutive failed attempts. Default 5.
	MaxReconnectAttempts int

	// HandshakeTimeout default 10s, PingInterval default 30s,
	// ReadTimeout default 90s.
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	ReadTimeout      time.Duration
}

func (o *Options) applyDefaults() {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = 5
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = 10 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 90 * time.Second
	}
}

type handlerEntry struct {
	id uint64
	fn Handler
}

type listenerEntry struct {
	id uint64
	fn StateListener
}

// Client is a reconnecting push channel with a typed handler registry.
type Client struct {
	opts   Options
	dialer *websocket.Dialer
	log    logging.Logger

	// after is time.After, replaceable in tests.
	after func(time.Duration) <-chan time.Time

	// withCancel derives the loop context; tests wrap it to watch the loop.
	withCancel func(context.Context) (context.Context, context.CancelFunc)

	mu        sync.Mutex
	conn      *websocket.Conn
	state     State
	attempts  int
	gen       uint64
	cancel    context.CancelFunc
	handlers  map[string][]handlerEntry
	listeners []listenerEntry
	nextID    uint64

	// writeMu serialises data frames; gorilla allows one concurrent writer.
	writeMu sync.Mutex
}

// New creates a disconnected client.
func New(opts Options) *Client {
	opts.applyDefaults()
	return &Client{
		opts: opts,
		dialer: &websocket.Dialer{
			HandshakeTimeout:  opts.HandshakeTimeout,
			EnableCompression: true,
		},
		log:        logging.Component("transport"),
		after:      time.After,
		withCancel: context.WithCancel,
		state:      models.ConnDisconnected,
		handlers:   make(map[string][]handlerEntry),
	}
}

// URL returns the endpoint the client dials.
func (c *Client) URL() string {
	return c.opts.URL
}

// Connect starts the connection loop. It returns immediately; progress is
// reported through state listeners. Calling Connect while a loop is already
// running is a no-op. The loop stops when ctx is canceled or Disconnect is
// called.
func (c *Client) Connect(ctx context.Context) error {
	if c.opts.URL == "" {
		return fmt.Errorf("websocket: no URL configured")
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	loopCtx, cancel := c.withCancel(ctx)
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.attempts = 0
	c.mu.Unlock()

	go c.run(loopCtx, gen)
	return nil
}

// Disconnect closes the connection, stops reconnecting, resets the attempt
// counter and removes every handler and state listener.
func (c *Client) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.cancel = nil
	c.conn = nil
	c.gen++
	c.attempts = 0
	c.handlers = make(map[string][]handlerEntry)
	c.listeners = nil
	c.state = models.ConnDisconnected
	c.mu.Unlock()

	metrics.WSConnectionState.Set(stateToFloat(models.ConnDisconnected))

	if conn != nil {
		closeConn(conn)
	}
	if cancel != nil {
		cancel()
	}
}

// On registers fn for eventType, or for every event when eventType is "*".
func (c *Client) On(eventType string, fn Handler) Unsubscribe {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.handlers[eventType] = append(c.handlers[eventType], handlerEntry{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			entries := c.handlers[eventType]
			for i, e := range entries {
				if e.id == id {
					c.handlers[eventType] = append(entries[:i:i], entries[i+1:]...)
					break
				}
			}
			if len(c.handlers[eventType]) == 0 {
				delete(c.handlers, eventType)
			}
		})
	}
}

// OnStateChange registers a state listener.
func (c *Client) OnStateChange(fn StateListener) Unsubscribe {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// HandlerCount returns the number of registered handlers for eventType.
func (c *Client) HandlerCount(eventType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers[eventType])
}

// Send marshals v and writes it as one text frame. It never queues: when
// the channel is not open the frame is dropped and ErrNotConnected returned.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == models.ConnConnected
	c.mu.Unlock()

	if conn == nil || !connected {
		metrics.WSDroppedSends.Inc()
		c.log.Warn().Msg("send dropped: channel not open")
		return ErrNotConnected
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("websocket: encode frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("websocket: set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("websocket: write: %w", err)
	}
	return nil
}

// IsConnected reports whether the channel is open.
func (c *Client) IsConnected() bool {
	return c.State() == models.ConnConnected
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns the number of consecutive failed connection attempts.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// run is the connection loop for one Connect call. gen identifies it so
// that a loop outliving Disconnect cannot touch newer state.
func (c *Client) run(ctx context.Context, gen uint64) {
	dialState := models.ConnConnecting
	for {
		c.setState(gen, dialState)
		dialState = models.ConnReconnecting

		conn, err := c.dial(ctx)
		if err == nil {
			if !c.attach(gen, conn) {
				closeConn(conn)
				return
			}
			c.setState(gen, models.ConnConnected)
			c.log.Info().Str("url", c.opts.URL).Msg("connected")

			err = c.serve(ctx, conn)
			c.detach(gen, conn)
		}

		if ctx.Err() != nil {
			c.finish(gen, models.ConnDisconnected)
			return
		}

		delay, ok := c.nextDelay(gen)
		if !ok {
			c.log.Warn().
				Err(err).
				Int("attempts", c.opts.MaxReconnectAttempts).
				Msg("reconnect attempts exhausted, connection lost")
			c.finish(gen, models.ConnLost)
			return
		}

		metrics.WSReconnects.Inc()
		c.setState(gen, models.ConnReconnecting)
		c.log.Info().Err(err).Dur("delay", delay).Msg("connection dropped, reconnecting")

		select {
		case <-c.after(delay):
		case <-ctx.Done():
			c.finish(gen, models.ConnDisconnected)
			return
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.opts.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// attach installs conn and resets the attempt counter. It returns false if
// the loop is stale.
func (c *Client) attach(gen uint64, conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.conn = conn
	c.attempts = 0
	return true
}

func (c *Client) detach(gen uint64, conn *websocket.Conn) {
	c.mu.Lock()
	if c.gen == gen && c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}

// nextDelay consumes one reconnect attempt and returns its backoff.
func (c *Client) nextDelay(gen uint64) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.attempts >= c.opts.MaxReconnectAttempts {
		return 0, false
	}
	delay := c.opts.ReconnectDelay << c.attempts
	c.attempts++
	return delay, true
}

// finish ends a loop: its context is released, the final state is
// published and the client is ready for another Connect.
func (c *Client) finish(gen uint64, final State) {
	var cancel context.CancelFunc
	c.mu.Lock()
	if c.gen == gen {
		cancel = c.cancel
		c.cancel = nil
	}
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.setState(gen, final)
}

// serve reads frames until the connection fails or ctx ends.
func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	})

	stop := context.AfterFunc(ctx, func() { closeConn(conn) })
	defer stop()

	pingDone := make(chan struct{})
	defer close(pingDone)
	go c.pingLoop(conn, pingDone)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Info().Msg("server closed connection")
			} else if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("read error")
			}
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		c.dispatch(data)
	}
}

// pingLoop keeps the connection alive. A failed ping closes the connection,
// which makes serve return and the reconnect policy take over.
func (c *Client) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.log.Warn().Err(err).Msg("ping failed")
				_ = conn.Close()
				return
			}
		}
	}
}

// dispatch decodes one frame and runs its handlers.
func (c *Client) dispatch(data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.WSDecodeErrors.Inc()
		c.log.Debug().Err(err).Int("bytes", len(data)).Msg("dropping malformed frame")
		return
	}
	if env.Type == "" || env.Type == models.EventWildcard {
		metrics.WSDecodeErrors.Inc()
		c.log.Debug().Str("type", env.Type).Msg("dropping frame without usable type")
		return
	}
	metrics.WSMessages.WithLabelValues(typeLabel(env.Type)).Inc()

	c.mu.Lock()
	typed := append([]handlerEntry(nil), c.handlers[env.Type]...)
	wild := append([]handlerEntry(nil), c.handlers[models.EventWildcard]...)
	c.mu.Unlock()

	for _, h := range typed {
		c.invoke(h, env)
	}
	for _, h := range wild {
		c.invoke(h, env)
	}
}

func (c *Client) invoke(h handlerEntry, env models.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("type", env.Type).Msg("event handler panicked")
		}
	}()
	h.fn(env)
}

func (c *Client) setState(gen uint64, s State) {
	c.mu.Lock()
	if c.gen != gen || c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	listeners := append([]listenerEntry(nil), c.listeners...)
	c.mu.Unlock()

	metrics.WSConnectionState.Set(stateToFloat(s))
	for _, l := range listeners {
		l.fn(s)
	}
}

// closeConn sends a normal close frame and closes the socket.
func closeConn(conn *websocket.Conn) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	_ = conn.Close()
}

func typeLabel(t string) string {
	switch t {
	case models.EventPrinterStatus, models.EventJobProgress, models.EventSystemMetrics, models.EventNotification:
		return t
	default:
		return "other"
	}
}

func stateToFloat(s State) float64 {
	switch s {
	case models.ConnConnecting:
		return 1
	case models.ConnConnected:
		return 2
	case models.ConnReconnecting:
		return 3
	case models.ConnLost:
		return 4
	default:
		return 0
	}
}
