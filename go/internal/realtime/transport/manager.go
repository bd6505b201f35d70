package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/feed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State is the connection state of a Manager
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed // retry pending
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Option customizes a Manager
type Option func(*Manager)

// WithClock replaces the real clock used for the retry timer and ping ticker.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// Stats are counters describing the manager's lifetime
type Stats struct {
	Attempts       uint64 `json:"attempts"`
	Opens          uint64 `json:"opens"`
	FramesReceived uint64 `json:"frames_received"`
	FramesDropped  uint64 `json:"frames_dropped"`
	Sent           uint64 `json:"sent"`
	SendsDropped   uint64 `json:"sends_dropped"`
}

// Manager owns one persistent websocket connection to one game. It connects on
// construction, reconnects after every failure and pings while open, until Dispose.
type Manager struct {
	url        string
	config     Config
	clock      clockwork.Clock
	dialer     Dialer
	dispatcher *Dispatcher
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	state  State
	conn   *websocket.Conn
	connID string

	// gorilla allows one concurrent writer
	writeMu sync.Mutex

	states feed.Feed[State]

	attempts       atomic.Uint64
	opens          atomic.Uint64
	framesReceived atomic.Uint64
	framesDropped  atomic.Uint64
	sent           atomic.Uint64
	sendsDropped   atomic.Uint64
}

// NewManager creates a manager for url and immediately starts connecting.
// Frames are routed through dispatcher, whose handlers run on the manager's
// connection goroutine one frame at a time.
func NewManager(url string, dispatcher *Dispatcher, config Config, opts ...Option) *Manager {
	config = config.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		url:        url,
		config:     config,
		clock:      clockwork.NewRealClock(),
		dispatcher: dispatcher,
		logger:     log.With().Str("url", url).Logger(),
		ctx:        ctx,
		cancel:     cancel,
		state:      StateConnecting,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.dialer == nil {
		m.dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
			ReadBufferSize:   config.ReadBufferSize,
			WriteBufferSize:  config.WriteBufferSize,
		}
	}

	// both goroutines start before returning so fake clocks see the ticker
	started := make(chan struct{})
	m.wg.Add(2)
	go m.heartbeat(started)
	go m.run()
	<-started

	return m
}

// State returns the current connection state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports whether the connection is open.
func (m *Manager) Connected() bool {
	return m.State() == StateOpen
}

// WatchState subscribes fn to state transitions.
func (m *Manager) WatchState(fn func(State)) (unsubscribe func()) {
	return m.states.Subscribe(fn)
}

// Stats returns a point-in-time copy of the counters
func (m *Manager) Stats() Stats {
	return Stats{
		Attempts:       m.attempts.Load(),
		Opens:          m.opens.Load(),
		FramesReceived: m.framesReceived.Load(),
		FramesDropped:  m.framesDropped.Load(),
		Sent:           m.sent.Load(),
		SendsDropped:   m.sendsDropped.Load(),
	}
}

// Send writes v as one JSON text frame. When the connection is not open the
// message is dropped and ErrNotOpen (or ErrDisposed) is returned; nothing is
// queued for later.
func (m *Manager) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}
	if err := m.write(data); err != nil {
		if errors.Is(err, ErrNotOpen) || errors.Is(err, ErrDisposed) {
			m.sendsDropped.Add(1)
		}
		return err
	}
	return nil
}

func (m *Manager) write(data []byte) error {
	m.mu.Lock()
	conn, state := m.conn, m.state
	m.mu.Unlock()
	if state == StateDisposed {
		return ErrDisposed
	}
	if state != StateOpen || conn == nil {
		return ErrNotOpen
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(m.config.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		// unblocks the read loop, which moves the manager to Closed
		conn.Close()
		return fmt.Errorf("write frame: %w", err)
	}
	m.sent.Add(1)
	return nil
}

// Dispose stops the ping ticker, cancels any pending retry or dial and closes
// the connection. It is safe to call more than once.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return
	}
	m.state = StateDisposed
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()
	if conn != nil {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		conn.Close()
	}

	m.states.Publish(StateDisposed)
	m.logger.Info().Msg("connection manager disposed")
}

// Wait blocks until the manager's goroutines have exited after Dispose.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run() {
	defer m.wg.Done()

	for {
		if !m.transition(StateConnecting) {
			return
		}

		conn, connID, err := m.dial()
		if err != nil {
			if m.ctx.Err() == nil {
				m.logger.Warn().Err(err).Str("connection_id", connID).Msg("websocket dial failed")
			}
		} else if m.open(conn, connID) {
			m.readLoop(conn, connID)
			m.release(conn)
		}

		if !m.transition(StateClosed) {
			return
		}

		m.logger.Info().Dur("retry_in", m.config.ReconnectDelay).Msg("websocket disconnected, scheduling reconnect")
		if !m.waitRetry() {
			return
		}
	}
}

func (m *Manager) dial() (*websocket.Conn, string, error) {
	connID := uuid.New().String()
	m.attempts.Add(1)

	ctx, cancel := context.WithTimeout(m.ctx, m.config.HandshakeTimeout)
	defer cancel()

	conn, resp, err := m.dialer.DialContext(ctx, m.url, m.config.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, connID, fmt.Errorf("dial %s: %w", m.url, err)
	}
	return conn, connID, nil
}

// open publishes the new connection unless the manager was disposed mid-dial.
func (m *Manager) open(conn *websocket.Conn, connID string) bool {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		conn.Close()
		return false
	}
	m.state = StateOpen
	m.conn = conn
	m.connID = connID
	m.mu.Unlock()

	m.opens.Add(1)
	m.logger.Info().Str("connection_id", connID).Msg("websocket connected")
	m.states.Publish(StateOpen)
	return true
}

func (m *Manager) release(conn *websocket.Conn) {
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
		m.connID = ""
	}
	m.mu.Unlock()
	conn.Close()
}

// transition moves to s unless disposed.
func (m *Manager) transition(s State) bool {
	m.mu.Lock()
	if m.state == StateDisposed {
		m.mu.Unlock()
		return false
	}
	changed := m.state != s
	m.state = s
	m.mu.Unlock()

	if changed {
		m.states.Publish(s)
	}
	return true
}

func (m *Manager) waitRetry() bool {
	timer := m.clock.NewTimer(m.config.ReconnectDelay)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-m.ctx.Done():
		return false
	}
}

func (m *Manager) readLoop(conn *websocket.Conn, connID string) {
	conn.SetReadLimit(m.config.MaxMessageSize)
	m.extendReadDeadline(conn)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if m.ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Warn().Err(err).Str("connection_id", connID).Msg("unexpected websocket close")
			}
			return
		}
		m.extendReadDeadline(conn)
		m.framesReceived.Add(1)

		if _, err := m.dispatcher.Dispatch(frame); err != nil {
			m.framesDropped.Add(1)
			m.logger.Warn().Err(err).Str("connection_id", connID).Int("size", len(frame)).Msg("dropping inbound frame")
		}
	}
}

func (m *Manager) extendReadDeadline(conn *websocket.Conn) {
	if m.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(m.config.ReadTimeout))
	}
}

// heartbeat sends a ping on every tick while open. Ticks while not
// open are skipped, never queued.
func (m *Manager) heartbeat(started chan<- struct{}) {
	defer m.wg.Done()

	ticker := m.clock.NewTicker(m.config.PingInterval)
	defer ticker.Stop()
	close(started)

	ping, _ := json.Marshal(models.NewPingMessage())
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.Chan():
			if err := m.write(ping); err != nil && !errors.Is(err, ErrNotOpen) && !errors.Is(err, ErrDisposed) {
				m.logger.Warn().Err(err).Msg("failed to send ping")
			}
		}
	}
}
