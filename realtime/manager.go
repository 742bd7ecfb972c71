package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/medgentai/qr-code-menus-made-easy-sub004/realtime/internal"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// transport is one live session to the realtime backend.
type transport interface {
	Read(ctx context.Context, v any) error
	Write(ctx context.Context, v any) error
	Close(code websocket.StatusCode, reason string) error
}

type dialFunc func(ctx context.Context, cfg Config) (transport, error)

// Manager owns the single shared session to the realtime backend.
// Consumers acquire and release references; the underlying transport
// is dialed on the first acquire and torn down only when the
// reference count reaches zero (or on ForceDisconnect). Acquiring
// with a different token tears down and re-establishes the session
// exactly once.
type Manager struct {
	cfg    Config
	logger Logger
	bus    *Dispatcher
	rooms  *roomSet
	dial   dialFunc

	mu         sync.Mutex
	refs       int
	token      string
	session    string
	conn       transport
	connecting bool
	attempts   int
	state      ConnectionState
	cancel     context.CancelFunc
	writeCh    chan Inbound
	onState    func(StateEvent)
}

// NewManager constructs a manager with the provided config.
// Use DefaultConfig() as a starting point and modify as needed.
func NewManager(cfg Config) *Manager {
	logger := Logger(noopLogger{})
	return &Manager{
		cfg:    cfg,
		logger: logger,
		bus:    NewDispatcher(logger),
		rooms:  newRoomSet(),
		dial:   defaultDial,
	}
}

// SetLogger overrides logger (optional).
func (m *Manager) SetLogger(l Logger) {
	if l == nil {
		return
	}
	m.logger = l
	m.bus.logger = l
}

// On registers a handler for the named server event.
func (m *Manager) On(event string, fn Handler) Subscription { return m.bus.On(event, fn) }

// Off removes a previously registered handler.
func (m *Manager) Off(sub Subscription) { m.bus.Off(sub) }

// OnError registers the callback for protocol and transport errors.
func (m *Manager) OnError(fn func(error)) { m.bus.SetOnError(fn) }

// OnStateChanged registers the callback for session state transitions.
func (m *Manager) OnStateChanged(fn func(StateEvent)) {
	m.mu.Lock()
	m.onState = fn
	m.mu.Unlock()
}

// State reports the current session state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Refs reports the current consumer reference count.
func (m *Manager) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs
}

// Acquire registers a consumer and ensures the shared session exists.
// An empty token reuses the current one (falling back to cfg.Token); a
// different token forces a single teardown/reconnect cycle. Acquire
// while a connection attempt is already in flight only increments the
// reference count.
func (m *Manager) Acquire(ctx context.Context, token string) error {
	if err := m.cfg.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	if token == "" {
		token = m.token
	}
	if token == "" {
		token = m.cfg.Token
	}
	m.refs++
	if m.connecting {
		m.mu.Unlock()
		return nil
	}
	if m.conn != nil {
		if token == m.token {
			m.mu.Unlock()
			return nil
		}
		m.logger.Info("token changed, reconnecting", nil)
		m.teardownLocked(websocket.StatusNormalClosure, "token changed", true)
	}
	m.connecting = true
	m.token = token
	m.attempts = 0
	m.mu.Unlock()

	m.setState(StateConnecting, nil)
	if err := m.establish(ctx); err != nil {
		// A consumer that never got a session holds no reference,
		// otherwise a failed Start would pin the refcount above zero
		// and teardown-on-zero could never fire again.
		m.mu.Lock()
		if m.refs > 0 {
			m.refs--
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// Release drops one consumer reference. The transport is torn down
// exactly once, when the count reaches zero.
func (m *Manager) Release() {
	m.mu.Lock()
	if m.refs > 0 {
		m.refs--
	}
	if m.refs > 0 || m.conn == nil {
		m.mu.Unlock()
		return
	}
	m.teardownLocked(websocket.StatusNormalClosure, "all consumers released", false)
	m.mu.Unlock()
	m.setState(StateDisconnected, nil)
}

// ForceDisconnect tears the session down unconditionally and resets
// the reference count. Intended for process shutdown.
func (m *Manager) ForceDisconnect() {
	m.mu.Lock()
	m.refs = 0
	had := m.conn != nil
	m.teardownLocked(websocket.StatusGoingAway, "force disconnect", false)
	m.mu.Unlock()
	if had {
		m.setState(StateDisconnected, nil)
	}
}

// JoinRoom records intent to join a logical room. Unknown room types
// are dropped without being tracked. The join request is emitted at
// most once per unique (type, id) pair: immediately when the session
// is live, otherwise queued and flushed on the next ready transition.
func (m *Manager) JoinRoom(rt RoomType, id string) {
	if !rt.known() {
		m.logger.Warn("ignoring join for unknown room type", map[string]any{
			"roomType": string(rt),
			"roomId":   id,
		})
		return
	}
	r := Room{Type: rt, ID: id}
	// The liveness check and the queue/track decision must be one
	// atomic step: establish marks the session live under the same
	// lock before flushing, so a room queued here is never skipped.
	m.mu.Lock()
	emit := m.rooms.join(r, m.conn != nil)
	m.mu.Unlock()
	if emit {
		m.send(Inbound{Type: inboundJoin, Data: RoomPayload{RoomType: rt, RoomID: id}})
	}
}

// LeaveRoom emits a leave request only if the room's join was sent.
func (m *Manager) LeaveRoom(rt RoomType, id string) {
	if m.rooms.leave(Room{Type: rt, ID: id}) {
		m.send(Inbound{Type: inboundLeave, Data: RoomPayload{RoomType: rt, RoomID: id}})
	}
}

func (m *Manager) establish(ctx context.Context) error {
	var lastErr error
	for {
		t, err := m.dial(ctx, m.cfg)
		if err == nil {
			sess := uuid.NewString()
			hello := Inbound{
				Type: inboundHello,
				Data: HelloPayload{
					Protocol: ProtocolVersion,
					Token:    m.currentToken(),
					Session:  sess,
				},
			}
			if err = t.Write(ctx, hello); err != nil {
				_ = t.Close(websocket.StatusInternalError, "handshake error")
			} else {
				runCtx, cancel := context.WithCancel(context.Background())
				m.mu.Lock()
				m.conn = t
				m.session = sess
				m.cancel = cancel
				m.connecting = false
				m.attempts = 0
				m.writeCh = make(chan Inbound, m.cfg.WriteQueueSize)
				ch := m.writeCh
				m.mu.Unlock()

				m.setState(StateConnected, nil)
				go m.readLoop(runCtx, t)
				go m.writeLoop(runCtx, t, ch)
				m.flushRooms()
				return nil
			}
		}
		lastErr = err

		m.mu.Lock()
		m.attempts++
		attempt := m.attempts
		budget := m.cfg.MaxConnectAttempts
		if attempt >= budget {
			m.connecting = false
			m.mu.Unlock()
			m.logger.Error("giving up after repeated connect failures", map[string]any{
				"attempts": attempt,
				"error":    lastErr.Error(),
			})
			m.setState(StateGaveUp, lastErr)
			return WrapError(ErrorConnection, "connect retries exhausted", lastErr)
		}
		m.mu.Unlock()

		m.logger.Warn("connect attempt failed", map[string]any{
			"attempt": attempt,
			"error":   lastErr.Error(),
		})
		select {
		case <-ctx.Done():
			m.mu.Lock()
			m.connecting = false
			m.mu.Unlock()
			cause := ctx.Err()
			m.setState(StateDisconnected, cause)
			if errors.Is(cause, context.DeadlineExceeded) {
				return WrapError(ErrorTimeout, "connect deadline exceeded", cause)
			}
			return cause
		case <-time.After(m.cfg.RetryInterval):
		}
	}
}

// reconnect runs after an unexpected read-loop exit. Previously
// joined rooms are requeued and restored once the new session is
// live.
func (m *Manager) reconnect(t transport) {
	m.mu.Lock()
	if m.conn != t || m.refs == 0 || m.connecting {
		m.mu.Unlock()
		return
	}
	m.teardownLocked(websocket.StatusAbnormalClosure, "connection lost", true)
	m.connecting = true
	m.attempts = 0
	m.mu.Unlock()

	m.setState(StateReconnecting, nil)
	_ = m.establish(context.Background())
}

func (m *Manager) readLoop(ctx context.Context, t transport) {
	for {
		var out Outbound
		if err := t.Read(ctx, &out); err != nil {
			if isExpectedDisconnect(ctx, err) {
				return
			}
			m.bus.fireError(WrapError(ErrorDisconnected, "connection lost", err))
			m.logger.Warn("read loop exit", map[string]any{"error": err.Error()})
			go m.reconnect(t)
			return
		}
		m.bus.Dispatch(out)
	}
}

func (m *Manager) writeLoop(ctx context.Context, t transport, ch chan Inbound) {
	for {
		select {
		case in := <-ch:
			if err := t.Write(ctx, in); err != nil {
				m.bus.fireError(WrapError(ErrorConnection, "write failed", err))
				m.logger.Warn("write loop exit", map[string]any{"error": err.Error()})
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) flushRooms() {
	for _, r := range m.rooms.flush() {
		m.send(Inbound{Type: inboundJoin, Data: RoomPayload{RoomType: r.Type, RoomID: r.ID}})
	}
}

func (m *Manager) send(in Inbound) {
	m.mu.Lock()
	ch := m.writeCh
	m.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- in:
	default:
		m.logger.Warn("write queue full, dropping frame", map[string]any{"type": in.Type})
	}
}

func (m *Manager) currentToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// teardownLocked closes the transport and clears session state.
// Caller holds m.mu.
func (m *Manager) teardownLocked(code websocket.StatusCode, reason string, requeueRooms bool) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close(code, reason)
		m.conn = nil
	}
	m.writeCh = nil
	m.session = ""
	m.rooms.reset(requeueRooms)
}

func (m *Manager) setState(next ConnectionState, cause error) {
	m.mu.Lock()
	old := m.state
	m.state = next
	fn := m.onState
	m.mu.Unlock()
	if fn != nil && old != next {
		fn(StateEvent{OldState: old, NewState: next, Error: cause})
	}
}

func defaultDial(ctx context.Context, cfg Config) (transport, error) {
	return internal.Dial(ctx, cfg.URL, internal.Timeouts{
		Handshake: cfg.HandshakeTimeout,
		Read:      cfg.ReadTimeout,
		Write:     cfg.WriteTimeout,
	})
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
