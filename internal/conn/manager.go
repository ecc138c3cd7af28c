// Package conn owns the websocket transport to the signal feed: the
// connect/reconnect state machine, heartbeat latency measurement, message
// dispatch into the store, and the simulation-mode fallback that takes over
// when reconnection is exhausted.
package conn

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"signal-core/internal/events"
	"signal-core/internal/notify"
	"signal-core/internal/sim"
	"signal-core/internal/signal"
	"signal-core/internal/store"
)

// State is the connection state machine position.
type State string

const (
	StateConnecting   State = "CONNECTING"
	StateConnected    State = "CONNECTED"
	StateDisconnected State = "DISCONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateSimulating   State = "SIMULATING"
	StateError        State = "ERROR"
)

// DefaultBackoff is the fixed reconnection schedule. Each consecutive
// disconnect advances one step; once attempts exceed its length the manager
// switches to simulation mode.
var DefaultBackoff = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
}

// Config holds the transport settings. Zero values fall back to production
// defaults; tests shrink the intervals.
type Config struct {
	URL               string
	Symbols           []string
	Backoff           []time.Duration
	HeartbeatInterval time.Duration
	DialTimeout       time.Duration
	SimPriceInterval  time.Duration
	SimSignalInterval time.Duration
	SimSignalChance   float64
}

func (c Config) withDefaults() Config {
	if len(c.Backoff) == 0 {
		c.Backoff = DefaultBackoff
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = 30 * time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.SimPriceInterval == 0 {
		c.SimPriceInterval = 1 * time.Second
	}
	if c.SimSignalInterval == 0 {
		c.SimSignalInterval = 5 * time.Second
	}
	if c.SimSignalChance == 0 {
		c.SimSignalChance = 0.3
	}
	return c
}

// Manager owns the socket exclusively. One run-loop goroutine drives the
// state machine; every dispatch into the store happens from that loop or its
// tickers, so store mutations never interleave.
type Manager struct {
	cfg    Config
	store  *store.Store
	bus    *events.Bus
	sink   notify.Sink
	prices *sim.Prices
	synth  *sim.Synthesizer

	mu          sync.RWMutex
	state       State
	attempts    int
	latency     time.Duration
	pingSentAt  time.Time
	pingPending bool

	ctx         context.Context
	cancel      context.CancelFunc
	reconnectCh chan struct{}
	done        chan struct{}
	started     bool
}

// NewManager wires the transport around the store. The sink may be nil.
func NewManager(cfg Config, st *store.Store, bus *events.Bus, sink notify.Sink, prices *sim.Prices, synth *sim.Synthesizer) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:         cfg.withDefaults(),
		store:       st,
		bus:         bus,
		sink:        sink,
		prices:      prices,
		synth:       synth,
		state:       StateDisconnected,
		ctx:         ctx,
		cancel:      cancel,
		reconnectCh: make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Start launches the run loop.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.run()
}

// Close shuts the manager down: the open transport is closed, pending
// reconnect timers are cancelled and the heartbeat and simulation tickers
// stop. No timer fires after Close returns. It is idempotent.
func (m *Manager) Close() {
	m.cancel()

	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()
	if started {
		<-m.done
	}
}

// Reconnect resets the attempt counter to zero and retries immediately,
// regardless of the current state. A live connection is cycled; simulation
// mode is abandoned in favor of a real attempt.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()

	select {
	case m.reconnectCh <- struct{}{}:
	default:
	}
}

// Status is a point-in-time view of the connection for observers.
type Status struct {
	State      State  `json:"state"`
	Attempts   int    `json:"attempts"`
	LatencyMS  int64  `json:"latency_ms"`
	Simulating bool   `json:"simulating"`
	URL        string `json:"url"`
}

// Status reports the current connection state and last measured heartbeat
// latency.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		State:      m.state,
		Attempts:   m.attempts,
		LatencyMS:  m.latency.Milliseconds(),
		Simulating: m.state == StateSimulating,
		URL:        m.cfg.URL,
	}
}

// EmitSynthetic generates one synthetic signal for the symbol and injects it
// as if it had arrived from the feed. It shares the synthesizer with
// simulation mode; this is the manual testing entry point.
func (m *Manager) EmitSynthetic(symbol string) signal.Signal {
	sig := m.synth.Generate(symbol)
	m.inject(sig)
	return sig
}

type serveReason int

const (
	reasonError serveReason = iota
	reasonManual
	reasonStopped
)

func (m *Manager) run() {
	defer close(m.done)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.setState(StateConnecting)
		ws, err := m.dial()
		if err != nil {
			log.WithError(err).Error("connect failed")
			m.setState(StateError)
			if !m.backoff() {
				m.simulate()
				if m.ctx.Err() != nil {
					return
				}
				continue
			}
			continue
		}

		m.onConnected(ws)
		reason := m.serve(ws)
		_ = ws.Close()

		switch reason {
		case reasonStopped:
			return
		case reasonManual:
			m.setState(StateDisconnected)
			continue
		default:
			m.setState(StateDisconnected)
			if !m.backoff() {
				m.simulate()
				if m.ctx.Err() != nil {
					return
				}
			}
		}
	}
}

func (m *Manager) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.DialTimeout}
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.DialTimeout)
	defer cancel()

	ws, resp, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return ws, err
}

func (m *Manager) onConnected(ws *websocket.Conn) {
	m.mu.Lock()
	m.attempts = 0
	m.pingPending = false
	m.mu.Unlock()

	m.setState(StateConnected)
	log.WithField("url", m.cfg.URL).Info("connected to signal feed")

	if len(m.cfg.Symbols) > 0 {
		if err := ws.WriteJSON(outbound{Type: "subscribe", Symbols: m.cfg.Symbols}); err != nil {
			log.WithError(err).Error("subscribe write failed")
		}
	}
}

// backoff waits out the next scheduled delay. It returns false when the
// schedule is exhausted and simulation mode should take over. A manual
// reconnect request or shutdown cuts the wait short.
func (m *Manager) backoff() bool {
	m.mu.Lock()
	m.attempts++
	n := m.attempts
	m.mu.Unlock()

	if n > len(m.cfg.Backoff) {
		return false
	}

	idx := n - 1
	if idx >= len(m.cfg.Backoff) {
		idx = len(m.cfg.Backoff) - 1
	}
	delay := m.cfg.Backoff[idx]

	m.setState(StateReconnecting)
	log.WithFields(log.Fields{"attempt": n, "delay": delay}).Info("reconnecting")

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-m.ctx.Done():
		return true // run loop observes shutdown at the top
	case <-m.reconnectCh:
		return true
	case <-timer.C:
		return true
	}
}

type frame struct {
	data []byte
	err  error
}

// serve pumps the open connection: a reader goroutine feeds frames while the
// loop multiplexes them with the heartbeat ticker, manual reconnects and
// shutdown.
func (m *Manager) serve(ws *websocket.Conn) serveReason {
	frames := make(chan frame, 32)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				select {
				case frames <- frame{err: err}:
				case <-quit:
				}
				return
			}
			select {
			case frames <- frame{data: data}:
			case <-quit:
				return
			}
		}
	}()

	hb := time.NewTicker(m.cfg.HeartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return reasonStopped
		case <-m.reconnectCh:
			log.Info("manual reconnect; cycling connection")
			return reasonManual
		case <-hb.C:
			m.sendPing(ws)
		case fr := <-frames:
			if fr.err != nil {
				log.WithError(fr.err).Error("feed read error")
				return reasonError
			}
			m.dispatch(fr.data)
		}
	}
}

func (m *Manager) sendPing(ws *websocket.Conn) {
	m.mu.Lock()
	m.pingSentAt = time.Now()
	m.pingPending = true
	m.mu.Unlock()

	if err := ws.WriteJSON(outbound{Type: "ping"}); err != nil {
		log.WithError(err).Error("ping write failed")
	}
}

// recordPong measures round-trip latency against the most recent unanswered
// ping. A pong with no ping outstanding is ignored.
func (m *Manager) recordPong(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pingPending {
		return
	}
	m.latency = at.Sub(m.pingSentAt)
	m.pingPending = false
}

// simulate runs the fallback event loop after reconnection is exhausted:
// synthetic prices every SimPriceInterval and a chance of one synthetic
// signal every SimSignalInterval. Only a manual reconnect or shutdown leaves
// this mode.
func (m *Manager) simulate() {
	m.setState(StateSimulating)
	log.Warn("reconnection exhausted; switching to simulation mode")

	priceTick := time.NewTicker(m.cfg.SimPriceInterval)
	defer priceTick.Stop()
	signalTick := time.NewTicker(m.cfg.SimSignalInterval)
	defer signalTick.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.reconnectCh:
			log.Info("manual reconnect; leaving simulation mode")
			return
		case <-priceTick.C:
			m.store.UpdatePrices(m.prices.TickAll())
		case <-signalTick.C:
			if m.synth.Chance(m.cfg.SimSignalChance) {
				m.inject(m.synth.Generate(m.synth.Pick()))
			}
		}
	}
}

func (m *Manager) inject(sig signal.Signal) {
	if m.store.Add(sig) && m.sink != nil {
		m.sink.Notify(sig)
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	attempts := m.attempts
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(events.EventConnState, Status{
			State:      s,
			Attempts:   attempts,
			URL:        m.cfg.URL,
			Simulating: s == StateSimulating,
		})
	}
}
