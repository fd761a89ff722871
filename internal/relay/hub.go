package relay

import (
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrClosed is returned by operations on a closed hub.
var ErrClosed = errors.New("relay: hub closed")

const defaultBuffer = 64

// Hub is the in-process relay between one game instance and its backend.
// Send publishes game traffic to outgoing subscribers, Deliver publishes
// backend traffic to incoming subscribers. Sends never block. A full
// subscriber drops control telemetry and is closed on any other message,
// so game traffic is never lost silently.
type Hub struct {
	logger *log.Logger

	mu       sync.Mutex
	demo     bool
	closed   bool
	outgoing map[*Subscription]struct{}
	incoming map[*Subscription]struct{}
	watchers []func(demo bool)
}

// NewHub creates a hub starting in the given demo mode.
func NewHub(demo bool, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		logger:   logger.WithPrefix("relay"),
		demo:     demo,
		outgoing: make(map[*Subscription]struct{}),
		incoming: make(map[*Subscription]struct{}),
	}
}

// Send publishes a message from the game.
func (h *Hub) Send(msg Message) {
	h.logger.Debug("outgoing", "type", msg.Type)
	h.publish(h.outgoing, msg)
}

// Deliver publishes a message from the backend.
func (h *Hub) Deliver(msg Message) {
	h.logger.Debug("incoming", "type", msg.Type)
	h.publish(h.incoming, msg)
}

func (h *Hub) publish(set map[*Subscription]struct{}, msg Message) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	subs := make([]*Subscription, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		switch s.offer(msg) {
		case offerDropped:
			h.logger.Warn("subscriber buffer full, dropped control message", "type", msg.Type)
		case offerOverflow:
			h.logger.Error("subscriber buffer full, closed subscription", "type", msg.Type)
		}
	}
}

// Outgoing subscribes to game traffic.
func (h *Hub) Outgoing(buffer int) (*Subscription, error) {
	return h.subscribe(h.outgoing, buffer)
}

// Incoming subscribes to backend traffic.
func (h *Hub) Incoming(buffer int) (*Subscription, error) {
	return h.subscribe(h.incoming, buffer)
}

func (h *Hub) subscribe(set map[*Subscription]struct{}, buffer int) (*Subscription, error) {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	s := &Subscription{
		ch:   make(chan Message, buffer),
		done: make(chan struct{}),
	}
	s.unsubscribe = func() {
		h.mu.Lock()
		delete(set, s)
		h.mu.Unlock()
	}
	set[s] = struct{}{}
	return s, nil
}

// Subscribers returns the number of open outgoing and incoming subscriptions.
func (h *Hub) Subscribers() (outgoing, incoming int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.outgoing), len(h.incoming)
}

// DemoMode reports whether the game resolves rounds locally.
func (h *Hub) DemoMode() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.demo
}

// SetDemoMode switches demo mode and notifies watchers on change.
func (h *Hub) SetDemoMode(demo bool) {
	h.mu.Lock()
	if h.demo == demo {
		h.mu.Unlock()
		return
	}
	h.demo = demo
	watchers := append([]func(bool){}, h.watchers...)
	h.mu.Unlock()

	h.logger.Info("demo mode changed", "demo", demo)
	for _, fn := range watchers {
		fn(demo)
	}
}

// OnDemoModeChange registers fn for demo mode changes. fn runs on the
// goroutine that changed the mode and must not block.
func (h *Hub) OnDemoModeChange(fn func(demo bool)) {
	h.mu.Lock()
	h.watchers = append(h.watchers, fn)
	h.mu.Unlock()
}

// Close closes every subscription. Later sends are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.outgoing)+len(h.incoming))
	for s := range h.outgoing {
		subs = append(subs, s)
	}
	for s := range h.incoming {
		subs = append(subs, s)
	}
	h.outgoing = make(map[*Subscription]struct{})
	h.incoming = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// Subscription is a buffered, ordered feed of messages.
type Subscription struct {
	ch          chan Message
	done        chan struct{}
	mu          sync.Mutex // serializes offers against close
	closed      bool
	unsubscribe func()
}

// C returns the message channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Done closes when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close ends the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.unsubscribe()
	s.close()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.ch)
}

type offerResult int

const (
	offerQueued offerResult = iota
	offerDropped
	offerOverflow
)

// offer enqueues msg. A full buffer drops control telemetry; any other
// message overflows the subscription, which is closed so its reader sees
// the end of the feed after draining what was queued.
func (s *Subscription) offer(msg Message) offerResult {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return offerQueued
	}
	select {
	case s.ch <- msg:
		s.mu.Unlock()
		return offerQueued
	default:
	}
	if IsControl(msg.Type) {
		s.mu.Unlock()
		return offerDropped
	}
	s.closed = true
	close(s.done)
	close(s.ch)
	s.mu.Unlock()
	s.unsubscribe()
	return offerOverflow
}
