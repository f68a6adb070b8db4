// Package events provides the in-process pub/sub bus that carries every
// debate event. The WebSocket hub forwards outbound events from the bus to
// connected clients, and the turn scheduler consumes inbound events from it,
// so client-triggered and self-scheduled turns share one dispatch path.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Type identifies an event. Values double as the wire event names sent to
// and received from WebSocket clients.
type Type string

const (
	// Outbound to clients.
	EventDebateStarted   Type = "debate_started"
	EventNewMessage      Type = "new_message"
	EventNewIntervention Type = "new_intervention"
	EventTypingStatus    Type = "typing_status"
	EventError           Type = "error"

	// Inbound from clients, and self-published by the scheduler.
	EventStartAgentTurn   Type = "start_agent_turn"
	EventUserIntervention Type = "user_intervention"
)

// Event is one bus message. Payload shapes are defined by the publisher and
// serialized as-is onto the wire.
type Event struct {
	ID        string
	Type      Type
	Source    string
	Payload   any
	Timestamp time.Time
}

// New builds an event with a fresh ID and timestamp.
func New(t Type, source string, payload any) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      t,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

type subscriber struct {
	ch     chan *Event
	closed bool
	mu     sync.Mutex
}

func (s *subscriber) trySend(e *Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- e:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// BusConfig tunes subscriber buffering and publish backpressure.
type BusConfig struct {
	BufferSize     int
	PublishTimeout time.Duration
}

// DefaultBusConfig returns defaults that absorb bursts without letting a
// stuck subscriber stall publishers.
func DefaultBusConfig() *BusConfig {
	return &BusConfig{
		BufferSize:     256,
		PublishTimeout: 10 * time.Millisecond,
	}
}

// Metrics holds delivery counters for the bus.
type Metrics struct {
	Published int64
	Delivered int64
	Dropped   int64
}

// Bus is a pub/sub fanout over event types.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]*subscriber
	all    []*subscriber
	config *BusConfig
	closed bool

	published int64
	delivered int64
	dropped   int64
}

// NewBus creates an event bus. A nil config selects defaults.
func NewBus(config *BusConfig) *Bus {
	if config == nil {
		config = DefaultBusConfig()
	}
	return &Bus{
		subs:   make(map[Type][]*subscriber),
		config: config,
	}
}

// Publish delivers the event to every matching subscriber. Delivery to a
// full subscriber buffer is abandoned after the publish timeout and counted
// as dropped.
func (b *Bus) Publish(e *Event) {
	if e == nil {
		return
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := b.subs[e.Type]
	all := b.all
	b.mu.RUnlock()

	atomic.AddInt64(&b.published, 1)

	for _, s := range subs {
		b.deliver(s, e)
	}
	for _, s := range all {
		b.deliver(s, e)
	}
}

func (b *Bus) deliver(s *subscriber, e *Event) {
	if s.trySend(e, b.config.PublishTimeout) {
		atomic.AddInt64(&b.delivered, 1)
	} else {
		atomic.AddInt64(&b.dropped, 1)
	}
}

// Subscribe returns a channel receiving events of the given types. The
// channel is closed on Unsubscribe or bus Close.
func (b *Bus) Subscribe(types ...Type) <-chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &subscriber{ch: make(chan *Event, b.config.BufferSize)}
	if b.closed {
		s.close()
		return s.ch
	}
	for _, t := range types {
		b.subs[t] = append(b.subs[t], s)
	}
	return s.ch
}

// SubscribeAll returns a channel receiving every published event.
func (b *Bus) SubscribeAll() <-chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &subscriber{ch: make(chan *Event, b.config.BufferSize)}
	if b.closed {
		s.close()
		return s.ch
	}
	b.all = append(b.all, s)
	return s.ch
}

// Unsubscribe removes the subscriber owning ch and closes it.
func (b *Bus) Unsubscribe(ch <-chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for t, subs := range b.subs {
		for i, s := range subs {
			if s.ch == ch {
				s.close()
				b.subs[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
	for i, s := range b.all {
		if s.ch == ch {
			s.close()
			b.all = append(b.all[:i], b.all[i+1:]...)
			return
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, s := range subs {
			s.close()
		}
	}
	for _, s := range b.all {
		s.close()
	}
}

// Stats returns a snapshot of delivery counters.
func (b *Bus) Stats() Metrics {
	return Metrics{
		Published: atomic.LoadInt64(&b.published),
		Delivered: atomic.LoadInt64(&b.delivered),
		Dropped:   atomic.LoadInt64(&b.dropped),
	}
}
