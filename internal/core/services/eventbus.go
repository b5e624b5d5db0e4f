package services

import (
	"log/slog"
	"sync"
)

type EventType string

const (
	EventTypeAttempt EventType = "routing_attempt"
	EventTypeOutcome EventType = "routing_outcome"
)

type Event struct {
	Topic     string // request ID
	Type      EventType
	Data      string // JSON payload
	Timestamp int64
}

type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[string][]chan Event // Key: topic
	global []chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[string][]chan Event),
	}
}

// Subscribe returns a channel that receives events for one topic
func (b *EventBus) Subscribe(topic string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent blocking publisher
	b.subs[topic] = append(b.subs[topic], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[topic]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[topic] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
	}

	return ch, unsub
}

// SubscribeGlobal returns a channel that receives every event
func (b *EventBus) SubscribeGlobal() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 100)
	b.global = append(b.global, ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.global {
			if sub == ch {
				close(ch)
				b.global = append(b.global[:i], b.global[i+1:]...)
				break
			}
		}
	}

	return ch, unsub
}

// Publish sends an event to the topic's subscribers and to global subscribers
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.Topic] {
		b.deliver(ch, e)
	}
	for _, ch := range b.global {
		b.deliver(ch, e)
	}
}

func (b *EventBus) deliver(ch chan Event, e Event) {
	select {
	case ch <- e:
	default:
		// If channel is full, drop event to prevent blocking application
		b.logger.Warn("event bus channel full, dropping event", "topic", e.Topic, "type", e.Type)
	}
}
