package service

import (
	"sync"

	"contentnode/internal/event"
)

// EventBus allows publishing and subscribing to object events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- event.ObjectEvent
	metrics     *Metrics
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- event.ObjectEvent, 0),
	}
}

// WithMetrics counts published events
func (eb *EventBus) WithMetrics(m *Metrics) *EventBus {
	eb.metrics = m
	return eb
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- event.ObjectEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- event.ObjectEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends events to all subscribers
func (eb *EventBus) Publish(events ...event.ObjectEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ev := range events {
		if eb.metrics != nil {
			eb.metrics.EventsPublished.WithLabelValues(ev.Type.String(), string(ev.Action)).Inc()
		}
		for _, ch := range eb.subscribers {
			select {
			case ch <- ev:
			default:
				// Subscriber is slow, skip
			}
		}
	}
}
