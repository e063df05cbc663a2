package events

import (
	"context"
	"sync"

	"chesswager/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeWagerSettled          EventType = "wager_settled"
	EventTypeWagerAnomaly          EventType = "wager_anomaly"
	EventTypeNotificationRequested EventType = "notification_requested"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// WagerSettledEvent represents a wager that was settled with a decisive or drawn outcome
type WagerSettledEvent struct {
	WagerID     int64              `json:"wager_id"`
	Outcome     models.Outcome     `json:"outcome"`
	FinalStatus models.WagerStatus `json:"final_status"`
	Link        string             `json:"link"`
	Stake       int64              `json:"stake"`
	Currency    string             `json:"currency"`
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// AnomalyReason explains why a wager was forced into anomaly
type AnomalyReason string

const (
	AnomalyReasonDisputed          AnomalyReason = "disputed"
	AnomalyReasonUnresolvable      AnomalyReason = "unresolvable"
	AnomalyReasonMissingLink       AnomalyReason = "missing_link"
	AnomalyReasonInsufficientFunds AnomalyReason = "insufficient_funds"
)

// WagerAnomalyEvent represents a wager that needs manual review
type WagerAnomalyEvent struct {
	WagerID int64         `json:"wager_id"`
	Reason  AnomalyReason `json:"reason"`
	Link    string        `json:"link,omitempty"`
}

func (e WagerAnomalyEvent) Type() EventType {
	return EventTypeWagerAnomaly
}

// NotificationRequestedEvent carries a notification intent produced by a settlement
type NotificationRequestedEvent struct {
	Intent models.NotificationIntent `json:"intent"`
}

func (e NotificationRequestedEvent) Type() EventType {
	return EventTypeNotificationRequested
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers.
// Handlers run asynchronously; a panicking handler is logged and does not affect the others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the events waiting for commit
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events to main event bus")

	// Handlers outlive the request that committed the transaction
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
