package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chesswager/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sourceService = "chesswager"

// Subjects for outbound events
const (
	SubjectWagerSettled = "chesswager.wager.settled"
	SubjectWagerAnomaly = "chesswager.wager.anomaly"
)

// MessagePublisher is the transport the event publisher writes to
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// EventEnvelope wraps every outbound event
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventPublisher forwards committed settlement and anomaly events to the message bus
type EventPublisher struct {
	client MessagePublisher
	now    func() time.Time
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(client MessagePublisher) *EventPublisher {
	return &EventPublisher{client: client, now: time.Now}
}

// Subjects returns every subject the publisher writes to
func Subjects() []string {
	return []string{SubjectWagerSettled, SubjectWagerAnomaly}
}

// SubjectFor maps an event to its subject. Events that are not forwarded map to "".
func SubjectFor(event events.Event) string {
	switch event.Type() {
	case events.EventTypeWagerSettled:
		return SubjectWagerSettled
	case events.EventTypeWagerAnomaly:
		return SubjectWagerAnomaly
	default:
		return ""
	}
}

// Register subscribes the publisher to the forwarded event types
func (p *EventPublisher) Register(bus *events.Bus) {
	handler := func(ctx context.Context, event events.Event) {
		if err := p.Publish(ctx, event); err != nil {
			log.WithField("eventType", event.Type()).WithError(err).Error("Failed to publish event to NATS")
		}
	}
	bus.Subscribe(events.EventTypeWagerSettled, handler)
	bus.Subscribe(events.EventTypeWagerAnomaly, handler)
}

// Publish wraps the event in an envelope and sends it
func (p *EventPublisher) Publish(ctx context.Context, event events.Event) error {
	subject := SubjectFor(event)
	if subject == "" {
		return fmt.Errorf("no subject for event type %s", event.Type())
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     p.now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	if err := p.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}
