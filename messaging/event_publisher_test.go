package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"chesswager/events"
	"chesswager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

// recordingClient is a MessagePublisher that keeps every message in memory
type recordingClient struct {
	mu       sync.Mutex
	messages []published
	err      error
	notify   chan struct{}
}

func (c *recordingClient) Publish(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, published{subject: subject, data: data})
	if c.notify != nil {
		c.notify <- struct{}{}
	}
	return nil
}

func TestEventPublisher_Publish(t *testing.T) {
	client := &recordingClient{}
	publisher := NewEventPublisher(client)
	fixed := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	publisher.now = func() time.Time { return fixed }

	event := events.WagerSettledEvent{
		WagerID:     42,
		Outcome:     models.OutcomeChallenger,
		FinalStatus: models.WagerStatusWon,
		Link:        "https://www.chess.com/game/live/1",
		Stake:       500,
		Currency:    "KES",
	}
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, client.messages, 1)
	assert.Equal(t, SubjectWagerSettled, client.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(client.messages[0].data, &envelope))
	assert.Equal(t, "wager_settled", envelope.EventType)
	assert.Equal(t, "chesswager", envelope.SourceService)
	assert.Equal(t, fixed, envelope.Timestamp)
	assert.NotEmpty(t, envelope.EventID)

	var payload events.WagerSettledEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestEventPublisher_UnroutedEvent(t *testing.T) {
	client := &recordingClient{}
	err := NewEventPublisher(client).Publish(context.Background(), events.NotificationRequestedEvent{})
	assert.ErrorContains(t, err, "no subject")
	assert.Empty(t, client.messages)
}

func TestEventPublisher_TransportError(t *testing.T) {
	client := &recordingClient{err: errors.New("no responders")}
	err := NewEventPublisher(client).Publish(context.Background(), events.WagerAnomalyEvent{WagerID: 1, Reason: events.AnomalyReasonDisputed})
	assert.ErrorContains(t, err, "no responders")
}

func TestEventPublisher_Register(t *testing.T) {
	client := &recordingClient{notify: make(chan struct{}, 1)}
	bus := events.NewBus()
	NewEventPublisher(client).Register(bus)

	bus.Emit(context.Background(), events.WagerAnomalyEvent{WagerID: 7, Reason: events.AnomalyReasonUnresolvable})

	select {
	case <-client.notify:
	case <-time.After(time.Second):
		t.Fatal("anomaly event was not forwarded")
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, SubjectWagerAnomaly, client.messages[0].subject)
}

func TestSubjects(t *testing.T) {
	assert.ElementsMatch(t, []string{"chesswager.wager.settled", "chesswager.wager.anomaly"}, Subjects())
}
