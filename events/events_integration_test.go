package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"chesswager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan WagerSettledEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeWagerSettled, func(ctx context.Context, event Event) {
		defer wg.Done()
		settled, ok := event.(WagerSettledEvent)
		if !ok {
			t.Errorf("Expected WagerSettledEvent, got %T", event)
			return
		}
		eventReceived <- settled
	})

	testEvent := WagerSettledEvent{
		WagerID:     42,
		Outcome:     models.OutcomeChallenger,
		FinalStatus: models.WagerStatusWon,
		Link:        "https://www.chess.com/game/live/1",
		Stake:       100,
		Currency:    "KES",
	}

	transactionalBus.Publish(testEvent)
	transactionalBus.Flush(context.Background())

	wg.Wait()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering notification intents for both participants
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan NotificationRequestedEvent, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	mainBus.Subscribe(EventTypeNotificationRequested, func(ctx context.Context, event Event) {
		defer wg.Done()
		if n, ok := event.(NotificationRequestedEvent); ok {
			received <- n
		}
	})

	transactionalBus.Publish(NotificationRequestedEvent{Intent: models.NotificationIntent{UserID: 1, Kind: models.NotificationKindWon}})
	transactionalBus.Publish(NotificationRequestedEvent{Intent: models.NotificationIntent{UserID: 2, Kind: models.NotificationKindLost}})
	require.Len(t, transactionalBus.Pending(), 2)

	transactionalBus.Flush(context.Background())
	assert.Empty(t, transactionalBus.Pending())

	wg.Wait()
	close(received)

	userIDs := make(map[int64]models.NotificationKind)
	for n := range received {
		userIDs[n.Intent.UserID] = n.Intent.Kind
	}
	assert.Equal(t, models.NotificationKindWon, userIDs[1])
	assert.Equal(t, models.NotificationKindLost, userIDs[2])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeWagerAnomaly, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(WagerAnomalyEvent{WagerID: 7, Reason: AnomalyReasonDisputed})

	// Simulates a rollback
	transactionalBus.Discard()
	transactionalBus.Flush(context.Background())

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusRecoversFromHandlerPanic(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeWagerAnomaly, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeWagerAnomaly, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), WagerAnomalyEvent{WagerID: 1, Reason: AnomalyReasonUnresolvable})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler was not called")
	}
}

func TestBusWaitBlocksUntilHandlersReturn(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	handled := 0

	bus.Subscribe(EventTypeWagerAnomaly, func(ctx context.Context, event Event) {
		time.Sleep(20 * time.Millisecond)
		mu.Lock()
		handled++
		mu.Unlock()
	})

	bus.Emit(context.Background(), WagerAnomalyEvent{WagerID: 1, Reason: AnomalyReasonDisputed})
	bus.Emit(context.Background(), WagerAnomalyEvent{WagerID: 2, Reason: AnomalyReasonMissingLink})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, handled)
}
