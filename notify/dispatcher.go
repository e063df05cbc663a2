package notify

import (
	"context"
	"fmt"

	"chesswager/events"
	"chesswager/models"

	log "github.com/sirupsen/logrus"
)

// UserLookup resolves the recipient of an intent
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Dispatcher turns committed notification events into deliveries.
// Delivery failures are logged and never propagate.
type Dispatcher struct {
	users    UserLookup
	notifier Notifier
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(users UserLookup, notifier Notifier) *Dispatcher {
	return &Dispatcher{users: users, notifier: notifier}
}

// Register subscribes the dispatcher to notification events on the bus
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeNotificationRequested, func(ctx context.Context, event events.Event) {
		e, ok := event.(events.NotificationRequestedEvent)
		if !ok {
			return
		}
		if err := d.Dispatch(ctx, e.Intent); err != nil {
			log.WithFields(log.Fields{
				"user_id":  e.Intent.UserID,
				"wager_id": e.Intent.WagerID,
				"kind":     e.Intent.Kind,
			}).WithError(err).Error("Failed to deliver notification")
		}
	})
}

// Dispatch delivers a single intent
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.NotificationIntent) error {
	user, err := d.users.GetByID(ctx, intent.UserID)
	if err != nil {
		return fmt.Errorf("failed to get recipient: %w", err)
	}
	if user == nil {
		return fmt.Errorf("recipient %d not found", intent.UserID)
	}

	if err := d.notifier.Notify(ctx, user, intent); err != nil {
		return fmt.Errorf("failed to notify user %d: %w", user.ID, err)
	}
	return nil
}
