// Package notify delivers settlement notification intents to users once their unit of work commits.
package notify

import (
	"context"

	"chesswager/models"

	log "github.com/sirupsen/logrus"
)

// Notifier delivers one notification to one user
type Notifier interface {
	Notify(ctx context.Context, user *models.User, intent models.NotificationIntent) error
}

// LogNotifier writes notifications to the log. Used when no transport is configured.
type LogNotifier struct{}

// NewLogNotifier creates a new log notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Notify(ctx context.Context, user *models.User, intent models.NotificationIntent) error {
	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"wager_id": intent.WagerID,
		"kind":     intent.Kind,
		"title":    intent.Title,
		"details":  intent.Details,
	}).Info(intent.Message)
	return nil
}
