package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chesswager/config"
	"chesswager/models"
	"chesswager/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testPollerConfig = config.PollerConfig{
	Enabled:   true,
	Interval:  time.Minute,
	MinAge:    5 * time.Minute,
	MaxAge:    72 * time.Hour,
	BatchSize: 50,
}

func newTestPoller(now time.Time) (*Poller, *service.MockAuditService, *service.MockResolutionService) {
	audit := new(service.MockAuditService)
	resolution := new(service.MockResolutionService)
	p := NewPoller(audit, resolution, testPollerConfig)
	p.now = func() time.Time { return now }
	return p, audit, resolution
}

func TestPoller_RunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	t.Run("resolves each wager in window", func(t *testing.T) {
		p, audit, resolution := newTestPoller(now)
		audit.On("ListResolvableWagers", ctx, now.Add(-72*time.Hour), now.Add(-5*time.Minute), 50).
			Return([]*models.Wager{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}, nil)
		resolution.On("ResolveWager", ctx, int64(1)).Return(&models.ResolutionResult{WagerID: 1, Status: models.ResolutionSettled}, nil)
		resolution.On("ResolveWager", ctx, int64(2)).Return(&models.ResolutionResult{WagerID: 2, Status: models.ResolutionNotFound}, nil)
		resolution.On("ResolveWager", ctx, int64(3)).Return(nil, fmt.Errorf("%w: timeout", service.ErrTransientFetch))
		resolution.On("ResolveWager", ctx, int64(4)).Return(nil, fmt.Errorf("failed to settle wager: %w", service.ErrInsufficientBalance))
		resolution.On("ResolveWager", ctx, int64(5)).Return(nil, errors.New("failed to lock wager: conn closed"))

		summary, err := p.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, summary.Scanned)
		assert.Equal(t, 1, summary.Statuses[models.ResolutionSettled])
		assert.Equal(t, 1, summary.Statuses[models.ResolutionNotFound])
		assert.Equal(t, 3, summary.Failed)
		assert.Equal(t, 2, summary.Retrying)
		resolution.AssertExpectations(t)
	})

	t.Run("listing error", func(t *testing.T) {
		p, audit, resolution := newTestPoller(now)
		audit.On("ListResolvableWagers", ctx, mock.Anything, mock.Anything, 50).Return(nil, errors.New("database is down"))

		_, err := p.RunOnce(ctx)
		assert.ErrorContains(t, err, "database is down")
		resolution.AssertNotCalled(t, "ResolveWager", mock.Anything, mock.Anything)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		p, audit, resolution := newTestPoller(now)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		audit.On("ListResolvableWagers", cancelled, mock.Anything, mock.Anything, 50).Return([]*models.Wager{{ID: 1}}, nil)

		summary, err := p.RunOnce(cancelled)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Scanned)
		resolution.AssertNotCalled(t, "ResolveWager", mock.Anything, mock.Anything)
	})
}

func TestPoller_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, audit, _ := newTestPoller(time.Now())
	ran := make(chan struct{}, 1)
	audit.On("ListResolvableWagers", ctx, mock.Anything, mock.Anything, 50).
		Run(func(mock.Arguments) {
			select {
			case ran <- struct{}{}:
			default:
			}
		}).
		Return([]*models.Wager{}, nil)

	require.NoError(t, p.Start(ctx))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("poll job did not run")
	}
	assert.NoError(t, p.Stop())
}
