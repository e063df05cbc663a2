package cmd

import (
	"context"
	"errors"
	"testing"

	"chesswager/messaging"

	"github.com/stretchr/testify/assert"
)

type staticHealth struct {
	err   error
	calls int
}

func (s *staticHealth) Healthy(context.Context) error {
	s.calls++
	return s.err
}

func TestHealthChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("empty is healthy", func(t *testing.T) {
		assert.NoError(t, healthChecks(nil).Healthy(ctx))
	})

	t.Run("all healthy", func(t *testing.T) {
		db, nats := &staticHealth{}, &staticHealth{}
		assert.NoError(t, healthChecks{db, nats}.Healthy(ctx))
		assert.Equal(t, 1, nats.calls)
	})

	t.Run("first failure wins", func(t *testing.T) {
		db := &staticHealth{err: errors.New("database unreachable")}
		nats := &staticHealth{}
		assert.EqualError(t, healthChecks{db, nats}.Healthy(ctx), "database unreachable")
		assert.Zero(t, nats.calls)
	})

	t.Run("disconnected nats client", func(t *testing.T) {
		client := messaging.NewNATSClient("nats://127.0.0.1:4222")
		err := healthChecks{&staticHealth{}, client}.Healthy(ctx)
		assert.ErrorContains(t, err, "not connected")
	})
}
