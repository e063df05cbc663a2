package cmd

import (
	"context"

	"chesswager/api"
)

// healthChecks reports the first unreachable dependency
type healthChecks []api.HealthChecker

func (h healthChecks) Healthy(ctx context.Context) error {
	for _, check := range h {
		if err := check.Healthy(ctx); err != nil {
			return err
		}
	}
	return nil
}
