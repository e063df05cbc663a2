package service

import (
	"context"

	"chesswager/models"
)

type noopMetrics struct{}

func (noopMetrics) RecordResolution(context.Context, models.ResolutionStatus) {}
func (noopMetrics) RecordSettlement(context.Context, models.Outcome, int64) {}
func (noopMetrics) RecordFetchFailure(context.Context) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
