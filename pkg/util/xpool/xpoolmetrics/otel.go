package xpoolmetrics

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrNoSources 表示未传入任何 StatsSource。
var ErrNoSources = errors.New("xpoolmetrics: no stats sources")

// ErrNilMeter 表示 meter 为 nil。
var ErrNilMeter = errors.New("xpoolmetrics: nil meter")

// RegisterOTel 在 meter 上注册 pool 的异步仪表。
// sources 不可为 nil 且 Name() 互不相同，否则返回 ErrNilSource / ErrDuplicateSource。
// 返回的 Registration 在 pool 关闭后应调用 Unregister。
func RegisterOTel(meter metric.Meter, sources ...StatsSource) (metric.Registration, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	srcs, err := copySources(sources)
	if err != nil {
		return nil, err
	}

	live, err := meter.Int64ObservableGauge("xpool.workers.live",
		metric.WithDescription("workers that have not exited"), metric.WithUnit("{worker}"))
	if err != nil {
		return nil, fmt.Errorf("xpoolmetrics: create gauge: %w", err)
	}
	queued, err := meter.Int64ObservableGauge("xpool.tasks.queued",
		metric.WithDescription("tasks waiting in the queue"), metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("xpoolmetrics: create gauge: %w", err)
	}
	inFlight, err := meter.Int64ObservableGauge("xpool.tasks.in_flight",
		metric.WithDescription("tasks currently executing"), metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("xpoolmetrics: create gauge: %w", err)
	}
	submitted, err := meter.Int64ObservableCounter("xpool.tasks.submitted",
		metric.WithDescription("tasks accepted by Submit"), metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("xpoolmetrics: create counter: %w", err)
	}
	completed, err := meter.Int64ObservableCounter("xpool.tasks.completed",
		metric.WithDescription("tasks that finished executing"), metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("xpoolmetrics: create counter: %w", err)
	}
	panicked, err := meter.Int64ObservableCounter("xpool.tasks.panicked",
		metric.WithDescription("tasks that panicked"), metric.WithUnit("{task}"))
	if err != nil {
		return nil, fmt.Errorf("xpoolmetrics: create counter: %w", err)
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for _, src := range srcs {
			s := src.Stats()
			set := metric.WithAttributes(attribute.String("pool", src.Name()))
			o.ObserveInt64(live, int64(s.Live), set)
			o.ObserveInt64(queued, int64(s.Queued), set)
			o.ObserveInt64(inFlight, int64(s.InFlight), set)
			o.ObserveInt64(submitted, clampInt64(s.Submitted), set)
			o.ObserveInt64(completed, clampInt64(s.Completed), set)
			o.ObserveInt64(panicked, clampInt64(s.Panicked), set)
		}
		return nil
	}, live, queued, inFlight, submitted, completed, panicked)
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
