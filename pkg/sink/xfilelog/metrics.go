package xfilelog

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/omeyang/logkit/xfilelog"

// 指标名称
const (
	metricLinesWritten = "logkit.sink.lines.written"
	metricLinesDropped = "logkit.sink.lines.dropped"
	metricBatches      = "logkit.sink.batches.total"
	metricRotations    = "logkit.sink.rotations.total"
)

// meters 持有写入器的 OTel 计量仪表。
// nil 接收者表示未配置 MeterProvider，所有方法都是空操作。
type meters struct {
	linesWritten metric.Int64Counter
	linesDropped metric.Int64Counter
	batches      metric.Int64Counter
	rotations    metric.Int64Counter
}

// newMeters 从 MeterProvider 创建仪表。provider 为 nil 时返回 nil。
func newMeters(provider metric.MeterProvider) (*meters, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(instrumentationName)

	linesWritten, err := meter.Int64Counter(metricLinesWritten,
		metric.WithDescription("Log lines durably written to disk"),
		metric.WithUnit("{line}"))
	if err != nil {
		return nil, fmt.Errorf("xfilelog: create counter %s: %w", metricLinesWritten, err)
	}
	linesDropped, err := meter.Int64Counter(metricLinesDropped,
		metric.WithDescription("Log lines dropped after write failure"),
		metric.WithUnit("{line}"))
	if err != nil {
		return nil, fmt.Errorf("xfilelog: create counter %s: %w", metricLinesDropped, err)
	}
	batches, err := meter.Int64Counter(metricBatches,
		metric.WithDescription("Write batches flushed"),
		metric.WithUnit("{batch}"))
	if err != nil {
		return nil, fmt.Errorf("xfilelog: create counter %s: %w", metricBatches, err)
	}
	rotations, err := meter.Int64Counter(metricRotations,
		metric.WithDescription("Log file rotations performed"),
		metric.WithUnit("{rotation}"))
	if err != nil {
		return nil, fmt.Errorf("xfilelog: create counter %s: %w", metricRotations, err)
	}

	return &meters{
		linesWritten: linesWritten,
		linesDropped: linesDropped,
		batches:      batches,
		rotations:    rotations,
	}, nil
}

func (m *meters) addWritten(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.linesWritten.Add(ctx, n)
	m.batches.Add(ctx, 1)
}

func (m *meters) addDropped(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.linesDropped.Add(ctx, n)
}

func (m *meters) addRotation(ctx context.Context) {
	if m == nil {
		return
	}
	m.rotations.Add(ctx, 1)
}
