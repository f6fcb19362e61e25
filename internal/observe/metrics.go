// SPDX-License-Identifier: EPL-2.0

// Package observe holds the OpenTelemetry instruments of the watermark
// pipeline and the Prometheus bridge used by the command line host.
//
// Instruments are created from a [metric.MeterProvider] by [NewMetrics].
// [DefaultMetrics] uses the global provider, which is a no-op until
// [InitProvider] installs the SDK. Tests should build their own provider
// with a manual reader.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ik5/audwmark"

// Direction values for the "direction" attribute.
const (
	DirectionEmbed  = "embed"
	DirectionDetect = "detect"
)

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	// Blocks counts internal blocks processed. Attribute: direction.
	Blocks metric.Int64Counter

	// PassthroughFrames counts caller frames rejected for a length mismatch
	// and returned unchanged. Attribute: direction.
	PassthroughFrames metric.Int64Counter

	// SilenceFrames counts caller frames answered with silence because the
	// output buffer ran dry.
	SilenceFrames metric.Int64Counter

	// Detections counts polls that produced a positive detection.
	Detections metric.Int64Counter

	// Confidence records the confidence of every present result.
	Confidence metric.Float64Histogram

	// ActiveHandles tracks live embedder and detector handles. Attribute:
	// direction.
	ActiveHandles metric.Int64UpDownCounter
}

var confidenceBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1}

// NewMetrics creates every instrument on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Blocks, err = m.Int64Counter("audwmark.blocks",
		metric.WithDescription("Internal blocks processed by direction."),
		metric.WithUnit("{block}"),
	); err != nil {
		return nil, err
	}
	if met.PassthroughFrames, err = m.Int64Counter("audwmark.frames.passthrough",
		metric.WithDescription("Caller frames returned unchanged because of a length mismatch."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.SilenceFrames, err = m.Int64Counter("audwmark.frames.silence",
		metric.WithDescription("Caller frames answered with silence while output was not ready."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, err
	}
	if met.Detections, err = m.Int64Counter("audwmark.detections",
		metric.WithDescription("Polls that returned a positive detection."),
	); err != nil {
		return nil, err
	}
	if met.Confidence, err = m.Float64Histogram("audwmark.detection.confidence",
		metric.WithDescription("Detector confidence per poll."),
		metric.WithExplicitBucketBoundaries(confidenceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveHandles, err = m.Int64UpDownCounter("audwmark.active_handles",
		metric.WithDescription("Live embedder and detector handles."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance bound to the global
// meter provider. It panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// DirectionSet returns a reusable attribute option for direction. Callers on
// the audio path build it once and pass it to every Add.
func DirectionSet(direction string) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(attribute.String("direction", direction)))
}

// RecordResult records one detector poll.
func (m *Metrics) RecordResult(ctx context.Context, confidence float64, detected bool) {
	m.Confidence.Record(ctx, confidence)
	if detected {
		m.Detections.Add(ctx, 1)
	}
}
