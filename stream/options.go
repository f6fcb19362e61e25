// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"

	"github.com/ik5/audwmark/internal/observe"
	"github.com/ik5/audwmark/watermark"
)

// Option configures a handle.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	mp      metric.MeterProvider
	params  watermark.Params
	carrier watermark.Carrier
}

// WithLogger sets the logger for lifecycle events. Frames are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMeterProvider records metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// WithParams overrides the algorithm constants. Embedder and detector of
// one stream must agree on them.
func WithParams(p watermark.Params) Option {
	return func(o *options) { o.params = p }
}

// WithCarrier replaces the default FSK carrier.
func WithCarrier(c watermark.Carrier) Option {
	return func(o *options) { o.carrier = c }
}

func buildOptions(opts []Option) (options, *observe.Metrics, error) {
	o := options{
		logger: slog.Default(),
		params: watermark.DefaultParams(),
	}
	for _, fn := range opts {
		fn(&o)
	}

	if o.mp == nil {
		return o, observe.DefaultMetrics(), nil
	}

	m, err := observe.NewMetrics(o.mp)
	if err != nil {
		return o, nil, fmt.Errorf("stream: metrics: %w", err)
	}

	return o, m, nil
}
