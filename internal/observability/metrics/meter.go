// Copyright 2026 The NexusSuite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a meter from the global provider, or a no-op meter when disabled.
func New(_ context.Context, cfg Config, serviceName string) *Meter {
	if !cfg.Enabled {
		return &Meter{meter: noop.NewMeterProvider().Meter(serviceName)}
	}
	return &Meter{meter: otel.Meter(serviceName)}
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// CreateHistogram creates a new histogram metric
func (m *Meter) CreateHistogram(name, description, unit string) (metric.Float64Histogram, error) {
	histogram, err := m.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return histogram, nil
}

// Core groups the instruments the org core reports.
type Core struct {
	// AuditWriteFailures counts audit appends that failed after a committed mutation.
	AuditWriteFailures metric.Int64Counter
	// Mutations counts gateway mutations by entity, action and outcome.
	Mutations metric.Int64Counter
	// MutationDuration records gateway mutation latency in milliseconds.
	MutationDuration metric.Float64Histogram
}

// NewCore registers the core instruments on m.
func NewCore(m *Meter) (*Core, error) {
	auditFailures, err := m.CreateCounter("audit.write_failures", "Audit entries that could not be appended")
	if err != nil {
		return nil, err
	}
	mutations, err := m.CreateCounter("gateway.mutations", "Mutations processed by the gateway")
	if err != nil {
		return nil, err
	}
	duration, err := m.CreateHistogram("gateway.mutation.duration", "Gateway mutation latency", "ms")
	if err != nil {
		return nil, err
	}
	return &Core{
		AuditWriteFailures: auditFailures,
		Mutations:          mutations,
		MutationDuration:   duration,
	}, nil
}

// NoopCore returns instruments that record nothing.
func NoopCore() *Core {
	c, _ := NewCore(New(context.Background(), Config{}, "noop"))
	return c
}
