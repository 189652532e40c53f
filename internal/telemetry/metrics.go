/*
Package telemetry defines the service's OpenTelemetry metric instruments and the
provider that exports them in Prometheus format.
*/
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName scopes every instrument created by this package.
const meterName = "voicesvc/internal/telemetry"

// Metric attribute keys
const (
	AttrAuthSuccess     = "auth.success"
	AttrPresenceEvent   = "presence.event"
	AttrPresenceOutcome = "presence.outcome"
)

// RoomCounter reports the number of rooms with at least one occupant.
type RoomCounter interface {
	RoomCount() int
}

// Metrics holds the instruments recorded by the HTTP handlers.
type Metrics struct {
	AuthAttempts   metric.Int64Counter // identity verifications, by result
	GrantsIssued   metric.Int64Counter // media grants minted
	PresenceEvents metric.Int64Counter // webhook events, by kind and outcome
}

// NewMetrics creates the instruments on provider and registers an observable
// gauge reading the active room count from rooms.
func NewMetrics(provider metric.MeterProvider, rooms RoomCounter) (*Metrics, error) {
	meter := provider.Meter(meterName)

	authAttempts, err := meter.Int64Counter(
		"voice.auth.attempt.count",
		metric.WithDescription("Total number of Matrix identity verifications"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	grantsIssued, err := meter.Int64Counter(
		"voice.grant.issued.count",
		metric.WithDescription("Total number of LiveKit grants issued"),
		metric.WithUnit("{grant}"),
	)
	if err != nil {
		return nil, err
	}

	presenceEvents, err := meter.Int64Counter(
		"voice.presence.event.count",
		metric.WithDescription("Total number of presence webhook events received"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	if rooms != nil {
		_, err = meter.Int64ObservableGauge(
			"voice.presence.rooms.active",
			metric.WithDescription("Number of rooms with at least one tracked participant"),
			metric.WithUnit("{room}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(int64(rooms.RoomCount()))
				return nil
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	return &Metrics{
		AuthAttempts:   authAttempts,
		GrantsIssued:   grantsIssued,
		PresenceEvents: presenceEvents,
	}, nil
}

// RecordAuth counts one verification attempt. It satisfies matrix.AuthRecorder.
func (m *Metrics) RecordAuth(ctx context.Context, success bool) {
	m.AuthAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool(AttrAuthSuccess, success),
	))
}

// RecordGrant counts one issued grant.
func (m *Metrics) RecordGrant(ctx context.Context) {
	m.GrantsIssued.Add(ctx, 1)
}

// RecordPresenceEvent counts one webhook event with its kind and outcome label.
func (m *Metrics) RecordPresenceEvent(ctx context.Context, event, outcome string) {
	m.PresenceEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPresenceEvent, event),
		attribute.String(AttrPresenceOutcome, outcome),
	))
}
