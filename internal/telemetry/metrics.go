package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the session instruments. A nil *Metrics records nothing.
type Metrics struct {
	cycles        metric.Int64Counter
	setListens    metric.Int64Counter
	setAttempts   metric.Int64Histogram
	answers       metric.Int64Counter
	guardSkips    metric.Int64Counter
	loggedWeights metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var m Metrics
	var err, e error

	m.cycles, e = meter.Int64Counter("liftlog.session.cycles",
		metric.WithDescription("Voice logging cycles by outcome"))
	err = errors.Join(err, e)

	m.setListens, e = meter.Int64Counter("liftlog.listen.set.results",
		metric.WithDescription("Workout-set listener runs by status"))
	err = errors.Join(err, e)

	m.setAttempts, e = meter.Int64Histogram("liftlog.listen.set.attempts",
		metric.WithDescription("Chunks recorded per workout-set listener run"))
	err = errors.Join(err, e)

	m.answers, e = meter.Int64Counter("liftlog.listen.yesno.answers",
		metric.WithDescription("Yes/no listener answers by decision and failure kind"))
	err = errors.Join(err, e)

	m.guardSkips, e = meter.Int64Counter("liftlog.audio.guard.skips",
		metric.WithDescription("Audio tasks skipped because another one held the guard"))
	err = errors.Join(err, e)

	m.loggedWeights, e = meter.Float64Histogram("liftlog.sets.weight",
		metric.WithDescription("Weight of logged sets"), metric.WithUnit("[lb_av]"))
	err = errors.Join(err, e)

	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Default creates the instruments on the global meter provider, or returns
// nil if that fails.
func Default() *Metrics {
	m, err := NewMetrics(otel.Meter("github.com/alkime/liftlog/session"))
	if err != nil {
		return nil
	}
	return m
}

func (m *Metrics) CycleFinished(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) SetListened(ctx context.Context, status string, attempts int) {
	if m == nil {
		return
	}
	m.setListens.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.setAttempts.Record(ctx, int64(attempts))
}

// Answered records a yes/no answer. failure is empty when the listener
// heard speech it could classify or simply found it ambiguous.
func (m *Metrics) Answered(ctx context.Context, decision, failure string) {
	if m == nil {
		return
	}
	m.answers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("failure", failure),
	))
}

func (m *Metrics) GuardSkipped(ctx context.Context, task string) {
	if m == nil {
		return
	}
	m.guardSkips.Add(ctx, 1, metric.WithAttributes(attribute.String("task", task)))
}

func (m *Metrics) SetLogged(ctx context.Context, exercise string, weight float64) {
	if m == nil {
		return
	}
	m.loggedWeights.Record(ctx, weight, metric.WithAttributes(attribute.String("exercise", exercise)))
}
