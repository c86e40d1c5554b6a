package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricOpts holds options for creating metrics
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps an OTel counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new counter metric
func NewCounter(opts MetricOpts) (*Counter, error) {
	counter, err := GetMeter().Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: counter}, nil
}

// Inc increments the counter by 1
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps an OTel histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a new histogram metric
func NewHistogram(opts MetricOpts, boundaries ...float64) (*Histogram, error) {
	options := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(boundaries) > 0 {
		options = append(options, metric.WithExplicitBucketBoundaries(boundaries...))
	}
	histogram, err := GetMeter().Float64Histogram(opts.Name, options...)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: histogram}, nil
}

// Record records a value in the histogram
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Metrics are the application-level instruments Servus records. HTTP
// server metrics come from otelgin.
type Metrics struct {
	LoginAttempts   *Counter
	ScopedListings  *Counter
	DomainEvents    *Counter
	OccurrenceCount *Histogram
}

// NewMetrics registers the Servus instruments on the global meter
func NewMetrics() (*Metrics, error) {
	login, err := NewCounter(MetricOpts{
		Name:        "servus.auth.login_attempts",
		Description: "Login attempts by outcome",
		Unit:        "{attempt}",
	})
	if err != nil {
		return nil, err
	}
	listings, err := NewCounter(MetricOpts{
		Name:        "servus.scope.listings",
		Description: "Scoped listing queries by resource and caller role",
		Unit:        "{query}",
	})
	if err != nil {
		return nil, err
	}
	events, err := NewCounter(MetricOpts{
		Name:        "servus.events.published",
		Description: "Domain events published by type and outcome",
		Unit:        "{event}",
	})
	if err != nil {
		return nil, err
	}
	occurrences, err := NewHistogram(MetricOpts{
		Name:        "servus.recurrence.occurrences",
		Description: "Occurrences returned per recurrence expansion",
		Unit:        "{occurrence}",
	}, 0, 1, 5, 10, 50, 100, 500)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		LoginAttempts:   login,
		ScopedListings:  listings,
		DomainEvents:    events,
		OccurrenceCount: occurrences,
	}, nil
}

// Attribute keys
const (
	AttrTenantID  = "servus.tenant_id"
	AttrRole      = "servus.role"
	AttrResource  = "servus.resource"
	AttrOutcome   = "servus.outcome"
	AttrEventType = "servus.event_type"
)

func TenantIDAttr(tenantID string) attribute.KeyValue {
	return attribute.String(AttrTenantID, tenantID)
}

func RoleAttr(role string) attribute.KeyValue {
	return attribute.String(AttrRole, role)
}

func ResourceAttr(resource string) attribute.KeyValue {
	return attribute.String(AttrResource, resource)
}

func OutcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

func EventTypeAttr(eventType string) attribute.KeyValue {
	return attribute.String(AttrEventType, eventType)
}
