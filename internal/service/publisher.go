package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prohmpiriya/servus/pkg/logger"
	"github.com/prohmpiriya/servus/pkg/telemetry"
)

// Domain event types
const (
	EventUserCreated       = "user.created"
	EventUserUpdated       = "user.updated"
	EventUserDeactivated   = "user.deactivated"
	EventMembershipCreated = "membership.created"
	EventMembershipUpdated = "membership.updated"
)

// DomainEvent is the envelope published for state changes
type DomainEvent struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	TenantID   string      `json:"tenant_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// EventPublisher emits domain events after a change is persisted. Delivery
// is best effort; failures are logged and never undo the change.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, tenantID string, data interface{})
}

// MessagePublisher writes a keyed message to a topic
type MessagePublisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

type topicPublisher struct {
	producer MessagePublisher
	topic    string
	metrics  *telemetry.Metrics
}

// NewTopicEventPublisher publishes events as JSON to topic, keyed by tenant
func NewTopicEventPublisher(producer MessagePublisher, topic string, metrics *telemetry.Metrics) EventPublisher {
	if metrics == nil {
		metrics = &telemetry.Metrics{}
	}
	return &topicPublisher{producer: producer, topic: topic, metrics: metrics}
}

func (p *topicPublisher) Publish(ctx context.Context, eventType, tenantID string, data interface{}) {
	evt := DomainEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	value, err := json.Marshal(evt)
	if err != nil {
		logger.ErrorCtx(ctx, "marshal domain event", zap.String("type", eventType), zap.Error(err))
		return
	}

	outcome := "ok"
	if err := p.producer.Publish(ctx, p.topic, tenantID, value); err != nil {
		outcome = "error"
		logger.WarnCtx(ctx, "publish domain event failed",
			zap.String("type", eventType),
			zap.String("event_id", evt.ID),
			zap.Error(err),
		)
	}
	p.metrics.DomainEvents.Inc(ctx, telemetry.EventTypeAttr(eventType), telemetry.OutcomeAttr(outcome))
}

type logPublisher struct{}

// NewLogEventPublisher records events in the log only; used when Kafka is
// disabled
func NewLogEventPublisher() EventPublisher {
	return logPublisher{}
}

func (logPublisher) Publish(ctx context.Context, eventType, tenantID string, _ interface{}) {
	logger.InfoCtx(ctx, "domain event", zap.String("type", eventType), zap.String("tenant_id", tenantID))
}
