package outbox

import (
	"context"

	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
)

// Repository defines outbox persistence outside of the writing transaction
type Repository interface {
	// FindUnpublished retrieves retryable unpublished events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkPublished marks an event as published
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublished deletes events published before the given unix time
	DeletePublished(ctx context.Context, olderThan int64) error
}

// EventPublisher delivers one CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.WMSCloudEvent) error
}
