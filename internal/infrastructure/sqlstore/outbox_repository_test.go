package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/outbox"
)

func newOutboxEvent(t *testing.T, aggregateID string, createdAt time.Time) *outbox.OutboxEvent {
	t.Helper()
	factory := cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection)
	ce := factory.CreateCarrierSelectedEvent(context.Background(), cloudevents.CarrierSelectedData{
		WaybillRef:  aggregateID,
		CarrierCode: "SAGAWA",
	})
	event, err := outbox.NewOutboxEventFromCloudEvent(aggregateID, "Waybill", "wms.shipping.events", ce)
	require.NoError(t, err)
	event.CreatedAt = createdAt
	return event
}

func TestOutboxRepository_Lifecycle(t *testing.T) {
	repo := NewOutboxRepository(newTestStore(t))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	older := newOutboxEvent(t, "O1", base)
	newer := newOutboxEvent(t, "O2", base.Add(time.Minute))
	require.NoError(t, repo.Save(ctx, newer))
	require.NoError(t, repo.Save(ctx, older))

	events, err := repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, older.ID, events[0].ID, "oldest first")
	assert.Equal(t, "Waybill", events[0].AggregateType)
	assert.Nil(t, events[0].PublishedAt)

	decoded, err := events[0].ToCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, cloudevents.CarrierSelected, decoded.Type)

	require.NoError(t, repo.MarkPublished(ctx, older.ID))
	events, err = repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, newer.ID, events[0].ID)

	require.NoError(t, repo.DeletePublished(ctx, time.Now().Add(time.Minute).Unix()))
	var remaining int
	require.NoError(t, repo.DB().Get(&remaining, `SELECT COUNT(*) FROM outbox_events`))
	assert.Equal(t, 1, remaining)
}

func TestOutboxRepository_IncrementRetry(t *testing.T) {
	repo := NewOutboxRepository(newTestStore(t))
	ctx := context.Background()

	event := newOutboxEvent(t, "O1", time.Now())
	event.MaxRetries = 2
	require.NoError(t, repo.Save(ctx, event))

	require.NoError(t, repo.IncrementRetry(ctx, event.ID, "broker unavailable"))
	events, err := repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].RetryCount)
	assert.Equal(t, "broker unavailable", events[0].LastError)

	require.NoError(t, repo.IncrementRetry(ctx, event.ID, "broker unavailable"))
	events, err = repo.FindUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events, "events past max retries are no longer fetched")
}
