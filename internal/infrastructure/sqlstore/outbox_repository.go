package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wms-platform/carrier-selection/pkg/outbox"
)

// OutboxRepository implements outbox.Repository on the outbox_events table
type OutboxRepository struct {
	*Store
}

// NewOutboxRepository creates an outbox repository
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{Store: store}
}

var _ outbox.Repository = (*OutboxRepository)(nil)

func newOutboxRow(e *outbox.OutboxEvent) outboxRow {
	row := outboxRow{
		ID:            e.ID,
		AggregateID:   e.AggregateID,
		AggregateType: e.AggregateType,
		EventType:     e.EventType,
		Topic:         e.Topic,
		Payload:       string(e.Payload),
		CreatedAt:     e.CreatedAt.Unix(),
		RetryCount:    e.RetryCount,
		MaxRetries:    e.MaxRetries,
		LastError:     e.LastError,
	}
	if e.PublishedAt != nil {
		row.PublishedAt = sql.NullInt64{Int64: e.PublishedAt.Unix(), Valid: true}
	}
	return row
}

func (r outboxRow) toEvent() *outbox.OutboxEvent {
	e := &outbox.OutboxEvent{
		ID:            r.ID,
		AggregateID:   r.AggregateID,
		AggregateType: r.AggregateType,
		EventType:     r.EventType,
		Topic:         r.Topic,
		Payload:       []byte(r.Payload),
		CreatedAt:     time.Unix(r.CreatedAt, 0).UTC(),
		RetryCount:    r.RetryCount,
		MaxRetries:    r.MaxRetries,
		LastError:     r.LastError,
	}
	if r.PublishedAt.Valid {
		t := time.Unix(r.PublishedAt.Int64, 0).UTC()
		e.PublishedAt = &t
	}
	return e
}

// insertOutboxEvent writes an event with the caller's transaction
func insertOutboxEvent(ctx context.Context, s *Store, db DBTX, e *outbox.OutboxEvent) error {
	row := newOutboxRow(e)
	err := s.observe(ctx, "outbox_events", "insert", func(ctx context.Context) (int64, error) {
		res, err := db.NamedExecContext(ctx, `INSERT INTO outbox_events (
				id, aggregate_id, aggregate_type, event_type, topic, payload,
				created_at, published_at, retry_count, max_retries, last_error
			) VALUES (
				:id, :aggregate_id, :aggregate_type, :event_type, :topic, :payload,
				:created_at, :published_at, :retry_count, :max_retries, :last_error
			)`, row)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// Save writes a single event outside any transaction
func (r *OutboxRepository) Save(ctx context.Context, e *outbox.OutboxEvent) error {
	return insertOutboxEvent(ctx, r.Store, r.db, e)
}

// FindUnpublished returns retryable unpublished events, oldest first
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]*outbox.OutboxEvent, error) {
	var rows []outboxRow
	err := r.observe(ctx, "outbox_events", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT id, aggregate_id, aggregate_type, event_type, topic, payload,
				created_at, published_at, retry_count, max_retries, last_error
			FROM outbox_events
			WHERE published_at IS NULL AND retry_count < max_retries
			ORDER BY created_at, id
			LIMIT ?`)
		err := r.db.SelectContext(ctx, &rows, q, limit)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}

	events := make([]*outbox.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events, nil
}

// MarkPublished stamps an event as published
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	err := r.observe(ctx, "outbox_events", "update", func(ctx context.Context) (int64, error) {
		res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE outbox_events SET published_at = ? WHERE id = ?`),
			time.Now().Unix(), eventID)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

// IncrementRetry bumps the retry count and records the last error
func (r *OutboxRepository) IncrementRetry(ctx context.Context, eventID string, errorMsg string) error {
	err := r.observe(ctx, "outbox_events", "update", func(ctx context.Context) (int64, error) {
		res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE outbox_events
			SET retry_count = retry_count + 1, last_error = ? WHERE id = ?`), errorMsg, eventID)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment retry: %w", err)
	}
	return nil
}

// DeletePublished removes events published before olderThan (unix seconds)
func (r *OutboxRepository) DeletePublished(ctx context.Context, olderThan int64) error {
	err := r.observe(ctx, "outbox_events", "delete", func(ctx context.Context) (int64, error) {
		res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM outbox_events
			WHERE published_at IS NOT NULL AND published_at < ?`), olderThan)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete published events: %w", err)
	}
	return nil
}
