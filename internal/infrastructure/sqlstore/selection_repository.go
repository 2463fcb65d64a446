package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/outbox"
	"github.com/wms-platform/carrier-selection/pkg/resilience"
)

// errLogIDTaken marks an insert that lost a log ID to a concurrent writer
var errLogIDTaken = errors.New("selection log id already taken")

// logIDRetry reruns the whole transaction when another writer claimed the same log ID
var logIDRetry = &resilience.RetryConfig{
	MaxAttempts:   5,
	InitialDelay:  5 * time.Millisecond,
	MaxDelay:      100 * time.Millisecond,
	BackoffFactor: 2.0,
	RetryableErrors: func(err error) bool {
		return errors.Is(err, errLogIDTaken)
	},
}

// SelectionRepository writes one waybill decision in a single transaction:
// the selection log, carrier changes on orders and work rows, and the outbox event.
type SelectionRepository struct {
	*Store
	events *cloudevents.EventFactory
	topic  string
	ids    *logIDGenerator
	now    func() time.Time
}

// NewSelectionRepository creates a selection repository publishing to topic
func NewSelectionRepository(store *Store, events *cloudevents.EventFactory, topic string) *SelectionRepository {
	return &SelectionRepository{
		Store:  store,
		events: events,
		topic:  topic,
		ids:    &logIDGenerator{},
		now:    time.Now,
	}
}

var _ domain.SelectionRepository = (*SelectionRepository)(nil)

// SaveSelection persists the decision; re-saving an unchanged decision only touches the log
func (r *SelectionRepository) SaveSelection(ctx context.Context, s *domain.CarrierSelection) (*domain.SelectionResult, error) {
	now := r.now()
	stamp := now.Format(domain.StampLayout)
	var result *domain.SelectionResult

	err := resilience.Retry(ctx, logIDRetry, func() error {
		result = &domain.SelectionResult{}
		return r.saveSelectionTx(ctx, s, result, now, stamp)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailed, err)
	}

	r.logger.Audit(ctx, "carrier_selected", "waybill", s.WaybillRef, map[string]any{
		"logId":         result.LogID,
		"carrierCode":   s.CarrierCode,
		"ordersChanged": result.OrdersChanged,
		"workChanged":   result.WorkChanged,
	})
	return result, nil
}

func (r *SelectionRepository) saveSelectionTx(ctx context.Context, s *domain.CarrierSelection, result *domain.SelectionResult, now time.Time, stamp string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		logID, created, err := r.upsertLog(ctx, tx, s, now, stamp)
		if err != nil {
			return err
		}
		result.LogID = logID
		result.LogCreated = created

		if err := r.replaceLogLines(ctx, tx, logID, s.Lines); err != nil {
			return err
		}

		if result.OrdersChanged, err = r.updateOrders(ctx, tx, s, stamp); err != nil {
			return err
		}
		if result.WorkChanged, err = r.updateWork(ctx, tx, s, stamp); err != nil {
			return err
		}

		if result.OrdersChanged+result.WorkChanged == 0 {
			return nil
		}
		if err := r.queueEvent(ctx, tx, s, logID, now); err != nil {
			return err
		}
		result.EventQueued = true
		return nil
	})
}

func (r *SelectionRepository) upsertLog(ctx context.Context, tx *sqlx.Tx, s *domain.CarrierSelection, now time.Time, stamp string) (string, bool, error) {
	var existing string
	err := r.observe(ctx, "hant020", "select", func(ctx context.Context) (int64, error) {
		err := tx.GetContext(ctx, &existing, tx.Rebind(`SELECT hant020001 FROM hant020 WHERE hant020002 = ?`), s.WaybillRef)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 1, err
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to look up selection log: %w", err)
	}

	if existing != "" {
		row := newSelectionLogRow(existing, s, stamp)
		err = r.observe(ctx, "hant020", "update", func(ctx context.Context) (int64, error) {
			res, err := tx.NamedExecContext(ctx, `UPDATE hant020 SET
					hant020003 = :hant020003, hant020004 = :hant020004, hant020005 = :hant020005,
					hant020006 = :hant020006, hant020007 = :hant020007, hant020008 = :hant020008,
					hant020009 = :hant020009, hant020010 = :hant020010, hant020011 = :hant020011,
					hant020012 = :hant020012, hant020013 = :hant020013,
					hant020090 = hant020090 + 1, hant020091 = :hant020091
				WHERE hant020001 = :hant020001`, row)
			if err != nil {
				return 0, err
			}
			return rowsAffected(res), nil
		})
		if err != nil {
			return "", false, fmt.Errorf("failed to update selection log: %w", err)
		}
		return existing, false, nil
	}

	logID, err := r.ids.next(ctx, tx, now)
	if err != nil {
		return "", false, err
	}
	row := newSelectionLogRow(logID, s, stamp)
	err = r.observe(ctx, "hant020", "insert", func(ctx context.Context) (int64, error) {
		res, err := tx.NamedExecContext(ctx, `INSERT INTO hant020 (
				hant020001, hant020002, hant020003, hant020004, hant020005, hant020006, hant020007,
				hant020008, hant020009, hant020010, hant020011, hant020012, hant020013,
				hant020090, hant020091
			) VALUES (
				:hant020001, :hant020002, :hant020003, :hant020004, :hant020005, :hant020006, :hant020007,
				:hant020008, :hant020009, :hant020010, :hant020011, :hant020012, :hant020013,
				:hant020090, :hant020091
			)`, row)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if isUniqueViolation(err) {
		return "", false, fmt.Errorf("%w: %s: %w", errLogIDTaken, logID, err)
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to insert selection log: %w", err)
	}
	return logID, true, nil
}

func (r *SelectionRepository) replaceLogLines(ctx context.Context, tx *sqlx.Tx, logID string, lines []domain.SelectionLogLine) error {
	err := r.observe(ctx, "hant021", "delete", func(ctx context.Context) (int64, error) {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM hant021 WHERE hant021001 = ?`), logID)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear selection log lines: %w", err)
	}

	for _, line := range lines {
		row := selectionLogLineRow{LogID: logID, ProductCode: line.ProductCode, Girth: line.Girth, BoxCount: line.BoxCount}
		err := r.observe(ctx, "hant021", "insert", func(ctx context.Context) (int64, error) {
			res, err := tx.NamedExecContext(ctx, `INSERT INTO hant021 (hant021001, hant021002, hant021003, hant021004)
				VALUES (:hant021001, :hant021002, :hant021003, :hant021004)`, row)
			if err != nil {
				return 0, err
			}
			return rowsAffected(res), nil
		})
		if err != nil {
			return fmt.Errorf("failed to insert selection log line: %w", err)
		}
	}
	return nil
}

type orderCarrierRow struct {
	OrderID string         `db:"hant001001"`
	Carrier sql.NullString `db:"hant001014"`
}

func (r *SelectionRepository) updateOrders(ctx context.Context, tx *sqlx.Tx, s *domain.CarrierSelection, stamp string) (int, error) {
	if len(s.OrderIDs) == 0 {
		return 0, nil
	}

	var current []orderCarrierRow
	err := r.observe(ctx, "hant001", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(tx, `SELECT hant001001, hant001014 FROM hant001 WHERE hant001001 IN (?) ORDER BY hant001001`, s.OrderIDs)
		if err != nil {
			return 0, err
		}
		err = tx.SelectContext(ctx, &current, q, args...)
		return int64(len(current)), err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read order carriers: %w", err)
	}

	changed := 0
	for _, o := range current {
		previous := domain.NormalizeCarrierCode(o.Carrier.String)
		if previous == s.CarrierCode {
			continue
		}
		if err := r.assignOrder(ctx, tx, s.PickingID, o.OrderID, previous, s.CarrierCode, stamp); err != nil {
			return 0, err
		}
		changed++
	}
	return changed, nil
}

func (r *SelectionRepository) assignOrder(ctx context.Context, tx *sqlx.Tx, pickingID, orderID, previous, carrier, stamp string) error {
	err := r.observe(ctx, "hant001", "update", func(ctx context.Context) (int64, error) {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE hant001 SET
				hant001015 = ?, hant001014 = ?, hant001090 = hant001090 + 1, hant001091 = ?
			WHERE hant001001 = ?`), previous, carrier, stamp, orderID)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	var extRows int64
	err = r.observe(ctx, "hant002", "update", func(ctx context.Context) (int64, error) {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE hant002 SET
				hant002002 = ?, hant002003 = ?, hant002090 = hant002090 + 1, hant002091 = ?
			WHERE hant002001 = ?`), previous, carrier, stamp, orderID)
		if err != nil {
			return 0, err
		}
		extRows = rowsAffected(res)
		return extRows, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update order extension %s: %w", orderID, err)
	}
	if extRows == 0 {
		err = r.observe(ctx, "hant002", "insert", func(ctx context.Context) (int64, error) {
			res, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO hant002 (hant002001, hant002002, hant002003, hant002090, hant002091)
				VALUES (?, ?, ?, 1, ?)`), orderID, previous, carrier, stamp)
			if err != nil {
				return 0, err
			}
			return rowsAffected(res), nil
		})
		if err != nil {
			return fmt.Errorf("failed to insert order extension %s: %w", orderID, err)
		}
	}

	err = r.observe(ctx, "hant011", "update", func(ctx context.Context) (int64, error) {
		res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE hant011 SET
				hant011006 = '1', hant011090 = hant011090 + 1, hant011091 = ?
			WHERE hant011001 = ? AND hant011002 = ?`), stamp, pickingID, orderID)
		if err != nil {
			return 0, err
		}
		return rowsAffected(res), nil
	})
	if err != nil {
		return fmt.Errorf("failed to flag picking lines of order %s: %w", orderID, err)
	}
	return nil
}

func (r *SelectionRepository) updateWork(ctx context.Context, tx *sqlx.Tx, s *domain.CarrierSelection, stamp string) (int, error) {
	changed := 0
	for _, ref := range s.WorkRefs {
		var current sql.NullString
		found := true
		err := r.observe(ctx, "hant012", "select", func(ctx context.Context) (int64, error) {
			err := tx.GetContext(ctx, &current, tx.Rebind(`SELECT hant012005 FROM hant012
				WHERE hant012001 = ? AND hant012002 = ?`), ref.PickingID, ref.WorkSeq)
			if errors.Is(err, sql.ErrNoRows) {
				found = false
				return 0, nil
			}
			return 1, err
		})
		if err != nil {
			return 0, fmt.Errorf("failed to read picking work carrier: %w", err)
		}
		if !found {
			continue
		}

		previous := domain.NormalizeCarrierCode(current.String)
		if previous == s.CarrierCode {
			continue
		}

		err = r.observe(ctx, "hant012", "update", func(ctx context.Context) (int64, error) {
			res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE hant012 SET
					hant012004 = ?, hant012005 = ?, hant012090 = hant012090 + 1, hant012091 = ?
				WHERE hant012001 = ? AND hant012002 = ?`), previous, s.CarrierCode, stamp, ref.PickingID, ref.WorkSeq)
			if err != nil {
				return 0, err
			}
			return rowsAffected(res), nil
		})
		if err != nil {
			return 0, fmt.Errorf("failed to update picking work %s/%d: %w", ref.PickingID, ref.WorkSeq, err)
		}
		changed++
	}
	return changed, nil
}

func (r *SelectionRepository) queueEvent(ctx context.Context, tx *sqlx.Tx, s *domain.CarrierSelection, logID string, now time.Time) error {
	evt := domain.NewCarrierSelectedEvent(s, logID, now.UTC())
	cloudEvent := r.events.CreateCarrierSelectedEvent(ctx, cloudevents.CarrierSelectedData{
		LogID:           evt.LogID,
		WaybillRef:      evt.WaybillRef,
		PickingID:       evt.PickingID,
		CustomerCode:    evt.CustomerCode,
		CarrierCode:     evt.CarrierCode,
		CheapestCarrier: evt.CheapestCarrier,
		Rule:            evt.Rule,
		Reason:          evt.Reason,
		Fee:             evt.Fee,
		LeadTimeDays:    evt.LeadTimeDays,
		ParcelCount:     evt.ParcelCount,
		Volume:          evt.Volume,
		Weight:          evt.Weight,
		OrderIDs:        evt.OrderIDs,
		ShipDate:        evt.ShipDate,
	})

	event, err := outbox.NewOutboxEventFromCloudEvent(s.WaybillRef, "Waybill", r.topic, cloudEvent)
	if err != nil {
		return fmt.Errorf("failed to build outbox event: %w", err)
	}
	return insertOutboxEvent(ctx, r.Store, tx, event)
}
