package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/carrier-selection/pkg/logging"
	"github.com/wms-platform/carrier-selection/pkg/metrics"
	"github.com/wms-platform/carrier-selection/pkg/tracing"
)

// Store wraps a database handle with metrics, logging and tracing
type Store struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewStore creates an instrumented store; m may be nil
func NewStore(db *sqlx.DB, m *metrics.Metrics, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		db:      db,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("sqlstore"),
	}
}

// DB returns the underlying handle
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.observe(ctx, "", "ping", func(ctx context.Context) (int64, error) {
		return 0, s.db.PingContext(ctx)
	})
}

// observe runs one statement under a span and records its metrics
func (s *Store) observe(ctx context.Context, table, operation string, fn func(ctx context.Context) (int64, error)) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "sql."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(tracing.DatabaseSpanAttributes(s.db.DriverName(), operation, table)...),
	)
	defer span.End()

	rows, err := fn(ctx)
	duration := time.Since(start)
	success := err == nil

	if s.metrics != nil {
		s.metrics.RecordDBQuery(table, operation, success, duration)
	}
	s.logger.DatabaseQuery(ctx, table, operation, duration, success, rows)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("db.rows_affected", rows))
	}
	return err
}

// withTx runs fn in a transaction, committing on success and rolling back on error
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "sql.transaction")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.WithError(rbErr).Error("Failed to roll back transaction")
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(tx)
}

func rowsAffected(res interface{ RowsAffected() (int64, error) }) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// in expands a query with IN (?) placeholders and rebinds it for the driver
func in(db DBTX, query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), a, nil
}
