package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

const orderColumns = `hant001001, hant001002, hant001003, hant001004, hant001005, hant001006,
	hant001007, hant001008, hant001009, hant001010, hant001011, hant001012, hant001013,
	hant001014, hant001015`

// PickingRepository reads pickings, their orders and the browse list
type PickingRepository struct {
	*Store
}

// NewPickingRepository creates a picking repository
func NewPickingRepository(store *Store) *PickingRepository {
	return &PickingRepository{Store: store}
}

var _ domain.PickingRepository = (*PickingRepository)(nil)

// FindPicking loads the lines and work rows of a picking
func (r *PickingRepository) FindPicking(ctx context.Context, pickingID string) (*domain.Picking, error) {
	var lines []pickingLineRow
	err := r.observe(ctx, "hant011", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT hant011001, hant011002, hant011003, hant011004, hant011005
			FROM hant011 WHERE hant011001 = ? ORDER BY hant011002, hant011003`)
		err := r.db.SelectContext(ctx, &lines, q, pickingID)
		return int64(len(lines)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find picking lines: %w", err)
	}

	var work []pickingWorkRow
	err = r.observe(ctx, "hant012", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT hant012001, hant012002, hant012003, hant012004, hant012005
			FROM hant012 WHERE hant012001 = ? ORDER BY hant012002`)
		err := r.db.SelectContext(ctx, &work, q, pickingID)
		return int64(len(work)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find picking work: %w", err)
	}

	if len(lines) == 0 && len(work) == 0 {
		return nil, domain.ErrPickingNotFound
	}

	picking := &domain.Picking{
		ID:    pickingID,
		Lines: make([]domain.PickingLine, 0, len(lines)),
		Work:  make([]domain.PickingWork, 0, len(work)),
	}
	for _, l := range lines {
		picking.Lines = append(picking.Lines, l.toDomain())
	}
	for _, w := range work {
		picking.Work = append(picking.Work, w.toDomain())
	}
	return picking, nil
}

// FindOrders loads order headers ordered by order ID
func (r *PickingRepository) FindOrders(ctx context.Context, orderIDs []string) ([]domain.OrderHeader, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	var rows []orderRow
	err := r.observe(ctx, "hant001", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT `+orderColumns+` FROM hant001 WHERE hant001001 IN (?) ORDER BY hant001001`, orderIDs)
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := make([]domain.OrderHeader, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toDomain())
	}
	return orders, nil
}

// FindPreviousCarrier returns the carrier most recently assigned to a picked order of the customer.
// Orders holding the unassigned sentinel are skipped.
func (r *PickingRepository) FindPreviousCarrier(ctx context.Context, customerCode, sentinel string) (string, error) {
	var carrier string
	err := r.observe(ctx, "hant001", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT o.hant001014
			FROM hant011 l
			JOIN hant001 o ON o.hant001001 = l.hant011002
			WHERE o.hant001002 = ? AND o.hant001014 IS NOT NULL AND TRIM(o.hant001014) <> ''
				AND TRIM(o.hant001014) <> ?
			ORDER BY o.hant001091 DESC, o.hant001001 DESC
			LIMIT 1`)
		err := r.db.GetContext(ctx, &carrier, q, customerCode, domain.NormalizeCarrierCode(sentinel))
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 1, err
	})
	if err != nil {
		return "", fmt.Errorf("failed to find previous carrier: %w", err)
	}
	return domain.NormalizeCarrierCode(carrier), nil
}

// ListPickings returns one page of the picking browse list and the total match count
func (r *PickingRepository) ListPickings(ctx context.Context, query domain.PickingQuery) ([]domain.PickingSummary, int64, error) {
	args := []interface{}{query.Sentinel}
	var conds []string
	if term := strings.TrimSpace(query.Query); term != "" {
		like := "%" + term + "%"
		conds = append(conds, "(h.hant010001 LIKE ? OR h.hant010004 LIKE ? OR c.hanm012002 LIKE ? OR s.hanm013002 LIKE ?)")
		args = append(args, like, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	inner := `SELECT h.hant010001 AS picking_id,
			h.hant010002 AS picking_date,
			h.hant010004 AS customer_code,
			c.hanm012002 AS customer_name,
			h.hant010003 AS staff_code,
			s.hanm013002 AS staff_name,
			(SELECT COUNT(DISTINCT l.hant011002) FROM hant011 l
				WHERE l.hant011001 = h.hant010001) AS order_count,
			(SELECT COUNT(DISTINCT l.hant011002) FROM hant011 l
				JOIN hant001 o ON o.hant001001 = l.hant011002
				WHERE l.hant011001 = h.hant010001
				AND (o.hant001014 IS NULL OR TRIM(o.hant001014) = '' OR TRIM(o.hant001014) = ?)) AS unassigned_count,
			h.hant010091 AS update_stamp
		FROM hant010 h
		LEFT JOIN hanm012 c ON c.hanm012001 = h.hant010004
		LEFT JOIN hanm013 s ON s.hanm013001 = h.hant010003
		` + where

	outerWhere := ""
	if query.UnassignedOnly {
		outerWhere = "WHERE p.unassigned_count > 0"
	}

	var total int64
	err := r.observe(ctx, "hant010", "count", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT COUNT(*) FROM (` + inner + `) p ` + outerWhere)
		err := r.db.GetContext(ctx, &total, q, args...)
		return total, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pickings: %w", err)
	}

	var rows []pickingSummaryRow
	err = r.observe(ctx, "hant010", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT p.* FROM (` + inner + `) p ` + outerWhere +
			` ORDER BY p.picking_date DESC, p.picking_id LIMIT ? OFFSET ?`)
		pageArgs := append(append([]interface{}{}, args...), query.Limit, query.Skip)
		err := r.db.SelectContext(ctx, &rows, q, pageArgs...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pickings: %w", err)
	}

	summaries := make([]domain.PickingSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.toDomain())
	}
	return summaries, total, nil
}
