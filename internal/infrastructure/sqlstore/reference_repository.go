package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

// ReferenceRepository reads the master tables
type ReferenceRepository struct {
	*Store
}

// NewReferenceRepository creates a reference repository
func NewReferenceRepository(store *Store) *ReferenceRepository {
	return &ReferenceRepository{Store: store}
}

var _ domain.ReferenceRepository = (*ReferenceRepository)(nil)

// ListCarriers returns every carrier ordered by code
func (r *ReferenceRepository) ListCarriers(ctx context.Context) ([]domain.Carrier, error) {
	var rows []carrierRow
	err := r.observe(ctx, "hanm001", "select", func(ctx context.Context) (int64, error) {
		err := r.db.SelectContext(ctx, &rows, `SELECT hanm001001, hanm001002 FROM hanm001 ORDER BY hanm001001`)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list carriers: %w", err)
	}

	carriers := make([]domain.Carrier, 0, len(rows))
	for _, row := range rows {
		carriers = append(carriers, row.toDomain())
	}
	return carriers, nil
}

// FindProducts loads products and their box dimension sets
func (r *ReferenceRepository) FindProducts(ctx context.Context, codes []string) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(codes))
	if len(codes) == 0 {
		return products, nil
	}

	var rows []productRow
	err := r.observe(ctx, "hanm002", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm002001, hanm002002, hanm002003, hanm002004, hanm002005, hanm002006
			FROM hanm002 WHERE hanm002001 IN (?)`, codes)
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	var boxes []boxRow
	err = r.observe(ctx, "hanm003", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm003001, hanm003002, hanm003003, hanm003004, hanm003005
			FROM hanm003 WHERE hanm003001 IN (?) ORDER BY hanm003001, hanm003002`, codes)
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &boxes, q, args...)
		return int64(len(boxes)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find product boxes: %w", err)
	}

	dims := make(map[string][]domain.Dimensions)
	for _, b := range boxes {
		dims[b.ProductCode] = append(dims[b.ProductCode], domain.Dimensions{Length: b.Length, Width: b.Width, Height: b.Height})
	}
	for _, row := range rows {
		products[row.Code] = row.toDomain(dims[row.Code])
	}
	return products, nil
}

// FindRegions maps postal codes to region codes
func (r *ReferenceRepository) FindRegions(ctx context.Context, postalCodes []string) (map[string]string, error) {
	regions := make(map[string]string, len(postalCodes))
	if len(postalCodes) == 0 {
		return regions, nil
	}

	var rows []postalRow
	err := r.observe(ctx, "hanm004", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm004001, hanm004002 FROM hanm004 WHERE hanm004001 IN (?)`, postalCodes)
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find regions: %w", err)
	}

	for _, row := range rows {
		regions[strings.TrimSpace(row.PostalCode)] = strings.TrimSpace(row.RegionCode)
	}
	return regions, nil
}

// FindAreas maps region codes to transportation areas
func (r *ReferenceRepository) FindAreas(ctx context.Context, regionCodes []string) (map[string]string, error) {
	areas := make(map[string]string, len(regionCodes))
	if len(regionCodes) == 0 {
		return areas, nil
	}

	var rows []areaRow
	err := r.observe(ctx, "hanm005", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm005001, hanm005002 FROM hanm005 WHERE hanm005001 IN (?)`, regionCodes)
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find areas: %w", err)
	}

	for _, row := range rows {
		areas[strings.TrimSpace(row.RegionCode)] = strings.TrimSpace(row.AreaCode)
	}
	return areas, nil
}

// ListFeeRules returns the fee rules of every carrier for the areas
func (r *ReferenceRepository) ListFeeRules(ctx context.Context, areaCodes []string) ([]domain.FeeRule, error) {
	if len(areaCodes) == 0 {
		return nil, nil
	}

	var rows []feeRuleRow
	err := r.observe(ctx, "hanm007", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm007001, hanm007002, hanm007003, hanm007004, hanm007005,
				hanm007006, hanm007007, hanm007008, hanm007009
			FROM hanm007 WHERE hanm007002 IN (?)
			ORDER BY hanm007001, hanm007002, hanm007005`, areaCodes)
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list fee rules: %w", err)
	}

	rules := make([]domain.FeeRule, 0, len(rows))
	for _, row := range rows {
		rule, err := row.toDomain()
		if err != nil {
			r.logger.WithError(err).Warn("Skipping fee rule with unknown fee type",
				"carrierCode", row.CarrierCode, "areaCode", row.AreaCode)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// ListCapacities returns every general capacity record
func (r *ReferenceRepository) ListCapacities(ctx context.Context) ([]domain.Capacity, error) {
	var rows []capacityRow
	err := r.observe(ctx, "hanm008", "select", func(ctx context.Context) (int64, error) {
		err := r.db.SelectContext(ctx, &rows, `SELECT hanm008001, hanm008002, hanm008003, hanm008004 FROM hanm008`)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list capacities: %w", err)
	}

	capacities := make([]domain.Capacity, 0, len(rows))
	for _, row := range rows {
		capacities = append(capacities, row.toDomain())
	}
	return capacities, nil
}

// ListSpecialCapacities returns capacity overrides for the dates
func (r *ReferenceRepository) ListSpecialCapacities(ctx context.Context, dates []time.Time) ([]domain.SpecialCapacity, error) {
	if len(dates) == 0 {
		return nil, nil
	}

	var rows []specialCapacityRow
	err := r.observe(ctx, "hanm009", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm009001, hanm009002, hanm009003, hanm009004
			FROM hanm009 WHERE hanm009002 IN (?)`, dateKeys(dates))
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list special capacities: %w", err)
	}

	out := make([]domain.SpecialCapacity, 0, len(rows))
	for _, row := range rows {
		date, err := domain.ParseDate(row.Date)
		if err != nil {
			continue
		}
		out = append(out, domain.SpecialCapacity{
			CarrierCode: domain.NormalizeCarrierCode(row.CarrierCode),
			Date:        date,
			LimitVolume: row.LimitVolume,
			LimitWeight: row.LimitWeight,
		})
	}
	return out, nil
}

// ListHolidays returns calendar rows dated within [from, to]
func (r *ReferenceRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]domain.Holiday, error) {
	var rows []holidayRow
	err := r.observe(ctx, "hanm010", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT hanm010001, hanm010002, hanm010003
			FROM hanm010 WHERE hanm010002 >= ? AND hanm010002 <= ?`)
		err := r.db.SelectContext(ctx, &rows, q, domain.DateKey(from), domain.DateKey(to))
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	out := make([]domain.Holiday, 0, len(rows))
	for _, row := range rows {
		date, err := domain.ParseDate(row.Date)
		if err != nil {
			continue
		}
		out = append(out, domain.Holiday{
			CarrierCode:  domain.NormalizeCarrierCode(row.CarrierCode),
			Date:         date,
			DeliveryMode: row.DeliveryMode,
		})
	}
	return out, nil
}

// ListBranches returns the branches of a ship origin
func (r *ReferenceRepository) ListBranches(ctx context.Context, shipOrigin string) ([]domain.CarrierBranch, error) {
	var rows []branchRow
	err := r.observe(ctx, "hanm006", "select", func(ctx context.Context) (int64, error) {
		q := r.db.Rebind(`SELECT hanm006001, hanm006002, hanm006003, hanm006004 FROM hanm006 WHERE hanm006002 = ?`)
		err := r.db.SelectContext(ctx, &rows, q, shipOrigin)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	out := make([]domain.CarrierBranch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListSpecialLeadTimes returns lead-time overrides for the ship dates
func (r *ReferenceRepository) ListSpecialLeadTimes(ctx context.Context, shipDates []time.Time) ([]domain.SpecialLeadTime, error) {
	if len(shipDates) == 0 {
		return nil, nil
	}

	var rows []specialLeadTimeRow
	err := r.observe(ctx, "hanm011", "select", func(ctx context.Context) (int64, error) {
		q, args, err := in(r.db, `SELECT hanm011001, hanm011002, hanm011003, hanm011004
			FROM hanm011 WHERE hanm011003 IN (?)`, dateKeys(shipDates))
		if err != nil {
			return 0, err
		}
		err = r.db.SelectContext(ctx, &rows, q, args...)
		return int64(len(rows)), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list special lead times: %w", err)
	}

	out := make([]domain.SpecialLeadTime, 0, len(rows))
	for _, row := range rows {
		ship, err := domain.ParseDate(row.ShipDate)
		if err != nil {
			continue
		}
		delivery, err := domain.ParseDate(row.DeliveryDate)
		if err != nil {
			continue
		}
		out = append(out, domain.SpecialLeadTime{
			CarrierCode:    domain.NormalizeCarrierCode(row.CarrierCode),
			PrefectureCode: strings.TrimSpace(row.Prefecture),
			ShipDate:       ship,
			DeliveryDate:   delivery,
		})
	}
	return out, nil
}
