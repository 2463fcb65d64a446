package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/internal/domain"
	"github.com/wms-platform/carrier-selection/pkg/cloudevents"
	"github.com/wms-platform/carrier-selection/pkg/kafka"
)

var fixedNow = time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC)

func newSeededSelectionRepository(t *testing.T) (*SelectionRepository, *Store) {
	t.Helper()
	store := newTestStore(t)
	seedReference(t, store.DB())
	seedPicking(t, store.DB())

	repo := NewSelectionRepository(store, cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection), kafka.Topics.ShippingEvents)
	repo.now = func() time.Time { return fixedNow }
	return repo, store
}

func pk001Selection(carrier string) *domain.CarrierSelection {
	return &domain.CarrierSelection{
		WaybillRef:      "O1",
		PickingID:       "PK001",
		CustomerCode:    "C001",
		ShipDate:        day(2024, 1, 8),
		ParcelCount:     2,
		Volume:          12,
		Weight:          7.5,
		CheapestCarrier: "SAGAWA",
		CarrierCode:     carrier,
		Rule:            domain.RuleCost,
		Reason:          domain.ReasonLowestCost,
		Fee:             decimal.NewFromInt(800),
		LeadTime:        1,
		Lines: []domain.SelectionLogLine{
			{ProductCode: "P1", Girth: 60, BoxCount: 1},
			{ProductCode: "P2", Girth: 90, BoxCount: 1},
		},
		OrderIDs: []string{"O1", "O2"},
		WorkRefs: []domain.PickingWorkRef{
			{PickingID: "PK001", WorkSeq: 1, OrderID: "O1"},
			{PickingID: "PK001", WorkSeq: 2, OrderID: "O2"},
		},
	}
}

func countRows(t *testing.T, store *Store, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, store.DB().Rebind(query), args...))
	return n
}

func TestSelectionRepository_SaveSelection_AssignsCarrier(t *testing.T) {
	repo, store := newSeededSelectionRepository(t)
	ctx := context.Background()

	result, err := repo.SaveSelection(ctx, pk001Selection("SAGAWA"))
	require.NoError(t, err)

	assert.Equal(t, "2401050001", result.LogID)
	assert.True(t, result.LogCreated)
	assert.Equal(t, 2, result.OrdersChanged)
	assert.Equal(t, 2, result.WorkChanged)
	assert.True(t, result.EventQueued)

	var order struct {
		Carrier  string `db:"hant001014"`
		Original string `db:"hant001015"`
		Count    int    `db:"hant001090"`
		Stamp    string `db:"hant001091"`
	}
	require.NoError(t, store.DB().Get(&order, `SELECT hant001014, hant001015, hant001090, hant001091 FROM hant001 WHERE hant001001 = 'O2'`))
	assert.Equal(t, "SAGAWA", order.Carrier)
	assert.Equal(t, "YAMATO", order.Original, "previous carrier is stashed")
	assert.Equal(t, 1, order.Count)
	assert.Equal(t, "20240105093000", order.Stamp)

	var ext struct {
		Original string `db:"hant002002"`
		Chosen   string `db:"hant002003"`
	}
	require.NoError(t, store.DB().Get(&ext, `SELECT hant002002, hant002003 FROM hant002 WHERE hant002001 = 'O2'`))
	assert.Equal(t, "YAMATO", ext.Original)
	assert.Equal(t, "SAGAWA", ext.Chosen)
	assert.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM hant002 WHERE hant002001 = 'O1' AND hant002003 = 'SAGAWA'`),
		"missing extension row is created")

	assert.Equal(t, 3, countRows(t, store, `SELECT COUNT(*) FROM hant011 WHERE hant011001 = 'PK001' AND hant011006 = '1'`))
	assert.Equal(t, 2, countRows(t, store, `SELECT COUNT(*) FROM hant012 WHERE hant012001 = 'PK001' AND hant012005 = 'SAGAWA'`))
	assert.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM hant012 WHERE hant012002 = 2 AND hant012004 = 'YAMATO'`))

	assert.Equal(t, 2, countRows(t, store, `SELECT COUNT(*) FROM hant021 WHERE hant021001 = ?`, result.LogID))

	var payload string
	require.NoError(t, store.DB().Get(&payload, `SELECT payload FROM outbox_events WHERE aggregate_id = 'O1'`))
	var event cloudevents.WMSCloudEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &event))
	assert.Equal(t, cloudevents.CarrierSelected, event.Type)
	assert.Equal(t, "waybill/O1", event.Subject)
	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "SAGAWA", data["carrierCode"])
	assert.Equal(t, result.LogID, data["logId"])
}

func TestSelectionRepository_SaveSelection_Idempotent(t *testing.T) {
	repo, store := newSeededSelectionRepository(t)
	ctx := context.Background()

	first, err := repo.SaveSelection(ctx, pk001Selection("SAGAWA"))
	require.NoError(t, err)

	second, err := repo.SaveSelection(ctx, pk001Selection("SAGAWA"))
	require.NoError(t, err)

	assert.Equal(t, first.LogID, second.LogID)
	assert.False(t, second.LogCreated)
	assert.Zero(t, second.OrdersChanged)
	assert.Zero(t, second.WorkChanged)
	assert.False(t, second.EventQueued)

	assert.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM hant020`))
	assert.Equal(t, 2, countRows(t, store, `SELECT COUNT(*) FROM hant021`))
	assert.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM outbox_events`))
	assert.Equal(t, 2, countRows(t, store, `SELECT hant020090 FROM hant020`), "log update count is bumped")
	assert.Equal(t, 1, countRows(t, store, `SELECT hant001090 FROM hant001 WHERE hant001001 = 'O2'`),
		"unchanged orders are not rewritten")
}

func TestSelectionRepository_SaveSelection_Reassign(t *testing.T) {
	repo, store := newSeededSelectionRepository(t)
	ctx := context.Background()

	_, err := repo.SaveSelection(ctx, pk001Selection("SAGAWA"))
	require.NoError(t, err)

	s := pk001Selection("YAMATO")
	s.Lines = s.Lines[:1]
	result, err := repo.SaveSelection(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, result.OrdersChanged)
	assert.True(t, result.EventQueued)

	var original string
	require.NoError(t, store.DB().Get(&original, `SELECT hant001015 FROM hant001 WHERE hant001001 = 'O1'`))
	assert.Equal(t, "SAGAWA", original)
	assert.Equal(t, 1, countRows(t, store, `SELECT COUNT(*) FROM hant021 WHERE hant021001 = ?`, result.LogID),
		"log lines are replaced")
	assert.Equal(t, 2, countRows(t, store, `SELECT COUNT(*) FROM outbox_events`))
}

func TestSelectionRepository_SaveSelection_RollsBack(t *testing.T) {
	repo, store := newSeededSelectionRepository(t)

	s := pk001Selection("SAGAWA")
	s.Lines = append(s.Lines, s.Lines[0]) // duplicate primary key in hant021

	_, err := repo.SaveSelection(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)

	assert.Zero(t, countRows(t, store, `SELECT COUNT(*) FROM hant020`))
	assert.Zero(t, countRows(t, store, `SELECT COUNT(*) FROM outbox_events`))
	assert.Equal(t, "YAMATO", func() string {
		var c string
		require.NoError(t, store.DB().Get(&c, `SELECT hant001014 FROM hant001 WHERE hant001001 = 'O2'`))
		return c
	}())
}

func waybillSelection(waybill string) *domain.CarrierSelection {
	s := pk001Selection("SAGAWA")
	s.WaybillRef = waybill
	s.OrderIDs = nil
	s.WorkRefs = nil
	return s
}

func TestSelectionRepository_SaveSelection_LogIDsAcrossRepositories(t *testing.T) {
	repoA, store := newSeededSelectionRepository(t)
	repoB := NewSelectionRepository(store, cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection), kafka.Topics.ShippingEvents)
	repoB.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	steps := []struct {
		repo    *SelectionRepository
		waybill string
		wantID  string
	}{
		{repoA, "WA0", "2401050001"},
		{repoB, "WB0", "2401050002"},
		{repoA, "WA1", "2401050003"},
		{repoB, "WB1", "2401050004"},
	}

	for _, step := range steps {
		result, err := step.repo.SaveSelection(ctx, waybillSelection(step.waybill))
		require.NoError(t, err, step.waybill)
		assert.Equal(t, step.wantID, result.LogID, step.waybill)
		assert.True(t, result.LogCreated, step.waybill)
	}
	assert.Equal(t, 4, countRows(t, store, `SELECT COUNT(*) FROM hant020`))
}

func TestSelectionRepository_SaveSelection_ConcurrentRepositories(t *testing.T) {
	_, store := newSeededSelectionRepository(t)
	ctx := context.Background()

	const writers = 4
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		repo := NewSelectionRepository(store, cloudevents.NewEventFactory(cloudevents.SourceCarrierSelection), kafka.Topics.ShippingEvents)
		repo.now = func() time.Time { return fixedNow }
		wg.Add(1)
		go func(waybill string) {
			defer wg.Done()
			_, err := repo.SaveSelection(ctx, waybillSelection(waybill))
			errs <- err
		}(fmt.Sprintf("W%d", i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, writers, countRows(t, store, `SELECT COUNT(DISTINCT hant020001) FROM hant020`))
}
