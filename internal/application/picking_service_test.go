package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/carrier-selection/internal/domain"
)

func TestPickingService_ListPickings(t *testing.T) {
	updated := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	repo := newFakePickingRepository()
	repo.summary = []domain.PickingSummary{
		{PickingID: "PK002", PickingDate: "20240105", CustomerCode: "C002", CustomerName: "Blue Mart", OrderCount: 2, UnassignedCount: 1, UpdatedAt: updated},
		{PickingID: "PK001", PickingDate: "20240104", CustomerCode: "C001", CustomerName: "Acme Retail", OrderCount: 1},
	}
	svc := NewPickingService(repo, "NONE", nil)

	tests := []struct {
		name      string
		query     ListPickingsQuery
		wantLimit int
		wantSkip  int
		wantPage  int
	}{
		{"defaults", ListPickingsQuery{}, 100, 0, 1},
		{"second page", ListPickingsQuery{Skip: 20, Limit: 10}, 10, 20, 3},
		{"clamped", ListPickingsQuery{Skip: -5, Limit: 5000}, 1000, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.ListPickings(context.Background(), tt.query)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLimit, repo.lastList.Limit)
			assert.Equal(t, tt.wantSkip, repo.lastList.Skip)
			assert.Equal(t, "NONE", repo.lastList.Sentinel)
			assert.Equal(t, tt.wantPage, resp.Page)
			assert.Equal(t, tt.wantLimit, resp.Size)
			assert.Equal(t, int64(2), resp.Total)
			require.Len(t, resp.Pickings, 2)
		})
	}
}

func TestPickingService_ListPickingsMapsRows(t *testing.T) {
	updated := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	repo := newFakePickingRepository()
	repo.summary = []domain.PickingSummary{
		{PickingID: "PK002", StaffName: "Tanaka", OrderCount: 2, UnassignedCount: 1, UpdatedAt: updated},
		{PickingID: "PK001"},
	}

	resp, err := NewPickingService(repo, "", nil).ListPickings(context.Background(), ListPickingsQuery{Query: "PK", UnassignedOnly: true})
	require.NoError(t, err)

	assert.Equal(t, "PK", repo.lastList.Query)
	assert.True(t, repo.lastList.UnassignedOnly)
	assert.Equal(t, "Tanaka", resp.Pickings[0].StaffName)
	assert.Equal(t, 1, resp.Pickings[0].UnassignedCount)
	require.NotNil(t, resp.Pickings[0].UpdatedAt)
	assert.True(t, updated.Equal(*resp.Pickings[0].UpdatedAt))
	assert.Nil(t, resp.Pickings[1].UpdatedAt)
}

func TestPickingService_ListPickingsError(t *testing.T) {
	repo := newFakePickingRepository()
	repo.err = errors.New("db down")

	_, err := NewPickingService(repo, "", nil).ListPickings(context.Background(), ListPickingsQuery{})
	assert.Error(t, err)
}
