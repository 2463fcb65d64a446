package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogIDGenerator(t *testing.T) {
	store := newTestStore(t)
	db := store.DB()
	db.MustExec(`INSERT INTO hant020 (hant020001, hant020002) VALUES ('2401050041', 'EXISTING')`)

	gen := &logIDGenerator{}
	ctx := context.Background()
	jan5 := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	id, err := gen.next(ctx, db, jan5)
	require.NoError(t, err)
	assert.Equal(t, "2401050042", id, "sequence resumes after the stored maximum")

	id, err = gen.next(ctx, db, jan5.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2401050043", id)

	id, err = gen.next(ctx, db, jan5.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "2401060001", id, "a new day starts a new sequence")
}

func TestLogIDGenerator_Exhausted(t *testing.T) {
	store := newTestStore(t)
	gen := &logIDGenerator{day: "240105", last: logIDSeqMax}

	_, err := gen.next(context.Background(), store.DB(), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrLogIDExhausted)
}

func TestLogIDGenerator_SeesRowsFromOtherWriters(t *testing.T) {
	store := newTestStore(t)
	db := store.DB()
	gen := &logIDGenerator{}
	ctx := context.Background()
	jan5 := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)

	id, err := gen.next(ctx, db, jan5)
	require.NoError(t, err)
	assert.Equal(t, "2401050001", id)
	db.MustExec(`INSERT INTO hant020 (hant020001, hant020002) VALUES ('2401050001', 'MINE')`)
	db.MustExec(`INSERT INTO hant020 (hant020001, hant020002) VALUES ('2401050002', 'OTHER')`)

	id, err = gen.next(ctx, db, jan5)
	require.NoError(t, err)
	assert.Equal(t, "2401050003", id, "rows written by another process are not reissued")
}

func TestIsUniqueViolation(t *testing.T) {
	store := newTestStore(t)
	db := store.DB()
	db.MustExec(`INSERT INTO hant020 (hant020001, hant020002) VALUES ('2401050001', 'W1')`)

	_, dupKey := db.Exec(`INSERT INTO hant020 (hant020001, hant020002) VALUES ('2401050001', 'W2')`)
	_, dupWaybill := db.Exec(`INSERT INTO hant020 (hant020001, hant020002) VALUES ('2401050002', 'W1')`)
	_, badTable := db.Exec(`INSERT INTO missing_table (id) VALUES (1)`)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate primary key", dupKey, true},
		{"duplicate unique column", dupWaybill, true},
		{"other database error", badTable, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
