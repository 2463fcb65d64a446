package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	logIDDateLayout = "060102"
	logIDSeqDigits  = 4
	logIDSeqMax     = 9999
)

// ErrLogIDExhausted is returned when a day's log ID sequence is used up
var ErrLogIDExhausted = fmt.Errorf("selection log id sequence exhausted")

// logIDGenerator issues YYMMDDnnnn identifiers. The stored maximum is read inside
// the caller's transaction on every call, so other writers on the same table are
// seen; the in-memory floor keeps IDs rising within this process.
type logIDGenerator struct {
	mu   sync.Mutex
	day  string
	last int
}

func (g *logIDGenerator) next(ctx context.Context, db DBTX, now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := now.Format(logIDDateLayout)
	if day != g.day {
		g.day = day
		g.last = 0
	}

	stored, err := maxLogSeq(ctx, db, day)
	if err != nil {
		return "", err
	}
	seq := max(stored, g.last)
	if seq >= logIDSeqMax {
		return "", ErrLogIDExhausted
	}
	g.last = seq + 1
	return fmt.Sprintf("%s%0*d", day, logIDSeqDigits, g.last), nil
}

func maxLogSeq(ctx context.Context, db DBTX, day string) (int, error) {
	var maxID sql.NullString
	q := db.Rebind(`SELECT MAX(hant020001) FROM hant020 WHERE hant020001 LIKE ?`)
	if err := db.GetContext(ctx, &maxID, q, day+"%"); err != nil {
		return 0, fmt.Errorf("failed to read last log id: %w", err)
	}
	if !maxID.Valid || len(maxID.String) <= len(day) {
		return 0, nil
	}
	seq, err := strconv.Atoi(maxID.String[len(day):])
	if err != nil {
		return 0, nil
	}
	return seq, nil
}
