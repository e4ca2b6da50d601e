package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fastygo/planner/domain"
)

func nullTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

// dateArg encodes a calendar date as a UTC midnight for DATE columns.
func dateArg(d domain.Date) time.Time {
	return d.Time(time.UTC)
}

func dateArgs(dates []domain.Date) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = dateArg(d)
	}
	return out
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
