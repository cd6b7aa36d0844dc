package service

import (
	"context"
	"strings"

	"sinai/internal/apierror"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// centavo is the minimum amount a movement may carry.
var centavo = decimal.New(1, -2)

// montoInvalido reports amounts below one cent or with sub-cent precision;
// the numeric(12,2) columns would round the latter away from the in-memory
// saldo math.
func montoInvalido(m decimal.Decimal) bool {
	return m.LessThan(centavo) || !m.Equal(m.Round(2))
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// translateLockErr maps row-lock contention surfaced by Postgres mid-sequence
// to a conflict error so callers can retry; anything else passes through.
func translateLockErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "could not obtain lock") {
		return apierror.Conflict("La operación chocó con otra modificación concurrente, reintente")
	}
	return err
}
