package postgres

import (
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericToDecimal converts a NUMERIC value. ok is false for NaN and
// infinities, which have no decimal representation.
func numericToDecimal(n pgtype.Numeric) (d decimal.NullDecimal, ok bool) {
	if !n.Valid {
		return decimal.NullDecimal{}, true
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.NullDecimal{}, false
	}
	value := n.Int
	if value == nil {
		value = new(big.Int)
	}
	return decimal.NewNullDecimal(decimal.NewFromBigInt(value, n.Exp)), true
}

// dateToTime converts a DATE value to midnight UTC. NULL and infinite
// dates become the zero time.
func dateToTime(d pgtype.Date) time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return time.Time{}
	}
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
