package pgsource

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Normalize converts a pgx row value to the types report tables carry:
// int64, float64, decimal.Decimal, string, bool and time.Time.
func Normalize(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		if !t.Valid || t.NaN || t.InfinityModifier != pgtype.Finite || t.Int == nil {
			return nil
		}
		return decimal.NewFromBigInt(t.Int, t.Exp)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case float32:
		return float64(t)
	case [16]byte:
		return uuid.UUID(t).String()
	case []byte:
		return string(t)
	}
	return v
}
