package aggregate

import "github.com/shopspring/decimal"

// Tier is the ordinal severity of a daily amount, used to colour heatmap cells.
type Tier int

const (
	TierNone Tier = iota
	TierLow
	TierMedium
	TierHigh
	TierExtreme
)

var (
	tierLowMax    = decimal.NewFromInt(50)
	tierMediumMax = decimal.NewFromInt(200)
	tierHighMax   = decimal.NewFromInt(1000)
)

// Classify maps an amount to its tier. Upper bounds are inclusive:
// 50 is TierLow and 50.01 is TierMedium. Amounts are magnitudes, since
// signs are normalized where transactions enter the system; a negative
// amount is classified as TierNone.
func Classify(a decimal.Decimal) Tier {
	switch {
	case !a.IsPositive():
		return TierNone
	case a.LessThanOrEqual(tierLowMax):
		return TierLow
	case a.LessThanOrEqual(tierMediumMax):
		return TierMedium
	case a.LessThanOrEqual(tierHighMax):
		return TierHigh
	default:
		return TierExtreme
	}
}

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierExtreme:
		return "extreme"
	}
	return "unknown"
}
