package core

import "github.com/shopspring/decimal"

func init() {
	// amounts are exchanged as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Percentage returns part/total*100 rounded to 2 decimal places, 0 when total is 0.
func Percentage(part, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}
