package common

import (
	decimal2 "github.com/govalues/decimal"
)

type Decimal struct {
	decimal2.Decimal
}

func (dec *Decimal) Equal(o *Decimal) bool {
	return dec.Decimal.Cmp(o.Decimal) == 0
}

func (dec *Decimal) String() string {
	return dec.Decimal.String()
}

// NewDecimalFromRaw interprets raw as an already-scaled integer with
// the given scale, e.g. raw 12345 at scale 2 is 123.45.
func NewDecimalFromRaw(raw int64, scale int) (Decimal, error) {
	d, err := decimal2.NewFromInt64(raw/PowersOfTen[scale], raw%PowersOfTen[scale], scale)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{Decimal: d}, nil
}

var PowersOfTen = []int64{
	1,
	10,
	100,
	1000,
	10000,
	100000,
	1000000,
	10000000,
	100000000,
	1000000000,
	10000000000,
	100000000000,
	1000000000000,
	10000000000000,
	100000000000000,
	1000000000000000,
	10000000000000000,
	100000000000000000,
	1000000000000000000,
}

// ExpToScale is 10^scale as a float divisor for decimal-to-double.
func ExpToScale(scale int) float64 {
	return float64(PowersOfTen[scale])
}
