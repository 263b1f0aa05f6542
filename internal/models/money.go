package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cents is a USD amount in integer cents. Balances, wagers and charge
// amounts are all carried as cents internally and only rendered as
// two-decimal dollar values at the API boundary.
type Cents int64

// ToCents normalizes a dollar amount to cents, rounding half away from
// zero at the second fraction digit.
func ToCents(dollars float64) Cents {
	return Cents(math.Round(dollars * 100))
}

// ParseUSD parses a decimal dollar string (e.g. "10.00", "0.25") as
// reported by the payment gateway. Anything past two fraction digits is
// rounded half away from zero.
func ParseUSD(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ToCents(f), nil
}

// Dollars returns the amount as a float dollar value with exactly two
// decimal places of precision.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	return fmt.Sprintf("%.2f", c.Dollars())
}
