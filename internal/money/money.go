// Package money parses and rounds the amounts typed into forms and sheets.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var Hundred = decimal.NewFromInt(100)

// MaxScale bounds the decimal exponent of any amount we compute with.
const MaxScale = 20

var ErrOutOfRange = fmt.Errorf("amount exponent outside ±%d", MaxScale)

// CheckScale rejects amounts whose exponent would make rescaling explode.
func CheckScale(d decimal.Decimal) error {
	if e := d.Exponent(); e < -MaxScale || e > MaxScale {
		return ErrOutOfRange
	}
	return nil
}

// ParseAmount coerces form text to a decimal. Anything unparseable is zero.
// Spaces are thousand separators. When both ',' and '.' appear the last one
// is the decimal mark; a lone comma is a decimal comma. Exponents beyond
// MaxScale are treated as unparseable.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || CheckScale(d) != nil {
		return decimal.Zero
	}
	return d
}

// ParseInt coerces form text to an int; unparseable text is zero.
func ParseInt(s string) int {
	return int(ParseAmount(s).IntPart())
}

// Percent returns pct percent of base, rounded to two decimals.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(Hundred).Round(2)
}
