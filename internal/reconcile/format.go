package reconcile

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ratioBasis     = 10000
	ratioPlaces    = 4
	secondsPerDay  = 86400
	floatPrecision = 30
	unavailable    = "-"
)

// ChangeRatio returns target/current with four decimal places, computed as
// target*10000/current in integer arithmetic. ok is false when current is zero.
func ChangeRatio(current, target *big.Int) (decimal.Decimal, bool) {
	if current == nil || target == nil || current.Sign() <= 0 {
		return decimal.Zero, false
	}
	scaled := new(big.Int).Mul(target, big.NewInt(ratioBasis))
	scaled.Quo(scaled, current)
	return decimal.NewFromBigInt(scaled, -ratioPlaces), true
}

// FormatRatio renders a ratio as "2.0000x", or "-" when unavailable.
func FormatRatio(ratio decimal.Decimal, ok bool) string {
	if !ok {
		return unavailable
	}
	return ratio.StringFixed(ratioPlaces) + "x"
}

// FormatAmount scales a raw integer down by decimals and renders it truncated
// to places with thousands separators.
func FormatAmount(value *big.Int, decimals int32, places int32) string {
	if value == nil {
		return unavailable
	}
	d := decimal.NewFromBigInt(value, -decimals).Truncate(places)
	return groupThousands(d.StringFixed(places))
}

func perDay(rate *big.Int) *big.Int {
	return new(big.Int).Mul(rate, big.NewInt(secondsPerDay))
}

func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + fracPart
	}
	return out
}
