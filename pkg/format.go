package pkg

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEUR renders an amount the French way: "1 234,56 €".
func FormatEUR(v float64) string {
	return FormatAmount(v) + " €"
}

// FormatAmount renders an amount with two decimals, a comma separator and
// space-grouped thousands.
func FormatAmount(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + frac
}
