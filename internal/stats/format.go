package stats

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pesoPrinter = message.NewPrinter(language.English)

// FormatPeso renders an amount with thousands grouping and two decimals,
// e.g. ₱1,234,567.50.
func FormatPeso(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	amount = amount.Abs()
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Mul(hundred).Round(0).IntPart()
	units := whole.IntPart()
	if cents == 100 {
		units++
		cents = 0
	}
	// amounts that round to zero carry no sign
	sign := ""
	if negative && (units != 0 || cents != 0) {
		sign = "-"
	}
	return sign + "₱" + pesoPrinter.Sprintf("%d", units) + fmt.Sprintf(".%02d", cents)
}

// FormatPercent renders a rate such as 75.5 as "75.50%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.StringFixed(2) + "%"
}
