package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats a decimal money amount as $X,XXX.XX, with a leading
// minus sign for negative values.
func FormatMoney(d decimal.Decimal) string {
	neg := d.Sign() < 0
	s := d.Abs().StringFixed(2)

	// Insert comma separators into the integer part.
	dot := strings.IndexByte(s, '.')
	intPart, fracPart := s[:dot], s[dot:]
	var b strings.Builder
	start := len(intPart) % 3
	if start > 0 {
		b.WriteString(intPart[:start])
	}
	for i := start; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}

	if neg {
		return "-$" + b.String() + fracPart
	}
	return "$" + b.String() + fracPart
}

// FormatPercent formats a percentage value as X.XX%.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatRatio formats a dimensionless ratio to two decimal places.
func FormatRatio(r float64) string {
	return fmt.Sprintf("%.2f", r)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
