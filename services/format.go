package services

import (
	"fmt"
	"math"
	"strings"
)

// FormatIDR formats an amount as Indonesian Rupiah, e.g. Rp1.234.567.
// Rupiah carries no decimal places; amounts are rounded to the nearest whole
// rupiah and digits are grouped in threes with dots.
func FormatIDR(amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	whole := fmt.Sprintf("%.0f", math.Round(amount))
	result := "Rp" + groupThousands(whole)
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts dots every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
