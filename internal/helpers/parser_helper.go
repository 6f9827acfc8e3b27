package helpers

import (
	"strconv"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// FormatMoney renders a float amount with two-place rounding. Intermediate
// math stays in decimal; this is output formatting only.
func FormatMoney(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
