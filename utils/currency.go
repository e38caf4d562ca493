package utils

import (
	"fmt"
	"strings"
)

// FormatAmount renders an amount in minor units (paise, cents) as a
// currency string with thousands separators, e.g. 150050 INR -> "INR 1,500.50".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	integer := fmt.Sprintf("%d", minor/100)
	decimal := minor % 100

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integer); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integer[start:i]}, groups...)
	}

	formatted := fmt.Sprintf("%s%s.%02d", sign, strings.Join(groups, ","), decimal)
	if currency == "" {
		return formatted
	}
	return strings.ToUpper(currency) + " " + formatted
}
