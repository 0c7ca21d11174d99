package util

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1000000)
)

// FormatMoney formats an amount for display, abbreviating thousands and millions
func FormatMoney(value decimal.Decimal) string {
	sign := ""
	if value.IsNegative() {
		sign = "-"
		value = value.Abs()
	}
	if value.GreaterThanOrEqual(million) {
		return fmt.Sprintf("%s$%sM", sign, value.Div(million).StringFixed(2))
	} else if value.GreaterThanOrEqual(thousand) {
		return fmt.Sprintf("%s$%sK", sign, value.Div(thousand).StringFixed(2))
	} else {
		return fmt.Sprintf("%s$%s", sign, value.StringFixed(2))
	}
}

// FormatPnL formats a profit or loss with an explicit sign
func FormatPnL(value decimal.Decimal) string {
	if value.IsPositive() {
		return "+" + FormatMoney(value)
	}
	return FormatMoney(value)
}

// FormatPercent formats a percentage with one decimal place
func FormatPercent(value decimal.Decimal) string {
	return value.StringFixed(1) + "%"
}

// PnLColor names the color for a profit or loss
func PnLColor(value decimal.Decimal) string {
	switch {
	case value.IsPositive():
		return "green"
	case value.IsNegative():
		return "red"
	}
	return "white"
}

// Truncate shortens s to width runes, marking the cut with "…"
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// Pad right-pads s with spaces to width runes after truncating it
func Pad(s string, width int) string {
	s = Truncate(s, width)
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
