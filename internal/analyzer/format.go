package analyzer

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DateLayout is the day.month.year layout used in user facing texts.
const DateLayout = "02.01.2006"

// FormatMoney renders a whole-ruble amount with thousands separators, e.g. "55,000 ₽".
func FormatMoney(d decimal.Decimal) string {
	return humanize.Comma(d.Round(0).IntPart()) + " ₽"
}

// Days renders a day count with the right noun, e.g. "1 day", "14 days".
func Days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}
