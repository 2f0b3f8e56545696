package common

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRegex extracts the first run of digits, comma group separators and
// an optional decimal part after an optional leading currency symbol.
var priceRegex = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)

// ParsePrice converts a currency-formatted string ("$1,234.56") to a
// decimal value. Returns nil when the input is empty or contains no
// price-like pattern.
func ParsePrice(input string) *float64 {
	if input == "" {
		return nil
	}

	match := priceRegex.FindStringSubmatch(input)
	if match == nil {
		return nil
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", ""), 64)
	if err != nil {
		return nil
	}

	return &value
}

// FormatPrice renders a decimal price as the two-digit string used for
// price-token fuzzy indexing. Nil prices render as the empty string.
func FormatPrice(price *float64) string {
	if price == nil {
		return ""
	}
	return strconv.FormatFloat(*price, 'f', 2, 64)
}
