package format

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats an amount in minor units.
// Example: Currency(19999, "USD") => "$199.99"
func Currency(minor int64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	neg := minor < 0
	if neg {
		minor = -minor
	}
	var out string
	switch currency {
	case "USD", "":
		out = "$" + thousandSep(minor/100) + fmt.Sprintf(".%02d", minor%100)
	default:
		out = currency + " " + thousandSep(minor/100) + fmt.Sprintf(".%02d", minor%100)
	}
	if neg {
		return "-" + out
	}
	return out
}

func thousandSep(n int64) string {
	return printer.Sprintf("%d", n)
}

// Stars expands a 0..5 rating into filled/empty flags for rendering.
func Stars(rating int) []bool {
	rating = ClampRating(rating)
	out := make([]bool, MaxRating)
	for i := range out {
		out[i] = i < rating
	}
	return out
}

// MaxRating is the number of stars shown per product.
const MaxRating = 5

// ClampRating bounds a rating to 0..MaxRating.
func ClampRating(rating int) int {
	if rating < 0 {
		return 0
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
