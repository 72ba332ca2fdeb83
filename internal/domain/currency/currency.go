// Package currency converts dashboard-formatted currency text into amounts.
package currency

import (
	"math"
	"strconv"
	"strings"
)

// suffixes is ordered longest first so "MM" is never read as "M".
var suffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"MM", 1e6},
	{"B", 1e9},
	{"M", 1e6},
	{"K", 1e3},
}

// Parse converts text such as "$2.36MM" or "$150.9K" into an amount.
// Blank, "-", "N/A" and anything unparseable yield 0.
func Parse(text string) float64 {
	v, _ := ParseChecked(text)
	return v
}

// ParseChecked behaves like Parse but reports whether the text was coerced
// to 0 because it could not be read. Placeholders ("", "-", "N/A") are
// considered valid zeros.
func ParseChecked(text string) (float64, bool) {
	s := normalize(text)
	if isPlaceholder(s) {
		return 0, true
	}

	multiplier := 1.0
	for _, sf := range suffixes {
		if strings.HasSuffix(s, sf.suffix) {
			multiplier = sf.multiplier
			s = strings.TrimSuffix(s, sf.suffix)
			break
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	// "1e300B" parses but overflows once the suffix is applied.
	amount := v * multiplier
	if math.IsInf(amount, 0) || math.Abs(amount) >= maxAmount {
		return 0, false
	}
	return roundCents(amount), true
}

func normalize(text string) string {
	s := strings.ToUpper(strings.TrimSpace(text))
	s = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "", "\t", "").Replace(s)
	return s
}

func isPlaceholder(s string) bool {
	switch s {
	case "", "-", "N/A", "NA", "--":
		return true
	}
	return false
}

// maxAmount bounds readable amounts. Past it float64 no longer resolves
// cents and derived percentages can overflow.
const maxAmount = 1e15

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
