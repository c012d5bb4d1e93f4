package calculator

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Normalize converts raw form text into a finite number. It reads the longest
// leading decimal literal (sign, digits, fraction, exponent) after leading
// whitespace and ignores whatever follows, so "12abc" is 12 and "1,000" is 1.
// Empty, non-numeric and overflowing input all yield 0.
func Normalize(raw string) float64 {
	prefix := numericPrefix(strings.TrimLeftFunc(raw, unicode.IsSpace))
	if prefix == "" {
		return 0
	}

	// A range error still carries ±0 on underflow and ±Inf on overflow.
	n, _ := strconv.ParseFloat(prefix, 64)
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0
	}
	return n
}

// numericPrefix returns the longest prefix of s that forms a decimal literal,
// or "" when s does not start with one.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	intDigits := countDigits(s[i:])
	i += intDigits

	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		fracDigits = countDigits(s[i+1:])
		if intDigits > 0 || fracDigits > 0 {
			i += 1 + fracDigits
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if expDigits := countDigits(s[j:]); expDigits > 0 {
			i = j + expDigits
		}
	}

	return s[:i]
}

func countDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
