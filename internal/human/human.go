// Package human implements the human-friendly representations of sizes,
// transfer rates, durations and ratios accepted by the configuration file and
// the command line, and used when printing progress.
//
// Every type implements flag.Value, fmt.Formatter and the text, JSON and YAML
// codecs so it can be used directly in configuration structs and flag sets.
package human

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isSign(r rune) bool { return r == '-' || r == '+' }

// splitNumber returns the decimal number at the beginning of s and the rest of
// the string, with leading spaces removed.
func splitNumber(s string) (number, rest string) {
	i := 0
	if i < len(s) && isSign(rune(s[i])) {
		i++
	}
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(rune(s[i])) {
			i++
		}
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// splitUnit separates the trailing letters of s from the value that precedes
// them.
func splitUnit(s string) (value, unit string) {
	i := strings.LastIndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if i < 0 {
		return "", s
	}
	return strings.TrimRightFunc(s[:i+1], unicode.IsSpace), s[i+1:]
}

// match reports whether s is a case-insensitive prefix of pattern, so "k",
// "KB" and "kb" all match "KB".
func match(s, pattern string) bool {
	return len(s) <= len(pattern) && strings.EqualFold(s, pattern[:len(s)])
}

func trimZeros(s string) string {
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// ftoa formats value/scale with a precision that decreases as the magnitude
// grows.
func ftoa(value, scale float64) string {
	if value == 0 {
		return "0"
	}
	if value < 0 {
		return "-" + ftoa(-value, scale)
	}
	v := value / scale
	prec := 2
	switch {
	case v >= 100:
		prec = 0
	case v >= 10:
		prec = 1
	}
	return trimZeros(strconv.FormatFloat(v, 'f', prec, 64))
}

func printError(verb rune, typ, val any) string {
	return fmt.Sprintf("%%!%c(%T=%v)", verb, typ, val)
}
