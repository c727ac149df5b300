package value

import (
	"strconv"
	"strings"
)

// ParseNumber parses a Lua number literal as tonumber would: optional
// surrounding whitespace, optional leading minus, decimal or hexadecimal
// body. The second result reports whether the string spelled a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	parsed, ok := parseNumberBody(s)
	if !ok {
		return 0, false
	}
	if negative {
		parsed = -parsed
	}
	return parsed, true
}

func parseNumberBody(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := s[2:]
		if digits == "" {
			return 0, false
		}
		parsed, err := strconv.ParseUint(digits, 16, 64)
		if err == nil {
			return float64(parsed), true
		}
		return parseWideHex(digits)
	}

	// strconv accepts "inf" and "nan" spellings that Lua does not.
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// parseWideHex accumulates hex digits beyond the 64-bit range. Lua accepts
// such literals, losing precision instead of failing.
func parseWideHex(digits string) (float64, bool) {
	v := 0.0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		switch {
		case c >= '0' && c <= '9':
			v = v*16 + float64(c-'0')
		case c >= 'a' && c <= 'f':
			v = v*16 + float64(c-'a'+10)
		case c >= 'A' && c <= 'F':
			v = v*16 + float64(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}

// FormatNumber renders a number to its canonical decimal form, the
// spelling used when coercing numbers into strings.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
