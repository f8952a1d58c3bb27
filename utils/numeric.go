package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ToNumber turns a free-form cell value into a finite number.
// Everything except digits, '.' and '-' is dropped before parsing, so
// currency symbols and thousands separators are tolerated; anything that
// still fails to parse (or is not finite) becomes 0.
func ToNumber(value any) float64 {
	s := strings.TrimSpace(toText(value))
	if s == "" {
		return 0
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	n, ok := parseLeadingFloat(b.String())
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// ToDecimal applies the same cleanup as ToNumber and returns a decimal.
func ToDecimal(value any) decimal.Decimal {
	return decimal.NewFromFloat(ToNumber(value))
}

func toText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case json.Number:
		return v.String()
	case decimal.Decimal:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// parseLeadingFloat mirrors a lenient parser: it reads the longest numeric
// prefix ("12.5-3" -> 12.5, "1.2.3" -> 1.2) instead of rejecting the string.
func parseLeadingFloat(s string) (float64, bool) {
	end := 0
	seenDigit, seenDot := false, false
scan:
	for i, r := range s {
		switch {
		case r == '-' && i == 0:
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		default:
			break scan
		}
		end = i + 1
	}
	if !seenDigit {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
