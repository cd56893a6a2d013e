// Package pipeline turns the decoded sources into the dashboard's view model:
// key normalization, the ranking/geometry join, selection filtering, ranking
// and the map/table/CSV products.
package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// integralDecimal matches numeric coercion artifacts such as "3509.0".
	integralDecimal = regexp.MustCompile(`^(-?\d+)\.0*$`)
	integerCode     = regexp.MustCompile(`^-?\d+$`)
)

// NormalizeCode returns the canonical join key for a raw region code. Numbers
// and numeric strings share one digit representation; the empty string means
// the code can never match.
func NormalizeCode(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return normalizeCodeString(t)
	case json.Number:
		return normalizeCodeString(t.String())
	case float64:
		return normalizeCodeFloat(t)
	case float32:
		return normalizeCodeFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return ""
	default:
		return normalizeCodeString(fmt.Sprint(t))
	}
}

// normalizeCodeString maps every spelling of a number ("+3509", "3509.0",
// "3.509e3", "03509") to the same digits. Anything non-numeric is only
// trimmed.
func normalizeCodeString(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if m := integralDecimal.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if integerCode.MatchString(s) {
		return normalizeCodeInteger(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return normalizeCodeFloat(f)
	}
	return s
}

// normalizeCodeInteger drops leading zeros. Integers too wide for int64 keep
// their digits.
func normalizeCodeInteger(s string) string {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimLeft(strings.TrimPrefix(s, "-"), "0")
	if digits == "" {
		return "0"
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func normalizeCodeFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == 0 {
		return "0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
