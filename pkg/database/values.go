package database

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrNotNumeric is returned by Float64 for cells that hold no number.
var ErrNotNumeric = errors.New("value is not numeric")

// TimeLayout is the string form date-time cells are rendered in.
const TimeLayout = "2006-01-02 15:04:05"

// Float64 coerces a cell into a float. NULL becomes NaN so absent
// coordinates survive as "not a number" rather than zero.
func Float64(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case []byte:
		return parseFloatText(string(val))
	case string:
		return parseFloatText(val)
	default:
		return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
	}
}

func parseFloatText(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}
	return f, nil
}

// Bool coerces a cell into a boolean. NULL and zero values are false;
// SQLite stores booleans as 0/1 integers.
func Bool(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case int:
		return val != 0
	case int32:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	case []byte:
		return textTruthy(string(val))
	case string:
		return textTruthy(val)
	default:
		return false
	}
}

func textTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes":
		return true
	}
	return false
}

// Key normalises an identifier cell so 7, 7.0 and "7" compare equal.
// NULL, NaN and blank identifiers never match anything.
func Key(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "", false
		}
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case []byte:
		return textKey(string(val))
	case string:
		return textKey(val)
	default:
		return textKey(fmt.Sprint(val))
	}
}

func textKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	return s, true
}

// FormatTime renders t with TimeLayout, adding fractional seconds only
// when they are present.
func FormatTime(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format(TimeLayout + ".999999999")
	}
	return t.Format(TimeLayout)
}

// FormatValue renders a cell for display.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		if math.IsNaN(val) {
			return "NaN"
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return FormatTime(val)
	default:
		return fmt.Sprint(val)
	}
}
