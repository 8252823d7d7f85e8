package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is the last known view and like counters for one content item.
type Record struct {
	Views Count `json:"views"`
	Likes Count `json:"likes"`
}

// Count is a non-negative counter. Decoding accepts any JSON value and
// coerces it: numbers are truncated, numeric strings are parsed, true is 1 and
// everything else (null, false, garbage, negatives) becomes 0.
type Count int64

// Int64 returns the counter as a plain integer.
func (c Count) Int64() int64 { return int64(c) }

// UnmarshalJSON implements json.Unmarshaler with lenient coercion. It never
// fails on well-formed JSON.
func (c *Count) UnmarshalJSON(data []byte) error {
	*c = CoerceJSON(data)
	return nil
}

// CoerceJSON converts a raw JSON value into a Count.
func CoerceJSON(data []byte) Count {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0
	}
	switch trimmed[0] {
	case 't':
		if bytes.Equal(trimmed, []byte("true")) {
			return 1
		}
		return 0
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0
		}
		return CoerceString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil {
			return 0
		}
		return CoerceFloat(f)
	default:
		return 0
	}
}

// CoerceString parses displayed or transmitted text into a Count.
func CoerceString(s string) Count {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0
		}
		return CoerceFloat(float64(n))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return CoerceFloat(f)
}

// CoerceFloat truncates f toward zero and clamps it to [0, MaxInt64].
func CoerceFloat(f float64) Count {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return Count(math.MaxInt64)
	}
	return Count(math.Trunc(f))
}
