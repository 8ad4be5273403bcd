package subdevice

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// document is a decoded JSON object whose values have not been typed yet.
type document map[string]any

// object returns the nested object under key, or nil when it is absent or
// not an object.
func (d document) object(key string) document {
	if v, ok := d[key].(map[string]any); ok {
		return document(v)
	}
	return nil
}

func (d document) intAt(key string, def int) int {
	v, ok := d[key]
	if !ok {
		return def
	}
	return asInt(v, def)
}

func (d document) floatAt(key string, def float64) float64 {
	v, ok := d[key]
	if !ok {
		return def
	}
	return asFloat(v, def)
}

func (d document) boolAt(key string, def bool) bool {
	v, ok := d[key]
	if !ok {
		return def
	}
	return asBool(v, def)
}

func (d document) stringAt(key, def string) string {
	v, ok := d[key]
	if !ok {
		return def
	}
	return asString(v, def)
}

// asInt coerces a decoded JSON value to int. Fractional numbers truncate
// toward zero; anything unusable yields def.
func asInt(v any, def int) int {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	case float64:
		if !math.IsNaN(val) && !math.IsInf(val, 0) {
			return int(val)
		}
	case int:
		return val
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	}
	return def
}

func asFloat(v any, def float64) float64 {
	var f float64
	switch val := v.(type) {
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case float64:
		f = val
	case int:
		f = float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// asBool accepts JSON booleans, numbers (non-zero is true) and the strings
// understood by strconv.ParseBool.
func asBool(v any, def bool) bool {
	switch val := v.(type) {
	case bool:
		return val
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f != 0
		}
	case float64:
		return val != 0
	case int:
		return val != 0
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(val)); err == nil {
			return b
		}
	}
	return def
}

func asString(v any, def string) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return def
}
