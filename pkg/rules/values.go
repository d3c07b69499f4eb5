package rules

import (
	"encoding/json"
	"strconv"
	"strings"
)

// toFloat converts the numeric shapes a decoded JSON value can take.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// pair splits a between operand: either "a,b" or a two-element array.
func pair(v any) (any, any, bool) {
	switch p := v.(type) {
	case []any:
		if len(p) != 2 {
			return nil, nil, false
		}
		return p[0], p[1], true
	case []float64:
		if len(p) != 2 {
			return nil, nil, false
		}
		return p[0], p[1], true
	case string:
		parts := strings.Split(p, ",")
		if len(parts) != 2 {
			return nil, nil, false
		}
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
	default:
		return nil, nil, false
	}
}

// isBlank reports whether a value counts as absent for null checks.
func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// ParseValue interprets user-typed text for a field: numeric fields get a
// float64 when the text parses, everything else stays a string.
func ParseValue(field, text string) any {
	f, ok := LookupField(field)
	if ok && f.Type == FieldNumber {
		if n, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return n
		}
	}
	return text
}

// ValueString renders a rule value for display and editing.
func ValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = ValueString(e)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
