// Package nodeconfig reads loosely typed node configuration values.
package nodeconfig

import (
	"encoding/json"
	"strconv"
	"strings"
)

// String returns config[key] as a trimmed string.
func String(config map[string]any, key string) string {
	value, ok := config[key].(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(value)
}

// StringList accepts a list of strings or a comma separated string and
// returns the non-empty trimmed entries.
func StringList(config map[string]any, key string) []string {
	var raw []string

	switch value := config[key].(type) {
	case string:
		raw = strings.Split(value, ",")
	case []string:
		raw = value
	case []any:
		for _, item := range value {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	out := make([]string, 0, len(raw))

	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}

	return out
}

// Int returns config[key] as an int. JSON numbers decode as float64.
func Int(config map[string]any, key string) (int, bool) {
	switch value := config[key].(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(value), true
	case json.Number:
		i, err := value.Int64()

		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(value))

		return i, err == nil
	default:
		return 0, false
	}
}

// StringMap returns config[key] as a map of strings, skipping non-string values.
func StringMap(config map[string]any, key string) map[string]string {
	out := make(map[string]string)

	switch value := config[key].(type) {
	case map[string]string:
		for k, v := range value {
			out[k] = v
		}
	case map[string]any:
		for k, v := range value {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}

	return out
}
