package builtin

import (
	"fmt"
	"strconv"
	"strings"
)

// stringParam reads key as a trimmed string. Numbers and booleans coming
// from a parsed command line are accepted as their text form.
func stringParam(params map[string]any, key string) (string, bool, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", false, nil
	}
	switch v := raw.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != "", nil
	case fmt.Stringer:
		s := strings.TrimSpace(v.String())
		return s, s != "", nil
	case bool:
		return strconv.FormatBool(v), true, nil
	case int:
		return strconv.Itoa(v), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	default:
		return "", false, fmt.Errorf("param '%s' must be a string", key)
	}
}

func requiredString(params map[string]any, key string) (string, error) {
	s, ok, err := stringParam(params, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("missing required param: %s", key)
	}
	return s, nil
}

func parseBoolDefault(raw any, fallback bool) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		text := strings.TrimSpace(strings.ToLower(v))
		if text == "" {
			return fallback
		}
		if text == "1" || text == "true" || text == "yes" || text == "y" {
			return true
		}
		if text == "0" || text == "false" || text == "no" || text == "n" {
			return false
		}
		return fallback
	default:
		return fallback
	}
}
