package manifest

import (
	"reflect"
	"strings"
)

// RequiredVariables returns the ids of every variable the manifest could
// require, across manifest-level and per-check declarations. Check-level
// requirements count even when the manifest-level declaration is optional.
func RequiredVariables(m Manifest) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(vars []Variable) {
		for _, v := range vars {
			id := strings.TrimSpace(v.ID)
			if !v.Required || id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	add(m.Variables)
	for _, check := range m.Checks {
		add(check.Variables)
	}
	return out
}

// MissingVariables reports the required variables without a usable value in
// values. Absent keys, nil, empty strings and empty arrays count as missing.
func MissingVariables(m Manifest, values map[string]any) []string {
	var missing []string
	for _, id := range RequiredVariables(m) {
		if isEmptyValue(values[id]) {
			missing = append(missing, id)
		}
	}
	return missing
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
