package checks

import (
	"fmt"
	"strings"
)

// StringVariable returns a trimmed string variable, or "" when absent.
func (r Request) StringVariable(id string) string {
	v, ok := r.Variables[id]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// StringsVariable returns a list variable. A single string is treated as a
// one-element list.
func (r Request) StringsVariable(id string) []string {
	v, ok := r.Variables[id]
	if !ok || v == nil {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
