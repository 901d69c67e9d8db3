package app

import (
	"net/url"
	"strconv"
	"strings"
)

// Reserved query parameters that never become filters.
var reservedParams = map[string]bool{
	"schema": true,
	"format": true,
	"form":   true,
}

// ParseFilters turns list-mode query parameters into store filters.
// Boolean literals coerce to bool; comma-separated values become a list
// with per-element numeric-or-string typing; parameters that cannot be
// applied are silently dropped rather than failing the request.
func ParseFilters(query url.Values) map[string]any {
	filters := make(map[string]any)
	for key, values := range query {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		raw := values[0]
		if raw == "" {
			continue
		}

		switch strings.ToLower(raw) {
		case "true":
			filters[key] = true
			continue
		case "false":
			filters[key] = false
			continue
		}

		if strings.Contains(raw, ",") {
			parts := strings.Split(raw, ",")
			list := make([]any, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p == "" {
					continue
				}
				list = append(list, coerceElement(p))
			}
			if len(list) > 0 {
				filters[key] = list
			}
			continue
		}

		filters[key] = coerceElement(raw)
	}
	return filters
}

// coerceElement types one filter element: integer, then float, then
// plain string.
func coerceElement(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
