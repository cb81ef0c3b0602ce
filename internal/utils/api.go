package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRouteParam reads a single route id from the query parameters.
// A missing value is reported in fieldErrors when required is true.
func ParseRouteParam(params url.Values, key string, required bool, fieldErrors map[string][]string) (string, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	val := strings.TrimSpace(params.Get(key))
	if val == "" {
		if required {
			fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Missing required field %q.", key))
		}
		return "", fieldErrors
	}

	if err := ValidateID(val); err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q: %s.", key, err))
		return "", fieldErrors
	}
	return val, fieldErrors
}

// ParseRouteListParam reads a comma separated list of route ids, e.g. route=421,405.
// An empty parameter yields a nil slice.
func ParseRouteListParam(params url.Values, key string, fieldErrors map[string][]string) ([]string, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}

	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return nil, fieldErrors
	}

	var routes []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" || seen[id] {
			continue
		}
		if err := ValidateID(id); err != nil {
			fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid route id %q: %s.", id, err))
			continue
		}
		seen[id] = true
		routes = append(routes, id)
	}
	return routes, fieldErrors
}
