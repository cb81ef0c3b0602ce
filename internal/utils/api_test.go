package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRouteParam(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		required   bool
		want       string
		wantErrors bool
	}{
		{name: "present", query: "route=421", required: true, want: "421"},
		{name: "trimmed", query: "route=%20421%20", required: true, want: "421"},
		{name: "missing but optional", query: "", required: false},
		{name: "missing and required", query: "", required: true, wantErrors: true},
		{name: "invalid characters", query: "route=42%3B1", required: true, wantErrors: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			got, fieldErrors := ParseRouteParam(params, "route", tt.required, nil)
			assert.Equal(t, tt.want, got)
			if tt.wantErrors {
				assert.Contains(t, fieldErrors, "route")
			} else {
				assert.Empty(t, fieldErrors)
			}
		})
	}
}

func TestParseRouteListParam(t *testing.T) {
	params := url.Values{"route": {"421, 405,,421"}}
	routes, fieldErrors := ParseRouteListParam(params, "route", nil)
	assert.Equal(t, []string{"421", "405"}, routes)
	assert.Empty(t, fieldErrors)

	routes, fieldErrors = ParseRouteListParam(url.Values{}, "route", nil)
	assert.Nil(t, routes)
	assert.Empty(t, fieldErrors)

	routes, fieldErrors = ParseRouteListParam(url.Values{"route": {"421,<b>"}}, "route", nil)
	assert.Equal(t, []string{"421"}, routes)
	assert.Len(t, fieldErrors["route"], 1)
}
