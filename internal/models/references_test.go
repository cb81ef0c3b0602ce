package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmptyReferences(t *testing.T) {
	refs := NewEmptyReferences()

	assert.NotNil(t, refs.Routes, "Routes slice should be initialized, not nil")
	assert.NotNil(t, refs.Sources, "Sources slice should be initialized, not nil")
	assert.Empty(t, refs.Routes)
	assert.Empty(t, refs.Sources)

	jsonData, err := json.Marshal(refs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"routes":[],"sources":[]}`, string(jsonData))
}

func TestReferencesModelJSON(t *testing.T) {
	refs := NewEmptyReferences()
	refs.Routes = append(refs.Routes, RouteReference{ID: "421", Name: "Riverside Line", NormalCapacity: 50, Capacity: 70})
	refs.Sources = append(refs.Sources, SourceReference{Source: "weather", Available: true})

	jsonData, err := json.Marshal(refs)
	require.NoError(t, err)

	var unmarshaled ReferencesModel
	require.NoError(t, json.Unmarshal(jsonData, &unmarshaled))

	require.Len(t, unmarshaled.Routes, 1)
	assert.Equal(t, "421", unmarshaled.Routes[0].ID)
	assert.Equal(t, 70, unmarshaled.Routes[0].Capacity)
	assert.Empty(t, unmarshaled.Routes[0].StopID)
	require.Len(t, unmarshaled.Sources, 1)
	assert.True(t, unmarshaled.Sources[0].Available)
}
