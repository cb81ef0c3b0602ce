package occupancy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietride.org/internal/appconf"
)

func TestClassifyCountBoundaries(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	testCases := []struct {
		passengers float64
		want       ComfortBand
	}{
		{0, VeryComfortable},
		{20, VeryComfortable},
		{20.5, Comfortable},
		{21, Comfortable},
		{40, Comfortable},
		{41, Crowded},
		{60, Crowded},
		{61, VeryCrowded},
		{120, VeryCrowded},
	}

	for _, tc := range testCases {
		got := c.ClassifyCount("421", tc.passengers)
		assert.Equal(t, tc.want, got, "passengers=%v", tc.passengers)
	}

	assert.True(t, c.ClassifyCount("421", 20).IsQuiet())
	assert.True(t, c.ClassifyCount("421", 21).IsQuiet())
	assert.True(t, c.ClassifyCount("421", 40).IsQuiet())
	assert.False(t, c.ClassifyCount("421", 41).IsQuiet())
}

func TestClassifyRateBoundaries(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	assert.Equal(t, VeryComfortable, c.ClassifyRate("421", 0.30))
	assert.Equal(t, Comfortable, c.ClassifyRate("421", 0.31))
	assert.Equal(t, Comfortable, c.ClassifyRate("421", 0.60))
	assert.Equal(t, Crowded, c.ClassifyRate("421", 0.61))
	assert.Equal(t, Crowded, c.ClassifyRate("421", 0.85))
	assert.Equal(t, VeryCrowded, c.ClassifyRate("421", 0.86))
}

func TestClassifyPrefersRateWhenCapacityKnown(t *testing.T) {
	c := NewClassifier(DefaultThresholds())

	// 35 of 70 is a 0.5 rate; by count it would also be comfortable.
	assert.Equal(t, Comfortable, c.Classify("421", 35, 70))
	// 25 of 40 is 0.625 by rate, but only comfortable by count.
	assert.Equal(t, Crowded, c.Classify("421", 25, 40))
	assert.Equal(t, Comfortable, c.Classify("421", 25, 0))
}

func TestRouteOverrides(t *testing.T) {
	cfg := appconf.Default()
	cfg.Routes = []appconf.Route{
		{ID: "421", NormalCapacity: 50},
		{ID: "400", NormalCapacity: 30, CountThresholds: []int{10, 20, 30}},
	}

	c := NewClassifierFromConfig(&cfg)

	assert.Equal(t, [3]int{20, 40, 60}, c.Thresholds("421").Count)
	assert.Equal(t, [3]int{10, 20, 30}, c.Thresholds("400").Count)
	assert.Equal(t, c.Thresholds("421").Rate, c.Thresholds("400").Rate)
	assert.Equal(t, [3]int{20, 40, 60}, c.Thresholds("unknown").Count)

	assert.Equal(t, VeryComfortable, c.ClassifyCount("421", 15))
	assert.Equal(t, Comfortable, c.ClassifyCount("400", 15))
	assert.Equal(t, VeryCrowded, c.ClassifyCount("400", 31))
}

func TestComfortBand(t *testing.T) {
	assert.Equal(t, "very_comfortable", VeryComfortable.String())
	assert.Equal(t, "very_crowded", VeryCrowded.String())
	assert.Equal(t, "unknown", ComfortBand(9).String())
	assert.Equal(t, "green", VeryComfortable.Color())
	assert.Equal(t, "red", VeryCrowded.Color())
	assert.NotEmpty(t, Crowded.Label())

	assert.Equal(t, Crowded, Worse(Comfortable, Crowded))
	assert.Equal(t, Crowded, Worse(Crowded, VeryComfortable))

	data, err := json.Marshal(map[string]ComfortBand{"comfort": Crowded})
	require.NoError(t, err)
	assert.JSONEq(t, `{"comfort":"crowded"}`, string(data))

	var b ComfortBand
	require.NoError(t, json.Unmarshal([]byte(`"comfortable"`), &b))
	assert.Equal(t, Comfortable, b)
	assert.Error(t, json.Unmarshal([]byte(`"packed"`), &b))
}
