package occupancy

import (
	"fmt"
	"math"
)

// Distribution is the share of live buses in each band, in percent rounded to 0.1.
type Distribution struct {
	VeryComfortable float64 `json:"very_comfortable"`
	Comfortable     float64 `json:"comfortable"`
	Crowded         float64 `json:"crowded"`
	VeryCrowded     float64 `json:"very_crowded"`
	Total           int     `json:"total_buses_analyzed"`
}

// NewDistribution aggregates the bands of every bus with a known load.
func NewDistribution(bands ...ComfortBand) Distribution {
	var counts [4]int
	for _, b := range bands {
		if b >= VeryComfortable && b <= VeryCrowded {
			counts[b]++
		}
	}

	d := Distribution{Total: counts[0] + counts[1] + counts[2] + counts[3]}
	if d.Total == 0 {
		return d
	}
	pct := func(n int) float64 {
		return math.Round(float64(n)/float64(d.Total)*1000) / 10
	}
	d.VeryComfortable = pct(counts[VeryComfortable])
	d.Comfortable = pct(counts[Comfortable])
	d.Crowded = pct(counts[Crowded])
	d.VeryCrowded = pct(counts[VeryCrowded])
	return d
}

// Recommendation describes the current period from the dominant band.
func (d Distribution) Recommendation() string {
	switch {
	case d.Total == 0:
		return "no live buses to analyze"
	case d.VeryComfortable >= 50:
		return "great time to travel, most buses are very comfortable"
	case d.Comfortable >= 40:
		return "good time to travel, moderate crowding"
	case d.VeryCrowded >= 50:
		return "avoid this period, most buses are very crowded"
	default:
		return "mixed conditions, choose your bus"
	}
}

// BusLoad is the passenger load of one upcoming bus. Capacity is zero when unknown.
type BusLoad struct {
	Passengers float64
	Capacity   int
	Known      bool
}

// lighter reports whether b is less loaded than other, by rate when both capacities
// are known and by passengers otherwise.
func (b BusLoad) lighter(other BusLoad) bool {
	if b.Capacity > 0 && other.Capacity > 0 {
		return b.Passengers/float64(b.Capacity) < other.Passengers/float64(other.Capacity)
	}
	return b.Passengers < other.Passengers
}

// NextBusAdvice compares the first and second upcoming bus of a route. The first bus
// is banded exactly as Classify bands it.
func (c *Classifier) NextBusAdvice(route string, first, second BusLoad) string {
	if !first.Known {
		return "not enough data to recommend a bus"
	}

	n1 := int(math.Round(first.Passengers))
	switch c.Classify(route, first.Passengers, first.Capacity) {
	case VeryComfortable:
		return fmt.Sprintf("take the first bus, about %d passengers (very comfortable)", n1)
	case Comfortable:
		return fmt.Sprintf("first bus is fine, about %d passengers (seats available)", n1)
	}
	switch {
	case second.Known && second.lighter(first):
		return fmt.Sprintf("wait for the second bus, %d vs %d passengers", int(math.Round(second.Passengers)), n1)
	case second.Known:
		return fmt.Sprintf("both buses crowded, consider another time (%d and %d passengers)", n1, int(math.Round(second.Passengers)))
	default:
		return fmt.Sprintf("first bus is crowded, about %d passengers", n1)
	}
}
