package livefeed

// Headway is the arrival spacing of a route estimated from its next two buses.
type Headway struct {
	Route     string `json:"route"`
	NextBus   int    `json:"next_bus"`
	SecondBus *int   `json:"second_bus"`
	// EstimatedHeadway is in minutes; nil until two buses are known.
	EstimatedHeadway *int `json:"estimated_headway"`
	FrequencyPerHour *int `json:"frequency_per_hour"`
}

// Headways summarises readings per route, in the order routes first appear.
func Headways(readings []BusReading) []Headway {
	var order []string
	first := make(map[string]BusReading)
	second := make(map[string]BusReading)
	for _, r := range readings {
		if _, ok := first[r.Route]; !ok {
			first[r.Route] = r
			order = append(order, r.Route)
			continue
		}
		if _, ok := second[r.Route]; !ok {
			second[r.Route] = r
		}
	}

	out := make([]Headway, 0, len(order))
	for _, route := range order {
		h := Headway{Route: route, NextBus: first[route].ArrivalETA}
		if s, ok := second[route]; ok {
			eta := s.ArrivalETA
			gap := eta - h.NextBus
			h.SecondBus = &eta
			if gap > 0 {
				h.EstimatedHeadway = &gap
				freq := 60 / gap
				h.FrequencyPerHour = &freq
			}
		}
		out = append(out, h)
	}
	return out
}
