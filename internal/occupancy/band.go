package occupancy

import (
	"encoding/json"
	"fmt"
)

// ComfortBand is a discrete crowding level, ordered from least to most crowded.
type ComfortBand int

const (
	VeryComfortable ComfortBand = iota
	Comfortable
	Crowded
	VeryCrowded
)

var bandNames = [...]string{"very_comfortable", "comfortable", "crowded", "very_crowded"}

func (b ComfortBand) String() string {
	if b < VeryComfortable || b > VeryCrowded {
		return "unknown"
	}
	return bandNames[b]
}

// Label is the rider-facing description of the band.
func (b ComfortBand) Label() string {
	switch b {
	case VeryComfortable:
		return "Very comfortable, plenty of seats"
	case Comfortable:
		return "Comfortable, most seats taken"
	case Crowded:
		return "Crowded, many standing"
	case VeryCrowded:
		return "Very crowded, hard to board"
	default:
		return "Unknown"
	}
}

// Color is the traffic-light color used by the presentation layer.
func (b ComfortBand) Color() string {
	switch b {
	case VeryComfortable:
		return "green"
	case Comfortable:
		return "yellow"
	case Crowded:
		return "orange"
	case VeryCrowded:
		return "red"
	default:
		return "gray"
	}
}

// IsQuiet reports whether the band is comfortable or better.
func (b ComfortBand) IsQuiet() bool {
	return b <= Comfortable
}

// Worse returns the more crowded of two bands.
func Worse(a, b ComfortBand) ComfortBand {
	if b > a {
		return b
	}
	return a
}

func (b ComfortBand) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *ComfortBand) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseComfortBand(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseComfortBand parses the snake_case band name.
func ParseComfortBand(s string) (ComfortBand, error) {
	for i, name := range bandNames {
		if name == s {
			return ComfortBand(i), nil
		}
	}
	return 0, fmt.Errorf("unknown comfort band %q", s)
}
