package models

// RouteReference identifies a configured route mentioned in a response.
type RouteReference struct {
	ID             string  `json:"id"`
	Name           string  `json:"name,omitempty"`
	Direction      string  `json:"direction,omitempty"`
	StopID         string  `json:"stopId,omitempty"`
	NormalCapacity float64 `json:"normalCapacity"`
	Capacity       int     `json:"capacity,omitempty"`
}

// SourceReference records which upstream answered for a signal.
type SourceReference struct {
	Source    string `json:"source"`
	Available bool   `json:"available"`
}

type ReferencesModel struct {
	Routes  []RouteReference  `json:"routes"`
	Sources []SourceReference `json:"sources"`
}

func NewEmptyReferences() ReferencesModel {
	return ReferencesModel{
		Routes:  []RouteReference{},
		Sources: []SourceReference{},
	}
}
