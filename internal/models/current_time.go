package models

import "time"

// CurrentTimeModel is the service clock as seen by the engine: wall time in the
// configured timezone and the day type used for baseline lookups.
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
	Timezone     string `json:"timezone"`
	DayType      string `json:"dayType"`
	MinuteOfDay  int    `json:"minuteOfDay"`
}

// CurrentTimeData Combined data structure for current time endpoint
type CurrentTimeData struct {
	Entry      CurrentTimeModel `json:"entry"`
	References ReferencesModel  `json:"references"`
}

// NewCurrentTimeData creates a CurrentTimeData structure based on a provided Time
func NewCurrentTimeData(t time.Time, dayType string) CurrentTimeData {
	timeMillis := t.UnixNano() / int64(time.Millisecond)

	return CurrentTimeData{
		Entry: CurrentTimeModel{
			ReadableTime: t.Format(time.RFC3339),
			Time:         timeMillis,
			Timezone:     t.Location().String(),
			DayType:      dayType,
			MinuteOfDay:  t.Hour()*60 + t.Minute(),
		},
		References: NewEmptyReferences(),
	}
}
