// Package quietwindow scans a route's day for quiet and crowded periods.
package quietwindow

import (
	"fmt"
	"math"

	"quietride.org/internal/baseline"
	"quietride.org/internal/forecast"
	"quietride.org/internal/occupancy"
)

const (
	// NoQuietWindowReason is reported when nothing quiet remains before closing.
	NoQuietWindowReason = "no quiet window found today"
	// HistoricallyBusy is the avoid reason when no forecast explains the crowding.
	HistoricallyBusy = "historically busy"
	// MaxWaitMinutes is the longest wait still advised over travelling at another time.
	MaxWaitMinutes = 60
)

// Status is the comfort of the bucket containing now.
type Status struct {
	Operating  bool                   `json:"operating"`
	Time       string                 `json:"time,omitempty"`
	Band       *occupancy.ComfortBand `json:"band,omitempty"`
	Label      string                 `json:"label,omitempty"`
	Color      string                 `json:"color,omitempty"`
	Passengers float64                `json:"passengers"`
	// Basis is "forecast" when live signals adjusted the count, else "baseline".
	Basis string `json:"basis,omitempty"`
}

// NextQuiet is the first quiet bucket at or after now.
type NextQuiet struct {
	Found       bool                   `json:"found"`
	Time        string                 `json:"time,omitempty"`
	StartMinute int                    `json:"start_minute,omitempty"`
	WaitMinutes int                    `json:"wait_minutes"`
	Band        *occupancy.ComfortBand `json:"band,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
}

// Window is a contiguous run of buckets sharing a comfort class.
type Window struct {
	Start       string                `json:"start"`
	End         string                `json:"end"`
	StartMinute int                   `json:"start_minute"`
	EndMinute   int                   `json:"end_minute"`
	Band        occupancy.ComfortBand `json:"band"`
	Passengers  float64               `json:"passengers"`
	Reason      string                `json:"reason,omitempty"`
	Basis       string                `json:"basis,omitempty"`
}

// Advice is the one-line action for a rider.
type Advice struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
	Color  string `json:"color"`
}

// Report is the full quiet-window analysis for one route and day.
type Report struct {
	Route          string           `json:"route"`
	DayType        baseline.DayType `json:"day_type"`
	CurrentStatus  Status           `json:"current_status"`
	NextQuietTime  NextQuiet        `json:"next_quiet_time"`
	BestTimesToday []Window         `json:"best_times_today"`
	AvoidTimes     []Window         `json:"avoid_times"`
	Advice         Advice           `json:"advice"`
}

// Input is one day of a route plus the optional live forecast for now.
type Input struct {
	Route     string
	DayType   baseline.DayType
	Points    []baseline.Point
	NowMinute int
	// Forecast, when set, replaces the baseline count of the current bucket.
	Forecast       *forecast.Forecast
	NormalCapacity float64
	Capacity       int
}

type Finder struct {
	classifier *occupancy.Classifier
}

func NewFinder(classifier *occupancy.Classifier) *Finder {
	return &Finder{classifier: classifier}
}

type slot struct {
	point      baseline.Point
	passengers float64
	band       occupancy.ComfortBand
	current    bool
}

// Find never fails; an empty day yields a non-operating status and no windows.
func (f *Finder) Find(in Input) Report {
	slots, currentIdx := f.classify(in)

	report := Report{
		Route:          in.Route,
		DayType:        in.DayType,
		BestTimesToday: []Window{},
		AvoidTimes:     []Window{},
	}
	report.CurrentStatus = currentStatus(slots, currentIdx, in.Forecast != nil && in.NormalCapacity > 0)
	report.NextQuietTime = nextQuiet(slots, currentIdx, in.NowMinute)

	for _, run := range runs(slots, func(s slot) bool { return s.band.IsQuiet() }) {
		w := window(run)
		p := run[0].passengers
		for _, s := range run[1:] {
			p = math.Min(p, s.passengers)
		}
		w.Passengers = round1(p)
		w.Band = f.classifier.Classify(in.Route, p, in.Capacity)
		report.BestTimesToday = append(report.BestTimesToday, w)
	}

	for _, run := range runs(slots, func(s slot) bool { return s.band == occupancy.VeryCrowded }) {
		w := window(run)
		p := run[0].passengers
		covers := false
		for _, s := range run {
			p = math.Max(p, s.passengers)
			covers = covers || s.current
		}
		w.Passengers = round1(p)
		w.Band = occupancy.VeryCrowded
		w.Reason, w.Basis = HistoricallyBusy, forecast.DominantBaseline
		if covers && in.Forecast != nil && in.Forecast.Dominant != forecast.DominantBaseline {
			w.Reason, w.Basis = in.Forecast.Explanation, in.Forecast.Dominant
		}
		report.AvoidTimes = append(report.AvoidTimes, w)
	}

	report.Advice = advise(report.CurrentStatus, report.NextQuietTime)
	return report
}

func (f *Finder) classify(in Input) ([]slot, int) {
	slots := make([]slot, len(in.Points))
	currentIdx := -1
	for i, p := range in.Points {
		s := slot{point: p, passengers: p.ExpectedPassengers}
		if p.Bucket.Contains(in.NowMinute) {
			currentIdx = i
			s.current = true
			if in.Forecast != nil && in.NormalCapacity > 0 {
				s.passengers = in.Forecast.AdjustedPassengers(in.NormalCapacity)
			}
		}
		s.band = f.classifier.Classify(in.Route, s.passengers, in.Capacity)
		slots[i] = s
	}
	return slots, currentIdx
}

func currentStatus(slots []slot, idx int, forecasted bool) Status {
	if idx < 0 {
		return Status{Operating: false}
	}
	s := slots[idx]
	band := s.band
	basis := forecast.DominantBaseline
	if forecasted {
		basis = "forecast"
	}
	return Status{
		Operating:  true,
		Time:       s.point.Bucket.Label(),
		Band:       &band,
		Label:      band.Label(),
		Color:      band.Color(),
		Passengers: round1(s.passengers),
		Basis:      basis,
	}
}

func nextQuiet(slots []slot, currentIdx, nowMinute int) NextQuiet {
	from := currentIdx
	if from < 0 {
		// Before opening the whole day is ahead, after closing nothing is.
		from = len(slots)
		for i, s := range slots {
			if s.point.Bucket.StartMinute > nowMinute {
				from = i
				break
			}
		}
	}

	for i := from; i < len(slots); i++ {
		s := slots[i]
		if !s.band.IsQuiet() {
			continue
		}
		wait := 0
		if i != currentIdx {
			wait = s.point.Bucket.StartMinute - nowMinute
		}
		reason := "quiet now"
		if wait > 0 {
			reason = fmt.Sprintf("%s expected from %s", s.band, s.point.Bucket.Label())
		}
		band := s.band
		return NextQuiet{
			Found:       true,
			Time:        s.point.Bucket.Label(),
			StartMinute: s.point.Bucket.StartMinute,
			WaitMinutes: wait,
			Band:        &band,
			Reason:      reason,
		}
	}
	return NextQuiet{Found: false, Reason: NoQuietWindowReason}
}

func runs(slots []slot, in func(slot) bool) [][]slot {
	var out [][]slot
	start := -1
	for i, s := range slots {
		switch {
		case in(s) && start < 0:
			start = i
		case !in(s) && start >= 0:
			out = append(out, slots[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, slots[start:])
	}
	return out
}

func window(run []slot) Window {
	first, last := run[0].point.Bucket, run[len(run)-1].point.Bucket
	return Window{
		Start:       first.Label(),
		End:         baseline.FormatMinute(last.EndMinute()),
		StartMinute: first.StartMinute,
		EndMinute:   last.EndMinute(),
	}
}

func advise(current Status, next NextQuiet) Advice {
	switch {
	case current.Operating && current.Band.IsQuiet():
		return Advice{
			Action: "board now",
			Reason: fmt.Sprintf("currently %s, about %.0f passengers", current.Band, current.Passengers),
			Color:  current.Band.Color(),
		}
	case next.Found && next.WaitMinutes <= MaxWaitMinutes:
		return Advice{
			Action: fmt.Sprintf("wait %d minutes", next.WaitMinutes),
			Reason: fmt.Sprintf("%s from %s", *next.Band, next.Time),
			Color:  "yellow",
		}
	case next.Found:
		return Advice{
			Action: "consider another time",
			Reason: fmt.Sprintf("next quiet time is %s", next.Time),
			Color:  "red",
		}
	default:
		return Advice{
			Action: "consider another time",
			Reason: NoQuietWindowReason,
			Color:  "red",
		}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
