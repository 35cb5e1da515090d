package replay

import "f1replay/pkg/model"

const (
	TyreUnknown = "UNKNOWN"
	NoGap       = "+0.000"
	LeaderGap   = "0.000"

	// NominalLapSeconds per lap stands in for elapsed time until a lap duration has been recorded.
	NominalLapSeconds = 90.0
)

// Telemetry bundles the five independently sampled streams of one session.
type Telemetry struct {
	Laps      []model.Lap      `json:"laps"`
	Positions []model.Position `json:"positions"`
	Intervals []model.Interval `json:"intervals"`
	Stints    []model.Stint    `json:"stints"`
	PitStops  []model.PitStop  `json:"pit_stops"`
}

type DriverSnapshot struct {
	DriverNumber int    `json:"driver_number"`
	Position     int    `json:"position"`
	Gap          string `json:"gap"`
	LapTime      string `json:"lap_time"`
	Tyre         string `json:"tyre"`
	PitStops     int    `json:"pit_stops"`
}

// Frame is the state of the race at the end of one lap. Drivers are ordered by position.
type Frame struct {
	LapNumber   int              `json:"lap_number"`
	ElapsedTime float64          `json:"elapsed_time"`
	Drivers     []DriverSnapshot `json:"drivers"`
}

type RaceReplay struct {
	Session      model.Session        `json:"session"`
	Frames       []Frame              `json:"frames"`
	TotalLaps    int                  `json:"total_laps"`
	RaceDuration float64              `json:"race_duration"`
	Drivers      map[int]model.Driver `json:"drivers"`
}

func (r RaceReplay) Empty() bool {
	return len(r.Frames) == 0
}

// Frame returns the frame at index i.
func (r RaceReplay) Frame(i int) (Frame, bool) {
	if i < 0 || i >= len(r.Frames) {
		return Frame{}, false
	}
	return r.Frames[i], true
}

// FrameForLap returns the last frame whose lap is not after lap.
func (r RaceReplay) FrameForLap(lap int) (Frame, bool) {
	found := false
	var frame Frame
	for _, f := range r.Frames {
		if f.LapNumber > lap {
			break
		}
		frame = f
		found = true
	}
	return frame, found
}
