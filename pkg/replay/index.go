package replay

import (
	"sort"

	"f1replay/pkg/model"
)

// index holds the lookup tables built from one telemetry snapshot. Records of drivers outside the
// roster never enter it.
type index struct {
	drivers    []int
	lapNumbers []int

	laps         map[int]map[int]model.Lap // driver -> lap number -> record
	driverLaps   map[int][]int             // driver -> lap numbers with a valid duration, ascending
	driversAtLap map[int][]int             // lap number -> drivers, ascending
	positions    map[int]model.Position    // most recent sample per driver
	intervals    map[int]model.Interval    // most recent sample per driver
	stints       map[int][]model.Stint
	pits         map[int][]int // driver -> pit lap numbers, ascending
}

func newIndex(roster map[int]model.Driver, t Telemetry) *index {
	idx := &index{
		laps:         make(map[int]map[int]model.Lap),
		driverLaps:   make(map[int][]int),
		driversAtLap: make(map[int][]int),
		positions:    make(map[int]model.Position),
		intervals:    make(map[int]model.Interval),
		stints:       make(map[int][]model.Stint),
		pits:         make(map[int][]int),
	}
	for number := range roster {
		idx.drivers = append(idx.drivers, number)
	}
	sort.Ints(idx.drivers)

	idx.indexLaps(roster, t.Laps)
	idx.indexPositions(roster, t.Positions)
	idx.indexIntervals(roster, t.Intervals)

	for _, s := range t.Stints {
		if _, ok := roster[s.DriverNumber]; ok {
			idx.stints[s.DriverNumber] = append(idx.stints[s.DriverNumber], s)
		}
	}
	for _, p := range t.PitStops {
		if _, ok := roster[p.DriverNumber]; ok {
			idx.pits[p.DriverNumber] = append(idx.pits[p.DriverNumber], p.LapNumber)
		}
	}
	for _, laps := range idx.pits {
		sort.Ints(laps)
	}
	return idx
}

func (idx *index) indexLaps(roster map[int]model.Driver, laps []model.Lap) {
	for _, lap := range laps {
		if _, ok := roster[lap.DriverNumber]; !ok || lap.LapNumber < 1 {
			continue
		}
		byLap, ok := idx.laps[lap.DriverNumber]
		if !ok {
			byLap = make(map[int]model.Lap)
			idx.laps[lap.DriverNumber] = byLap
		}
		// a duplicate only replaces a record when it does not lose a valid duration
		if prev, seen := byLap[lap.LapNumber]; seen && prev.HasValidDuration() && !lap.HasValidDuration() {
			continue
		}
		byLap[lap.LapNumber] = lap
	}

	seen := make(map[int]bool)
	for driver, byLap := range idx.laps {
		for number, lap := range byLap {
			if !seen[number] {
				seen[number] = true
				idx.lapNumbers = append(idx.lapNumbers, number)
			}
			idx.driversAtLap[number] = append(idx.driversAtLap[number], driver)
			if lap.HasValidDuration() {
				idx.driverLaps[driver] = append(idx.driverLaps[driver], number)
			}
		}
	}
	sort.Ints(idx.lapNumbers)
	for _, drivers := range idx.driversAtLap {
		sort.Ints(drivers)
	}
	for _, numbers := range idx.driverLaps {
		sort.Ints(numbers)
	}
}

// Ties on the timestamp go to the record that comes later in the input.
func (idx *index) indexPositions(roster map[int]model.Driver, positions []model.Position) {
	for _, p := range positions {
		if _, ok := roster[p.DriverNumber]; !ok {
			continue
		}
		if prev, ok := idx.positions[p.DriverNumber]; ok && p.Date.Before(prev.Date.Time) {
			continue
		}
		idx.positions[p.DriverNumber] = p
	}
}

func (idx *index) indexIntervals(roster map[int]model.Driver, intervals []model.Interval) {
	for _, i := range intervals {
		if _, ok := roster[i.DriverNumber]; !ok {
			continue
		}
		if prev, ok := idx.intervals[i.DriverNumber]; ok && i.Date.Before(prev.Date.Time) {
			continue
		}
		idx.intervals[i.DriverNumber] = i
	}
}

func (idx *index) lap(driver, number int) *model.Lap {
	lap, ok := idx.laps[driver][number]
	if !ok {
		return nil
	}
	return &lap
}

// lapTimeAt returns the record for the lap time shown at lap: the lap itself when it carries a
// duration, otherwise the latest earlier lap with a valid one.
func (idx *index) lapTimeAt(driver, lap int) *model.Lap {
	if l := idx.lap(driver, lap); l != nil && l.LapDuration != nil {
		return l
	}
	numbers := idx.driverLaps[driver]
	i := sort.SearchInts(numbers, lap+1)
	if i == 0 {
		return nil
	}
	return idx.lap(driver, numbers[i-1])
}

func (idx *index) tyreAt(driver, lap int) string {
	best := -1
	compound := TyreUnknown
	for _, s := range idx.stints[driver] {
		if !s.Contains(lap) || s.StintNumber <= best {
			continue
		}
		best = s.StintNumber
		compound = s.Compound
	}
	if compound == "" {
		return TyreUnknown
	}
	return compound
}

func (idx *index) pitStopsUpTo(driver, lap int) int {
	return sort.SearchInts(idx.pits[driver], lap+1)
}

// recordedDuration sums the durations recorded at lap across drivers. Missing durations count as 0.
func (idx *index) recordedDuration(lap int) float64 {
	total := 0.0
	for _, driver := range idx.driversAtLap[lap] {
		if l := idx.lap(driver, lap); l != nil && l.LapDuration != nil {
			total += *l.LapDuration
		}
	}
	return total
}
