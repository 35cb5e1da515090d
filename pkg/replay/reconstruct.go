package replay

import (
	"sort"

	"f1replay/pkg/model"
)

// Reconstruct builds a lap-indexed replay from the telemetry of one session. It never fails: missing
// data degrades to sentinel values, and a replay with no frames means there was nothing to show.
// Inputs are not modified.
func Reconstruct(session model.Session, roster map[int]model.Driver, t Telemetry) RaceReplay {
	drivers := make(map[int]model.Driver, len(roster))
	for number, d := range roster {
		drivers[number] = d
	}
	idx := newIndex(drivers, t)

	var frames []Frame
	if len(idx.lapNumbers) == 0 {
		if frame, ok := fallbackFrame(idx); ok {
			frames = append(frames, frame)
		}
	} else {
		frames = lapFrames(idx)
	}

	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].LapNumber < frames[j].LapNumber
	})

	replay := RaceReplay{
		Session: session,
		Frames:  frames,
		Drivers: drivers,
	}
	for _, f := range frames {
		if f.LapNumber > replay.TotalLaps {
			replay.TotalLaps = f.LapNumber
		}
	}
	if len(frames) > 0 {
		replay.RaceDuration = frames[len(frames)-1].ElapsedTime
	}
	return replay
}

func lapFrames(idx *index) []Frame {
	frames := make([]Frame, 0, len(idx.lapNumbers))
	total := 0.0

	for _, lap := range idx.lapNumbers {
		relevant := idx.driversAtLap[lap]
		if len(relevant) == 0 {
			relevant = idx.drivers
		}

		snapshots := make([]DriverSnapshot, 0, len(relevant))
		for _, driver := range relevant {
			position, ok := idx.positions[driver]
			if !ok {
				continue
			}
			snapshots = append(snapshots, DriverSnapshot{
				DriverNumber: driver,
				Position:     position.Position,
				Gap:          formatGap(interval(idx, driver)),
				LapTime:      formatLapTime(idx.lapTimeAt(driver, lap)),
				Tyre:         idx.tyreAt(driver, lap),
				PitStops:     idx.pitStopsUpTo(driver, lap),
			})
		}
		orderSnapshots(snapshots)

		total += idx.recordedDuration(lap)
		if len(snapshots) == 0 {
			continue
		}
		elapsed := total
		if elapsed == 0 {
			elapsed = float64(lap) * NominalLapSeconds
		}
		frames = append(frames, Frame{
			LapNumber:   lap,
			ElapsedTime: elapsed,
			Drivers:     snapshots,
		})
	}
	return frames
}

// fallbackFrame is the single frame built from positions alone when there is no lap data.
func fallbackFrame(idx *index) (Frame, bool) {
	var snapshots []DriverSnapshot
	for _, driver := range idx.drivers {
		position, ok := idx.positions[driver]
		if !ok {
			continue
		}
		snapshots = append(snapshots, DriverSnapshot{
			DriverNumber: driver,
			Position:     position.Position,
			Gap:          LeaderGap,
			LapTime:      formatLapTime(nil),
			Tyre:         TyreUnknown,
		})
	}
	if len(snapshots) == 0 {
		return Frame{}, false
	}
	orderSnapshots(snapshots)
	return Frame{LapNumber: 1, Drivers: snapshots}, true
}

func interval(idx *index, driver int) *model.Interval {
	i, ok := idx.intervals[driver]
	if !ok {
		return nil
	}
	return &i
}

// orderSnapshots sorts by position, then driver number, and bumps repeated positions so that every
// position in a frame is distinct. Stale samples from different times can claim the same place.
func orderSnapshots(snapshots []DriverSnapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].Position != snapshots[j].Position {
			return snapshots[i].Position < snapshots[j].Position
		}
		return snapshots[i].DriverNumber < snapshots[j].DriverNumber
	})
	for i := 1; i < len(snapshots); i++ {
		if snapshots[i].Position <= snapshots[i-1].Position {
			snapshots[i].Position = snapshots[i-1].Position + 1
		}
	}
}
