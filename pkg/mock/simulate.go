package mock

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"f1replay/pkg/model"
	"f1replay/pkg/openf1"
)

const (
	raceLaps       = 50
	sprintLaps     = 19
	qualifyingLaps = 12
	basePace       = 85.0
	pitLoss        = 21.0
	safetyCarLoss  = 25.0
)

type simulation struct {
	laps      []model.Lap
	positions []model.Position
	intervals []model.Interval
	stints    []model.Stint
	pits      []model.PitStop
	weather   []model.Weather
	results   []model.SessionResult
}

type car struct {
	driver   model.Driver
	pace     float64
	elapsed  float64
	lastLap  float64
	pitLaps  []int
	retireAt int
	laps     int
	position int
}

func (c *car) retired(lap int) bool {
	return c.retireAt > 0 && lap >= c.retireAt
}

func (c *car) pitsOn(lap int) bool {
	for _, p := range c.pitLaps {
		if p == lap {
			return true
		}
	}
	return false
}

// stintStart is the first lap on the car's current set of tyres.
func (c *car) stintStart(lap int) int {
	start := 1
	for _, p := range c.pitLaps {
		if p < lap {
			start = p + 1
		}
	}
	return start
}

func lapCount(s model.Session) int {
	switch {
	case openf1.IsRace(s):
		return raceLaps
	case s.SessionName == "Sprint":
		return sprintLaps
	default:
		return qualifyingLaps
	}
}

func simulate(seed int64, session model.Session) simulation {
	rng := rand.New(rand.NewSource(seed ^ int64(session.SessionKey)))
	start := sessionStart(session)
	total := lapCount(session)
	race := openf1.IsRace(session)

	cars := make([]*car, 0, len(drivers))
	for _, d := range drivers {
		d.SessionKey = session.SessionKey
		d.MeetingKey = session.MeetingKey
		c := &car{driver: d, pace: basePace / skill(d.DriverNumber)}
		if race {
			c.retireAt = retirements[d.DriverNumber]
			c.pitLaps = []int{total/3 + rng.Intn(5) - 2, 2*total/3 + rng.Intn(5) - 2}
		}
		cars = append(cars, c)
	}

	var sim simulation
	for lap := 1; lap <= total; lap++ {
		var running []*car
		for _, c := range cars {
			if c.retired(lap) {
				continue
			}
			running = append(running, c)
			sim.laps = append(sim.laps, c.drive(rng, start, lap, race))
		}
		if len(running) == 0 {
			break
		}

		sort.SliceStable(running, func(i, j int) bool {
			return running[i].elapsed < running[j].elapsed
		})
		leader := running[0]
		for i, c := range running {
			moved := c.position != i+1
			c.position = i + 1
			// position samples arrive when the order changes and every few laps otherwise
			if lap == 1 || moved || rng.Intn(4) == 0 {
				jitter := time.Duration(rng.Intn(4000)) * time.Millisecond
				sim.positions = append(sim.positions, model.Position{
					SessionKey:   session.SessionKey,
					MeetingKey:   session.MeetingKey,
					DriverNumber: c.driver.DriverNumber,
					Date:         model.NewTimestamp(start.Add(seconds(leader.elapsed)).Add(jitter)),
					Position:     c.position,
				})
			}
			if race {
				sim.intervals = append(sim.intervals, interval(session, start, leader, running, i, rng))
			}
		}

		if race && lap%5 == 1 {
			sim.weather = append(sim.weather, weather(session, start.Add(seconds(leader.elapsed)), lap, rng))
		}
	}

	if race {
		for _, c := range cars {
			sim.stints = append(sim.stints, stints(session, c, total, rng)...)
			sim.pits = append(sim.pits, pitStops(session, start, c, rng)...)
		}
		sim.results = results(session, cars)
	}
	return sim
}

func (c *car) drive(rng *rand.Rand, start time.Time, lap int, race bool) model.Lap {
	age := lap - c.stintStart(lap)
	t := c.pace + float64(age)*0.06 + rng.Float64()*2 - 1
	if rng.Float64() < 0.2 {
		t += 0.5 + rng.Float64()*1.5
	}
	if lap == 1 {
		t += 6
	}
	if race && safetyCarLaps[lap] {
		t += safetyCarLoss
	}
	pitIn := race && c.pitsOn(lap)
	if pitIn {
		t += pitLoss + rng.Float64()*3
	}

	begin := c.elapsed
	c.elapsed += t
	c.lastLap = t
	c.laps = lap

	record := model.Lap{
		SessionKey:   c.driver.SessionKey,
		MeetingKey:   c.driver.MeetingKey,
		DriverNumber: c.driver.DriverNumber,
		LapNumber:    lap,
		IsPitOutLap:  race && c.pitsOn(lap-1),
	}
	date := model.NewTimestamp(start.Add(seconds(begin)))
	record.DateStart = &date

	// OpenF1 leaves the opening lap and the odd timing loss without a duration
	if lap == 1 || rng.Float64() < 0.03 {
		return record
	}
	s1, s2 := t*0.31, t*0.36
	s3 := t - s1 - s2
	i1, i2, st := 280+rng.Intn(50), 260+rng.Intn(50), 310+rng.Intn(40)
	if race && safetyCarLaps[lap] {
		i1, i2, st = 180+rng.Intn(40), 160+rng.Intn(40), 200+rng.Intn(50)
	}
	record.LapDuration = &t
	record.DurationSector1 = &s1
	record.DurationSector2 = &s2
	record.DurationSector3 = &s3
	record.I1Speed, record.I2Speed, record.StSpeed = &i1, &i2, &st
	return record
}

func interval(session model.Session, start time.Time, leader *car, running []*car, i int, rng *rand.Rand) model.Interval {
	c := running[i]
	jitter := time.Duration(rng.Intn(3000)) * time.Millisecond
	rec := model.Interval{
		SessionKey:   session.SessionKey,
		MeetingKey:   session.MeetingKey,
		DriverNumber: c.driver.DriverNumber,
		Date:         model.NewTimestamp(start.Add(seconds(c.elapsed)).Add(jitter)),
	}
	if i == 0 {
		rec.GapToLeader = model.SecondsGap(0)
		return rec
	}
	gap := c.elapsed - leader.elapsed
	if down := int(gap / leader.lastLap); down > 0 {
		rec.GapToLeader = model.TextGap(fmt.Sprintf("+%d LAP", down))
	} else {
		rec.GapToLeader = model.SecondsGap(round3(gap))
	}
	rec.Interval = model.SecondsGap(round3(c.elapsed - running[i-1].elapsed))
	return rec
}

func stints(session model.Session, c *car, total int, rng *rand.Rand) []model.Stint {
	compounds := []string{"MEDIUM", "HARD", "SOFT"}
	if skill(c.driver.DriverNumber) < 0.95 {
		compounds = []string{"SOFT", "HARD", "MEDIUM"}
	}
	last := total
	if c.retireAt > 0 {
		last = c.retireAt - 1
	}

	var out []model.Stint
	from := 1
	for n := 0; n <= len(c.pitLaps); n++ {
		if from > last {
			break
		}
		lapStart := from
		s := model.Stint{
			SessionKey:     session.SessionKey,
			MeetingKey:     session.MeetingKey,
			DriverNumber:   c.driver.DriverNumber,
			StintNumber:    n + 1,
			Compound:       compounds[n%len(compounds)],
			LapStart:       &lapStart,
			TyreAgeAtStart: rng.Intn(4),
		}
		switch {
		case n < len(c.pitLaps) && c.pitLaps[n] <= last:
			end := c.pitLaps[n]
			s.LapEnd = &end
			from = end + 1
		case c.retireAt > 0:
			end := last
			s.LapEnd = &end
			from = last + 1
		default:
			// final stint stays open until the data ends
			from = last + 1
		}
		out = append(out, s)
	}
	return out
}

func pitStops(session model.Session, start time.Time, c *car, rng *rand.Rand) []model.PitStop {
	var out []model.PitStop
	for _, lap := range c.pitLaps {
		if c.retired(lap) {
			continue
		}
		stationary := 2.2 + rng.Float64()*1.5
		lane := 20 + rng.Float64()*4
		date := model.NewTimestamp(start.Add(seconds(float64(lap) * c.pace)))
		out = append(out, model.PitStop{
			SessionKey:   session.SessionKey,
			MeetingKey:   session.MeetingKey,
			DriverNumber: c.driver.DriverNumber,
			Date:         &date,
			LapNumber:    lap,
			Duration:     &stationary,
			PitDuration:  &lane,
		})
	}
	return out
}

func weather(session model.Session, at time.Time, lap int, rng *rand.Rand) model.Weather {
	air := 27.5 + rng.Float64()
	track := 36 - float64(lap)*0.08 + rng.Float64()
	humidity := 40 + rng.Float64()*5
	pressure := 1011 + rng.Float64()*2
	rainfall := 0.0
	dir := rng.Intn(360)
	wind := 1 + rng.Float64()*3
	date := model.NewTimestamp(at)
	return model.Weather{
		SessionKey:       session.SessionKey,
		MeetingKey:       session.MeetingKey,
		Date:             &date,
		AirTemperature:   &air,
		TrackTemperature: &track,
		Humidity:         &humidity,
		Pressure:         &pressure,
		Rainfall:         &rainfall,
		WindDirection:    &dir,
		WindSpeed:        &wind,
	}
}

func results(session model.Session, cars []*car) []model.SessionResult {
	ordered := append([]*car(nil), cars...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.laps != b.laps {
			return a.laps > b.laps
		}
		return a.elapsed < b.elapsed
	})

	out := make([]model.SessionResult, 0, len(ordered))
	winner := ordered[0]
	for i, c := range ordered {
		laps := c.laps
		r := model.SessionResult{
			SessionKey:    session.SessionKey,
			MeetingKey:    session.MeetingKey,
			DriverNumber:  c.driver.DriverNumber,
			Position:      i + 1,
			LapsCompleted: &laps,
		}
		if c.retireAt > 0 {
			r.DNF = true
		} else {
			r.Classified = true
			elapsed := round3(c.elapsed)
			r.RaceTime = &elapsed
			if i == 0 {
				r.GapToLeader = model.SecondsGap(0)
			} else if c.laps < winner.laps {
				r.GapToLeader = model.TextGap(fmt.Sprintf("+%d LAP", winner.laps-c.laps))
			} else {
				r.GapToLeader = model.SecondsGap(round3(c.elapsed - winner.elapsed))
			}
		}
		out = append(out, r)
	}
	return out
}

func sessionStart(s model.Session) time.Time {
	ts, err := model.ParseTimestamp(s.DateStart)
	if err != nil {
		return time.Date(s.Year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return ts.Time
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func round3(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}
