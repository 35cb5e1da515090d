package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"f1replay/pkg/model"
	"f1replay/pkg/openf1"
)

// Source serves generated telemetry for a fixed calendar of sessions. The same seed always yields
// the same data.
type Source struct {
	seed int64

	mu   sync.Mutex
	sims map[int]simulation
}

func New(seed int64) *Source {
	return &Source{seed: seed, sims: make(map[int]simulation)}
}

func (s *Source) Sessions(ctx context.Context, q openf1.SessionQuery) ([]model.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []model.Session{}
	for _, session := range sessions {
		if q.Year > 0 && session.Year != q.Year {
			continue
		}
		if q.SessionType != "" && !strings.EqualFold(session.SessionType, q.SessionType) {
			continue
		}
		if q.SessionName != "" && !strings.EqualFold(session.SessionName, q.SessionName) {
			continue
		}
		if q.CountryName != "" && !strings.EqualFold(session.CountryName, q.CountryName) {
			continue
		}
		out = append(out, session)
	}
	return out, nil
}

func (s *Source) Session(ctx context.Context, sessionKey int) (model.Session, error) {
	if err := ctx.Err(); err != nil {
		return model.Session{}, err
	}
	session, ok := lookup(sessionKey)
	if !ok {
		return model.Session{}, errors.Wrapf(openf1.ErrNotFound, "session %d", sessionKey)
	}
	return session, nil
}

func (s *Source) LatestRaceSession(ctx context.Context, years ...int) (model.Session, error) {
	if len(years) == 0 {
		years = []int{0}
	}
	for _, year := range years {
		found, err := s.Sessions(ctx, openf1.SessionQuery{Year: year})
		if err != nil {
			return model.Session{}, err
		}
		if race, ok := openf1.LatestRace(found); ok {
			return race, nil
		}
	}
	return model.Session{}, errors.Wrapf(openf1.ErrNotFound, "race session in %v", years)
}

func (s *Source) Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, ok := lookup(sessionKey)
	if !ok {
		return []model.Driver{}, nil
	}
	out := make([]model.Driver, 0, len(drivers))
	for _, d := range drivers {
		d.SessionKey = session.SessionKey
		d.MeetingKey = session.MeetingKey
		out = append(out, d)
	}
	return out, nil
}

func (s *Source) Laps(ctx context.Context, sessionKey int) ([]model.Lap, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.Lap{}, sim.laps...), err
}

func (s *Source) Positions(ctx context.Context, sessionKey int) ([]model.Position, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.Position{}, sim.positions...), err
}

func (s *Source) Intervals(ctx context.Context, sessionKey int) ([]model.Interval, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.Interval{}, sim.intervals...), err
}

func (s *Source) Stints(ctx context.Context, sessionKey int) ([]model.Stint, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.Stint{}, sim.stints...), err
}

func (s *Source) PitStops(ctx context.Context, sessionKey int) ([]model.PitStop, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.PitStop{}, sim.pits...), err
}

func (s *Source) Weather(ctx context.Context, sessionKey int) ([]model.Weather, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.Weather{}, sim.weather...), err
}

func (s *Source) SessionResults(ctx context.Context, sessionKey int) ([]model.SessionResult, error) {
	sim, err := s.simulation(ctx, sessionKey)
	return append([]model.SessionResult{}, sim.results...), err
}

// simulation returns the generated data of a session, empty for unknown keys.
func (s *Source) simulation(ctx context.Context, sessionKey int) (simulation, error) {
	if err := ctx.Err(); err != nil {
		return simulation{}, err
	}
	session, ok := lookup(sessionKey)
	if !ok {
		return simulation{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sim, ok := s.sims[sessionKey]
	if !ok {
		sim = simulate(s.seed, session)
		s.sims[sessionKey] = sim
	}
	return sim, nil
}

func lookup(sessionKey int) (model.Session, bool) {
	for _, session := range sessions {
		if session.SessionKey == sessionKey {
			return session, true
		}
	}
	return model.Session{}, false
}
