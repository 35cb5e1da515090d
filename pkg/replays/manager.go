package replays

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"f1replay/pkg/cache"
	"f1replay/pkg/model"
	"f1replay/pkg/openf1"
	"f1replay/pkg/replay"
)

const DefaultReplayTTL = 300 * time.Second

var ErrNoReplayData = errors.New("no replay data available for this session")

// Source supplies session metadata and telemetry. *openf1.Client and *mock.Source implement it.
type Source interface {
	Sessions(ctx context.Context, q openf1.SessionQuery) ([]model.Session, error)
	Session(ctx context.Context, sessionKey int) (model.Session, error)
	LatestRaceSession(ctx context.Context, years ...int) (model.Session, error)
	Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error)
	Laps(ctx context.Context, sessionKey int) ([]model.Lap, error)
	Positions(ctx context.Context, sessionKey int) ([]model.Position, error)
	Intervals(ctx context.Context, sessionKey int) ([]model.Interval, error)
	Stints(ctx context.Context, sessionKey int) ([]model.Stint, error)
	PitStops(ctx context.Context, sessionKey int) ([]model.PitStop, error)
	Weather(ctx context.Context, sessionKey int) ([]model.Weather, error)
	SessionResults(ctx context.Context, sessionKey int) ([]model.SessionResult, error)
}

type Notifier interface {
	FetchFailed(ctx context.Context, sessionKey int, err error)
	NoReplayData(ctx context.Context, sessionKey int)
	ReplayReady(ctx context.Context, sessionKey, frames int)
}

type nopNotifier struct{}

func (nopNotifier) FetchFailed(context.Context, int, error) {}
func (nopNotifier) NoReplayData(context.Context, int)       {}
func (nopNotifier) ReplayReady(context.Context, int, int)   {}

// Manager loads replays from a Source, caches them and tracks their loading state per session.
type Manager struct {
	source   Source
	replays  *cache.Typed[replay.RaceReplay]
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	years    []int

	mu     sync.Mutex
	states map[int]LoadState
}

type Option func(m *Manager)

// WithCache stores reconstructed replays in rc instead of a private cache with DefaultReplayTTL.
func WithCache(rc *cache.ResponseCache) Option {
	return func(m *Manager) { m.replays = cache.NewTyped[replay.RaceReplay](rc) }
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRaceYears sets the seasons searched, in order, for the latest race.
func WithRaceYears(years ...int) Option {
	return func(m *Manager) { m.years = years }
}

func NewManager(source Source, opts ...Option) *Manager {
	m := &Manager{
		source:   source,
		notifier: nopNotifier{},
		logger:   slog.Default(),
		now:      time.Now,
		states:   make(map[int]LoadState),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.replays == nil {
		m.replays = cache.NewTyped[replay.RaceReplay](cache.New(DefaultReplayTTL, cache.WithClock(m.now), cache.WithLogger(m.logger)))
	}
	return m
}

// Replay returns the reconstructed replay of a session. forceRefresh refetches every stream.
func (m *Manager) Replay(ctx context.Context, sessionKey int, forceRefresh bool) (replay.RaceReplay, error) {
	m.setState(sessionKey, LoadState{Status: StatusLoading})

	if forceRefresh {
		ctx = openf1.ForceRefresh(ctx)
	}
	r, err := m.replays.Fetch(ctx, replayKey(sessionKey), forceRefresh, func(ctx context.Context) (replay.RaceReplay, error) {
		return m.load(ctx, sessionKey)
	})
	switch {
	case errors.Is(err, ErrNoReplayData):
		m.setState(sessionKey, LoadState{Status: StatusError, Err: ErrNoReplayData.Error()})
		m.notifier.NoReplayData(ctx, sessionKey)
		return replay.RaceReplay{}, err
	case err != nil:
		m.setState(sessionKey, LoadState{Status: StatusError, Err: err.Error()})
		m.notifier.FetchFailed(ctx, sessionKey, err)
		return replay.RaceReplay{}, err
	}

	m.setState(sessionKey, LoadState{Status: StatusReady, Frames: len(r.Frames), TotalLaps: r.TotalLaps})
	return r, nil
}

func (m *Manager) load(ctx context.Context, sessionKey int) (replay.RaceReplay, error) {
	start := m.now()

	session, err := m.source.Session(ctx, sessionKey)
	if err != nil {
		return replay.RaceReplay{}, errors.Wrapf(err, "fetching session %d", sessionKey)
	}
	drivers, err := m.source.Drivers(ctx, sessionKey)
	if err != nil {
		return replay.RaceReplay{}, errors.Wrapf(err, "fetching drivers for session %d", sessionKey)
	}

	telemetry, err := m.telemetry(ctx, sessionKey)
	if err != nil {
		return replay.RaceReplay{}, err
	}

	r := replay.Reconstruct(session, BuildRoster(drivers), telemetry)
	m.logger.Info("replay reconstructed",
		"session_key", sessionKey,
		"laps", len(telemetry.Laps),
		"positions", len(telemetry.Positions),
		"intervals", len(telemetry.Intervals),
		"stints", len(telemetry.Stints),
		"pit_stops", len(telemetry.PitStops),
		"frames", len(r.Frames),
		"took", m.now().Sub(start),
	)
	if r.Empty() {
		return replay.RaceReplay{}, errors.WithStack(ErrNoReplayData)
	}
	m.notifier.ReplayReady(ctx, sessionKey, len(r.Frames))
	return r, nil
}

// telemetry fetches the five streams concurrently. The first failure cancels the others.
func (m *Manager) telemetry(ctx context.Context, sessionKey int) (replay.Telemetry, error) {
	var t replay.Telemetry
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		t.Laps, err = m.source.Laps(ctx, sessionKey)
		return errors.Wrapf(err, "fetching laps for session %d", sessionKey)
	})
	g.Go(func() (err error) {
		t.Positions, err = m.source.Positions(ctx, sessionKey)
		return errors.Wrapf(err, "fetching positions for session %d", sessionKey)
	})
	g.Go(func() (err error) {
		t.Intervals, err = m.source.Intervals(ctx, sessionKey)
		return errors.Wrapf(err, "fetching intervals for session %d", sessionKey)
	})
	g.Go(func() (err error) {
		t.Stints, err = m.source.Stints(ctx, sessionKey)
		return errors.Wrapf(err, "fetching stints for session %d", sessionKey)
	})
	g.Go(func() (err error) {
		t.PitStops, err = m.source.PitStops(ctx, sessionKey)
		return errors.Wrapf(err, "fetching pit stops for session %d", sessionKey)
	})

	if err := g.Wait(); err != nil {
		return replay.Telemetry{}, err
	}
	return t, nil
}

func replayKey(sessionKey int) string {
	return fmt.Sprintf("replay:%d", sessionKey)
}

func (m *Manager) State(sessionKey int) LoadState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[sessionKey]
	if !ok {
		return LoadState{Status: StatusIdle, SessionKey: sessionKey}
	}
	return s
}

func (m *Manager) setState(sessionKey int, s LoadState) {
	s.SessionKey = sessionKey
	s.UpdatedAt = m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[sessionKey] = s
}

func (m *Manager) Sessions(ctx context.Context, q openf1.SessionQuery) ([]model.Session, error) {
	sessions, err := m.source.Sessions(ctx, q)
	return sessions, errors.Wrap(err, "fetching sessions")
}

func (m *Manager) Session(ctx context.Context, sessionKey int) (model.Session, error) {
	s, err := m.source.Session(ctx, sessionKey)
	return s, errors.Wrapf(err, "fetching session %d", sessionKey)
}

func (m *Manager) LatestRaceSession(ctx context.Context) (model.Session, error) {
	s, err := m.source.LatestRaceSession(ctx, m.years...)
	return s, errors.Wrap(err, "finding latest race")
}

// Drivers returns the session roster with display defaults applied, ordered by driver number.
func (m *Manager) Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error) {
	drivers, err := m.source.Drivers(ctx, sessionKey)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching drivers for session %d", sessionKey)
	}
	return SortedRoster(BuildRoster(drivers)), nil
}

func (m *Manager) Weather(ctx context.Context, sessionKey int) ([]model.Weather, error) {
	w, err := m.source.Weather(ctx, sessionKey)
	return w, errors.Wrapf(err, "fetching weather for session %d", sessionKey)
}

func (m *Manager) Results(ctx context.Context, sessionKey int) ([]model.SessionResult, error) {
	r, err := m.source.SessionResults(ctx, sessionKey)
	return r, errors.Wrapf(err, "fetching results for session %d", sessionKey)
}
