package webserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"f1replay/pkg/model"
	"f1replay/pkg/notification"
	"f1replay/pkg/openf1"
	"f1replay/pkg/pubsub"
	"f1replay/pkg/replay"
	"f1replay/pkg/replays"
)

const (
	DefaultAddr          = ":8080"
	DefaultFrameInterval = time.Second
	shutdownTimeout      = 10 * time.Second
)

// Replays is what the HTTP layer needs from the replay manager.
type Replays interface {
	Sessions(ctx context.Context, q openf1.SessionQuery) ([]model.Session, error)
	Session(ctx context.Context, sessionKey int) (model.Session, error)
	LatestRaceSession(ctx context.Context) (model.Session, error)
	Drivers(ctx context.Context, sessionKey int) ([]model.Driver, error)
	Weather(ctx context.Context, sessionKey int) ([]model.Weather, error)
	Results(ctx context.Context, sessionKey int) ([]model.SessionResult, error)
	Replay(ctx context.Context, sessionKey int, forceRefresh bool) (replay.RaceReplay, error)
	State(sessionKey int) replays.LoadState
}

type Manager struct {
	r             *mux.Router
	addr          string
	replays       Replays
	toasts        *pubsub.PubSub[notification.Toast]
	frameInterval time.Duration
	logger        *slog.Logger

	// streams is cancelled on shutdown to end open websockets
	streams context.Context
	cancel  context.CancelFunc
}

type Option func(m *Manager)

func WithAddr(addr string) Option {
	return func(m *Manager) { m.addr = addr }
}

// WithToasts relays notifications published on hub to /notifications clients.
func WithToasts(hub *pubsub.PubSub[notification.Toast]) Option {
	return func(m *Manager) { m.toasts = hub }
}

// WithFrameInterval sets the delay between streamed frames at speed 1.
func WithFrameInterval(d time.Duration) Option {
	return func(m *Manager) { m.frameInterval = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(svc Replays, opts ...Option) *Manager {
	m := &Manager{
		r:             mux.NewRouter(),
		addr:          DefaultAddr,
		replays:       svc,
		frameInterval: DefaultFrameInterval,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.streams, m.cancel = context.WithCancel(context.Background())

	m.rootHandlers()
	return m
}

func (m *Manager) Handler() http.Handler {
	return m.r
}

func (m *Manager) rootHandlers() {
	m.r.HandleFunc("/health", m.health).Methods(http.MethodGet)
	m.r.HandleFunc("/notifications", m.notifications).Methods(http.MethodGet)

	s := m.r.PathPrefix("/sessions").Subrouter()
	s.HandleFunc("", m.sessions).Methods(http.MethodGet)
	s.HandleFunc("/latest-race", m.latestRace).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}", m.session).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/drivers", m.drivers).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/weather", m.weather).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/results", m.results).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/replay", m.replay).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/replay/status", m.replayStatus).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/replay/frames/{index:[0-9]+}", m.replayFrame).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/replay/table", m.replayTable).Methods(http.MethodGet)
	s.HandleFunc("/{key:[0-9]+}/replay/stream", m.replayStream).Methods(http.MethodGet)
}

// Routes lists the registered path templates; used for the startup log.
func (m *Manager) Routes() []string {
	var routes []string
	_ = m.r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		if len(methods) > 0 {
			tpl = strings.Join(methods, ",") + " " + tpl
		}
		routes = append(routes, tpl)
		return nil
	})
	return routes
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (m *Manager) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         m.addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.r,
	}
	srv.RegisterOnShutdown(m.cancel)

	errc := make(chan error, 1)
	go func() {
		m.logger.Info("webserver listening", "addr", m.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return errors.Wrap(err, "webserver")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	m.logger.Info("webserver shutting down")
	return errors.Wrap(srv.Shutdown(shutdownCtx), "webserver shutdown")
}

// Close ends open websocket streams without a server, e.g. when only Handler is used.
func (m *Manager) Close() {
	m.cancel()
}
