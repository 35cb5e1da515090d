package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"f1replay/pkg/helper"
	"f1replay/pkg/openf1"
	"f1replay/pkg/replay"
	"f1replay/pkg/replays"
	"f1replay/pkg/tables"
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func badRequest(format string, args ...any) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, openf1.ErrNotFound), errors.Is(err, replays.ErrNoReplayData):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	default:
		return http.StatusBadGateway
	}
}

func (m *Manager) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		m.logger.Warn("request failed", "path", r.URL.Path, "status", code, "error", err)
	} else {
		m.logger.Debug("request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func sessionKey(r *http.Request) (int, error) {
	raw := mux.Vars(r)["key"]
	key, err := strconv.Atoi(raw)
	if err != nil || key <= 0 {
		return 0, badRequest("invalid session key %q", raw)
	}
	return key, nil
}

// intParam reads an optional integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, badRequest("invalid %s %q", name, raw)
	}
	return v, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid %s %q", name, raw)
	}
	return v, nil
}

func (m *Manager) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (m *Manager) sessions(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year", 0)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	sessions, err := m.replays.Sessions(r.Context(), openf1.SessionQuery{
		Year:        year,
		SessionType: q.Get("session_type"),
		SessionName: q.Get("session_name"),
		CountryName: q.Get("country_name"),
	})
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (m *Manager) latestRace(w http.ResponseWriter, r *http.Request) {
	s, err := m.replays.LatestRaceSession(r.Context())
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (m *Manager) session(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	s, err := m.replays.Session(r.Context(), key)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (m *Manager) drivers(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	drivers, err := m.replays.Drivers(r.Context(), key)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, drivers)
}

func (m *Manager) weather(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	weather, err := m.replays.Weather(r.Context(), key)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weather)
}

func (m *Manager) results(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	results, err := m.replays.Results(r.Context(), key)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// loadReplay resolves the session key and optional refresh flag, then loads the replay.
func (m *Manager) loadReplay(r *http.Request) (replay.RaceReplay, error) {
	key, err := sessionKey(r)
	if err != nil {
		return replay.RaceReplay{}, err
	}
	refresh, err := boolParam(r, "refresh")
	if err != nil {
		return replay.RaceReplay{}, err
	}
	return m.replays.Replay(r.Context(), key, refresh)
}

func (m *Manager) replay(w http.ResponseWriter, r *http.Request) {
	rr, err := m.loadReplay(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	body, err := json.Marshal(rr)
	if err != nil {
		m.writeError(w, r, errors.Wrap(err, "encoding replay"))
		return
	}

	etag := fmt.Sprintf(`"%x"`, helper.ToID(string(body)))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (m *Manager) replayStatus(w http.ResponseWriter, r *http.Request) {
	key, err := sessionKey(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m.replays.State(key))
}

func (m *Manager) replayFrame(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		m.writeError(w, r, badRequest("invalid frame index"))
		return
	}
	rr, err := m.loadReplay(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	f, ok := rr.Frame(index)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("frame %d out of range [0, %d)", index, len(rr.Frames))})
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// replayTable renders the standings at ?lap=N, or after the final lap when absent.
func (m *Manager) replayTable(w http.ResponseWriter, r *http.Request) {
	lap, err := intParam(r, "lap", 0)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	rr, err := m.loadReplay(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}

	f := rr.Frames[len(rr.Frames)-1]
	if lap > 0 {
		var ok bool
		if f, ok = rr.FrameForLap(lap); !ok {
			f = rr.Frames[0]
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, tables.Standings(rr, f))
}
