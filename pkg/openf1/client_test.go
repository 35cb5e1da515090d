package openf1

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"f1replay/pkg/cache"
)

func TestEndpoints(t *testing.T) {
	srv, requests := fixtureServer(t)
	c := New(WithBaseURL(srv.URL), WithRequestDelay(0), WithLogger(testLogger(t)))
	ctx := context.Background()

	t.Run("Session", func(t *testing.T) {
		s, err := c.Session(ctx, 9250)
		if err != nil {
			t.Fatal(err)
		}
		if s.CountryName != "Bahrain" {
			t.Errorf("expected country '%s' but found '%s'", "Bahrain", s.CountryName)
		}
		if got := requests.query("/sessions").Get("session_key"); got != "9250" {
			t.Errorf("expected session_key 9250 but found %q", got)
		}
	})

	t.Run("Drivers", func(t *testing.T) {
		drivers, err := c.Drivers(ctx, 9250)
		if err != nil {
			t.Fatal(err)
		}
		if len(drivers) != 2 {
			t.Fatalf("expected %d drivers but found %d", 2, len(drivers))
		}
		if drivers[1].NameAcronym != "PIA" || drivers[1].TeamColour != "FF8000" {
			t.Errorf("unexpected driver %+v", drivers[1])
		}
	})

	t.Run("Laps", func(t *testing.T) {
		laps, err := c.Laps(ctx, 9250)
		if err != nil {
			t.Fatal(err)
		}
		if len(laps) != 3 {
			t.Fatalf("expected %d laps but found %d", 3, len(laps))
		}
		if laps[0].LapDuration != nil {
			t.Errorf("expected nil duration for the opening lap")
		}
		if laps[1].LapDuration == nil || *laps[1].LapDuration != 94.1 {
			t.Errorf("expected 94.1 lap duration")
		}
		if !laps[2].IsPitOutLap || laps[2].DateStart == nil {
			t.Errorf("unexpected lap %+v", laps[2])
		}
		if got := requests.query("/laps").Get("limit"); got != "3000" {
			t.Errorf("expected limit 3000 but found %q", got)
		}
	})

	t.Run("Intervals", func(t *testing.T) {
		intervals, err := c.Intervals(ctx, 9250)
		if err != nil {
			t.Fatal(err)
		}
		if len(intervals) != 3 {
			t.Fatalf("expected %d intervals but found %d", 3, len(intervals))
		}
		if g := intervals[0].LeaderGap(); g == nil || !g.Numeric || g.Seconds != 0 {
			t.Errorf("expected leader gap 0, got %+v", g)
		}
		if g := intervals[2].LeaderGap(); g == nil || g.Numeric || g.Raw != "+1 LAP" {
			t.Errorf("expected lapped sentinel, got %+v", g)
		}
		if got := requests.query("/intervals").Get("limit"); got != "2500" {
			t.Errorf("expected limit 2500 but found %q", got)
		}
	})

	t.Run("Stints", func(t *testing.T) {
		stints, err := c.Stints(ctx, 9250)
		if err != nil {
			t.Fatal(err)
		}
		if len(stints) != 2 || stints[1].LapEnd != nil || *stints[1].LapStart != 19 {
			t.Errorf("unexpected stints %+v", stints)
		}
	})

	t.Run("NoResults", func(t *testing.T) {
		pits, err := c.PitStops(ctx, 9250)
		if err != nil {
			t.Fatal(err)
		}
		if len(pits) != 0 {
			t.Errorf("expected no pit stops but found %d", len(pits))
		}
	})

	t.Run("LatestRaceSession", func(t *testing.T) {
		s, err := c.LatestRaceSession(ctx, 2025, 2024)
		if err != nil {
			t.Fatal(err)
		}
		if s.SessionKey != 9250 {
			t.Errorf("expected race 9250 but found %d", s.SessionKey)
		}
		if got := requests.query("/sessions").Get("year"); got != "2025" {
			t.Errorf("expected year 2025 but found %q", got)
		}
	})
}

func TestUpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := New(WithBaseURL(srv.URL), WithRequestDelay(0), WithLogger(testLogger(t)))
	_, err := c.Positions(context.Background(), 9250)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status %d but found %d", http.StatusServiceUnavailable, statusErr.StatusCode)
	}
}

func TestSessionNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)

	c := New(WithBaseURL(srv.URL), WithRequestDelay(0), WithLogger(testLogger(t)))
	if _, err := c.Session(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.LatestRaceSession(context.Background(), 2025); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestsGoThroughCache(t *testing.T) {
	t.Parallel()

	srv, requests := fixtureServer(t)
	rc := cache.New(time.Minute, cache.WithLogger(testLogger(t)))
	c := New(WithBaseURL(srv.URL), WithRequestDelay(0), WithCache(rc), WithLogger(testLogger(t)))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Stints(ctx, 9250); err != nil {
			t.Fatal(err)
		}
	}
	if n := requests.count("/stints"); n != 1 {
		t.Fatalf("expected 1 upstream request but found %d", n)
	}

	if _, err := c.Stints(ForceRefresh(ctx), 9250); err != nil {
		t.Fatal(err)
	}
	if n := requests.count("/stints"); n != 2 {
		t.Fatalf("forced refresh should hit upstream, found %d requests", n)
	}
}

func TestRequestDelayHonoursContext(t *testing.T) {
	t.Parallel()

	srv, _ := fixtureServer(t)
	c := New(WithBaseURL(srv.URL), WithRequestDelay(time.Hour), WithLogger(testLogger(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Laps(ctx, 9250); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type recorder struct {
	mu      sync.Mutex
	queries map[string][]url.Values
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries[req.URL.Path] = append(r.queries[req.URL.Path], req.URL.Query())
}

// query returns the parameters of the last request made to p.
func (r *recorder) query(p string) url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := r.queries[p]
	if len(q) == 0 {
		return url.Values{}
	}
	return q[len(q)-1]
}

func (r *recorder) count(p string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries[p])
}

// fixtureServer serves testdata/<endpoint>.json and answers 404 for endpoints without a fixture.
func fixtureServer(t *testing.T) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{queries: make(map[string][]url.Values)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		data, err := os.ReadFile(path.Join(testdataDir(), path.Base(r.URL.Path)+".json"))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"No results found."}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func testdataDir() string {
	_, p, _, _ := runtime.Caller(0)
	return path.Join(filepath.Dir(p), "testdata")
}

// testLogger creates a logger that discards everything so tests stay quiet.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
