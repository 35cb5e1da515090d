package webserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"f1replay/pkg/mock"
	"f1replay/pkg/model"
	"f1replay/pkg/notification"
	"f1replay/pkg/pubsub"
	"f1replay/pkg/replay"
	"f1replay/pkg/replays"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// brokenSource fails every laps request.
type brokenSource struct {
	*mock.Source
}

func (brokenSource) Laps(context.Context, int) ([]model.Lap, error) {
	return nil, errors.New("upstream unavailable")
}

func newTestServer(t *testing.T, source replays.Source, opts ...Option) *httptest.Server {
	t.Helper()
	svc := replays.NewManager(source, replays.WithLogger(testLogger), replays.WithRaceYears(2025))
	opts = append([]Option{WithLogger(testLogger), WithFrameInterval(time.Millisecond)}, opts...)
	m := NewManager(svc, opts...)
	srv := httptest.NewServer(m.Handler())
	t.Cleanup(func() {
		m.Close()
		srv.Close()
	})
	return srv
}

func get(t *testing.T, url string, header ...string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	return res, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decoding %s: %v", body, err)
	}
	return v
}

func TestStatusCodes(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, mock.New(1))
	broken := newTestServer(t, brokenSource{mock.New(1)})

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"health", srv.URL + "/health", http.StatusOK},
		{"sessions", srv.URL + "/sessions?year=2025", http.StatusOK},
		{"bad year", srv.URL + "/sessions?year=last", http.StatusBadRequest},
		{"session", srv.URL + "/sessions/9250", http.StatusOK},
		{"unknown session", srv.URL + "/sessions/1", http.StatusNotFound},
		{"drivers", srv.URL + "/sessions/9250/drivers", http.StatusOK},
		{"weather", srv.URL + "/sessions/9250/weather", http.StatusOK},
		{"results", srv.URL + "/sessions/9250/results", http.StatusOK},
		{"replay", srv.URL + "/sessions/9250/replay", http.StatusOK},
		{"replay of unknown session", srv.URL + "/sessions/1/replay", http.StatusNotFound},
		{"bad refresh flag", srv.URL + "/sessions/9250/replay?refresh=maybe", http.StatusBadRequest},
		{"frame", srv.URL + "/sessions/9250/replay/frames/0", http.StatusOK},
		{"frame out of range", srv.URL + "/sessions/9250/replay/frames/50", http.StatusNotFound},
		{"bad lap", srv.URL + "/sessions/9250/replay/table?lap=x", http.StatusBadRequest},
		{"bad speed", srv.URL + "/sessions/9250/replay/stream?speed=0", http.StatusBadRequest},
		{"from past the end", srv.URL + "/sessions/9250/replay/stream?from=50", http.StatusBadRequest},
		{"upstream failure", broken.URL + "/sessions/9250/replay", http.StatusBadGateway},
		{"notifications disabled", srv.URL + "/notifications", http.StatusNotFound},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, body := get(t, tt.url)
			if res.StatusCode != tt.want {
				t.Fatalf("expected status %d but got %d: %s", tt.want, res.StatusCode, body)
			}
			if tt.want >= http.StatusBadRequest && res.Header.Get("Content-Type") == "application/json" {
				if e := decode[errorBody](t, body); e.Error == "" {
					t.Fatal("error responses must carry a message")
				}
			}
		})
	}
}

func TestSessions(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, mock.New(1))

	_, body := get(t, srv.URL+"/sessions?year=2025&session_type=Race")
	if races := decode[[]model.Session](t, body); len(races) != 2 {
		t.Fatalf("expected 2 races but found %d", len(races))
	}

	_, body = get(t, srv.URL+"/sessions/latest-race")
	if latest := decode[model.Session](t, body); latest.SessionKey != 9250 {
		t.Fatalf("expected latest race 9250 but found %d", latest.SessionKey)
	}

	_, body = get(t, srv.URL+"/sessions/9250/drivers")
	drivers := decode[[]model.Driver](t, body)
	for i := 1; i < len(drivers); i++ {
		if drivers[i-1].DriverNumber > drivers[i].DriverNumber {
			t.Fatal("drivers should be ordered by number")
		}
	}
}

func TestReplayETag(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, mock.New(1))

	res, body := get(t, srv.URL+"/sessions/9250/replay")
	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatal("replay responses should carry an ETag")
	}
	r := decode[replay.RaceReplay](t, body)
	if r.TotalLaps != 50 || len(r.Frames) != 50 {
		t.Fatalf("unexpected replay: %d laps, %d frames", r.TotalLaps, len(r.Frames))
	}

	res, _ = get(t, srv.URL+"/sessions/9250/replay", "If-None-Match", etag)
	if res.StatusCode != http.StatusNotModified {
		t.Fatalf("expected 304 but got %d", res.StatusCode)
	}

	_, body = get(t, srv.URL+"/sessions/9250/replay/status")
	state := decode[replays.LoadState](t, body)
	if state.Status != replays.StatusReady || state.Frames != 50 {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestReplayTable(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, mock.New(1))

	res, body := get(t, srv.URL+"/sessions/9250/replay/table?lap=10")
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", res.Header.Get("Content-Type"))
	}
	if !strings.Contains(strings.ToLower(string(body)), "lap 10/50") {
		t.Fatalf("table should show lap 10:\n%s", body)
	}

	_, body = get(t, srv.URL+"/sessions/9250/replay/table")
	if !strings.Contains(strings.ToLower(string(body)), "lap 50/50") {
		t.Fatalf("table should default to the last lap:\n%s", body)
	}
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	return c
}

type rawMessage struct {
	MessageType string          `json:"type"`
	Body        json.RawMessage `json:"body"`
}

func TestReplayStream(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, mock.New(1))
	c := dial(t, srv, "/sessions/9250/replay/stream?from=45&speed=4")

	want := 45
	for {
		var msg rawMessage
		if err := c.ReadJSON(&msg); err != nil {
			t.Fatal(err)
		}
		if msg.MessageType == mtEnd {
			if end := decode[EndBody](t, msg.Body); end.Frames != 50 {
				t.Fatalf("end message should report 50 frames, got %d", end.Frames)
			}
			break
		}
		if msg.MessageType != mtFrame {
			t.Fatalf("unexpected message type %q", msg.MessageType)
		}
		f := decode[FrameBody](t, msg.Body)
		if f.Index != want || f.Frame.LapNumber != want+1 {
			t.Fatalf("expected frame %d, got index %d lap %d", want, f.Index, f.Frame.LapNumber)
		}
		want++
	}
	if want != 50 {
		t.Fatalf("expected frames 45 to 49, stopped at %d", want)
	}
}

func TestNotifications(t *testing.T) {
	t.Parallel()

	hub := pubsub.NewPubSub[notification.Toast]()
	srv := newTestServer(t, mock.New(1), WithToasts(hub))
	c := dial(t, srv, "/notifications")

	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers(notification.TopicToasts) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(notification.TopicToasts, notification.Toast{Title: "Replay ready", Message: "session 9250"})

	var msg rawMessage
	if err := c.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.MessageType != mtToast {
		t.Fatalf("unexpected message type %q", msg.MessageType)
	}
	if toast := decode[notification.Toast](t, msg.Body); toast.Title != "Replay ready" {
		t.Fatalf("unexpected toast %+v", toast)
	}
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	m := NewManager(replays.NewManager(mock.New(1)), WithLogger(testLogger))
	defer m.Close()

	routes := strings.Join(m.Routes(), "\n")
	for _, want := range []string{"/health", "/sessions/{key:[0-9]+}/replay/stream", "/notifications"} {
		if !strings.Contains(routes, want) {
			t.Errorf("route %s not registered:\n%s", want, routes)
		}
	}
}
