package webserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"f1replay/pkg/notification"
	"f1replay/pkg/replay"
)

const (
	mtFrame = "frame"
	mtEnd   = "end"
	mtToast = "toast"

	maxSpeed        = 64.0
	minTickInterval = time.Millisecond
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
}

type Message struct {
	MessageType string `json:"type"`
	Body        any    `json:"body,omitempty"`
}

type FrameBody struct {
	Index     int          `json:"index"`
	TotalLaps int          `json:"total_laps"`
	Frame     replay.Frame `json:"frame"`
}

type EndBody struct {
	Frames int `json:"frames"`
}

func speedParam(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("speed")
	if raw == "" {
		return 1, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v > maxSpeed {
		return 0, badRequest("invalid speed %q, expected (0, %g]", raw, maxSpeed)
	}
	return v, nil
}

// tickInterval is the delay between frames at speed, never below minTickInterval.
func tickInterval(base time.Duration, speed float64) time.Duration {
	d := time.Duration(float64(base) / speed)
	if d < minTickInterval {
		return minTickInterval
	}
	return d
}

// conn wraps a websocket with the keepalive and write deadline handling both streams share.
type conn struct {
	ws *websocket.Conn
}

// watch reads until the peer goes away and cancels the returned context then. Incoming data
// messages are discarded.
func (c conn) watch(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ws.NextReader(); err != nil {
				return
			}
		}
	}()
	return ctx
}

func (c conn) send(msg Message) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

func (c conn) ping() error {
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c conn) close() {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	_ = c.ws.Close()
}

// replayStream plays a replay back one frame per tick, starting at ?from=, with ?speed= dividing
// the tick interval. It ends with an "end" message.
func (m *Manager) replayStream(w http.ResponseWriter, r *http.Request) {
	from, err := intParam(r, "from", 0)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	speed, err := speedParam(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	rr, err := m.loadReplay(r)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	if from >= len(rr.Frames) {
		m.writeError(w, r, badRequest("from %d past the last frame %d", from, len(rr.Frames)-1))
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	c := conn{ws: ws}
	defer c.close()
	ctx := c.watch(m.streams)

	m.logger.Debug("replay stream started", "session_key", rr.Session.SessionKey, "from", from, "speed", speed)

	tick := time.NewTicker(tickInterval(m.frameInterval, speed))
	defer tick.Stop()
	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()

	for i := from; i < len(rr.Frames); {
		if err := c.send(Message{MessageType: mtFrame, Body: FrameBody{Index: i, TotalLaps: rr.TotalLaps, Frame: rr.Frames[i]}}); err != nil {
			m.logger.Debug("replay stream write failed", "error", err)
			return
		}
		i++
		if i == len(rr.Frames) {
			break
		}
		if !m.wait(ctx, c, tick, keepalive) {
			return
		}
	}
	_ = c.send(Message{MessageType: mtEnd, Body: EndBody{Frames: len(rr.Frames)}})
}

// wait blocks until the next tick, answering keepalive ticks meanwhile. It reports false when the
// stream should stop.
func (m *Manager) wait(ctx context.Context, c conn, tick, keepalive *time.Ticker) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-keepalive.C:
			if err := c.ping(); err != nil {
				return false
			}
		case <-tick.C:
			return true
		}
	}
}

// notifications relays toasts to the client until either side goes away.
func (m *Manager) notifications(w http.ResponseWriter, r *http.Request) {
	if m.toasts == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "notifications are disabled"})
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return
	}
	c := conn{ws: ws}
	defer c.close()
	ctx := c.watch(m.streams)

	toasts, unsubscribe := m.toasts.Subscribe(notification.TopicToasts)
	defer unsubscribe()

	keepalive := time.NewTicker(pingPeriod)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			if err := c.ping(); err != nil {
				return
			}
		case t, ok := <-toasts:
			if !ok {
				return
			}
			if err := c.send(Message{MessageType: mtToast, Body: t}); err != nil {
				return
			}
		}
	}
}
