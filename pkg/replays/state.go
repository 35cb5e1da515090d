package replays

import (
	"time"

	"github.com/pkg/errors"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

var statusNames = map[Status]string{
	StatusIdle:    "idle",
	StatusLoading: "loading",
	StatusReady:   "ready",
	StatusError:   "error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return errors.Errorf("unknown status %q", text)
}

// LoadState describes where a session's replay is in its loading lifecycle. Frames and TotalLaps are
// set once ready; Err once failed.
type LoadState struct {
	Status     Status    `json:"status"`
	SessionKey int       `json:"session_key"`
	Frames     int       `json:"frames,omitempty"`
	TotalLaps  int       `json:"total_laps,omitempty"`
	Err        string    `json:"error,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}
