package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// GapValue holds a gap or interval as OpenF1 sends it: a number of seconds, a numeric string, or a
// text sentinel such as "+1 LAP". Raw keeps the original text for sentinels.
type GapValue struct {
	Raw     string
	Seconds float64
	Numeric bool
}

func SecondsGap(seconds float64) *GapValue {
	return &GapValue{Seconds: seconds, Numeric: true, Raw: strconv.FormatFloat(seconds, 'f', -1, 64)}
}

func TextGap(raw string) *GapValue {
	return &GapValue{Raw: raw}
}

func (g *GapValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Wrap(err, "decoding gap")
		}
		*g = GapValue{Raw: raw}
		trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "+")
		if seconds, err := strconv.ParseFloat(trimmed, 64); err == nil {
			g.Seconds = seconds
			g.Numeric = true
		}
		return nil
	}
	seconds, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.Wrapf(err, "decoding gap %s", data)
	}
	*g = GapValue{Raw: string(data), Seconds: seconds, Numeric: true}
	return nil
}

func (g GapValue) MarshalJSON() ([]byte, error) {
	if g.Numeric {
		return json.Marshal(g.Seconds)
	}
	return json.Marshal(g.Raw)
}
