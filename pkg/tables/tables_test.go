package tables

import (
	"strings"
	"testing"

	"f1replay/pkg/model"
	"f1replay/pkg/replay"
)

func TestStandings(t *testing.T) {
	t.Parallel()

	r := replay.RaceReplay{
		Session:   model.Session{CountryName: "Bahrain", SessionName: "Race"},
		TotalLaps: 57,
		Drivers: map[int]model.Driver{
			81: {DriverNumber: 81, NameAcronym: "PIA", TeamName: "McLaren"},
			63: {DriverNumber: 63, FullName: "George RUSSELL", TeamName: "Mercedes"},
		},
	}
	f := replay.Frame{
		LapNumber:   12,
		ElapsedTime: 1150,
		Drivers: []replay.DriverSnapshot{
			{DriverNumber: 81, Position: 1, Gap: "0.000", LapTime: "1:35.120", Tyre: "MEDIUM"},
			{DriverNumber: 63, Position: 2, Gap: "+2.301", LapTime: "1:35.870", Tyre: "HARD", PitStops: 1},
		},
	}

	out := Standings(r, f)

	for _, want := range []string{"Bahrain - Race | Lap 12/57 | 00h 19m", "LAST LAP", "PIA", "RUS", "McLaren", "+2.301", "1:35.870", "HARD"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("expected %q in\n%s", want, out)
		}
	}
	if strings.Index(out, "PIA") > strings.Index(out, "RUS") {
		t.Errorf("rows must follow frame order\n%s", out)
	}
}
