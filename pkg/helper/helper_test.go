package helper

import "testing"

func TestFormatLapTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seconds float64
		want    string
	}{
		{seconds: 90.5, want: "1:30.500"},
		{seconds: 92.0, want: "1:32.000"},
		{seconds: 59.9994, want: "0:59.999"},
		{seconds: 59.9996, want: "1:00.000"},
		{seconds: 125.067, want: "2:05.067"},
		{seconds: 0, want: NoLapTime},
		{seconds: -3, want: NoLapTime},
	}

	for _, tt := range tests {
		if got := FormatLapTime(tt.seconds); got != tt.want {
			t.Errorf("FormatLapTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestSecondsToHoursAndMinutes(t *testing.T) {
	t.Parallel()

	if got := SecondsToHoursAndMinutes(5535); got != "01h 32m" {
		t.Fatalf("got %q", got)
	}
	if got := SecondsToHoursAndMinutes(-1); got != "00h 00m" {
		t.Fatalf("got %q", got)
	}
}

func TestDriverCode(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Max Verstappen":        "VER",
		"Lewis HAMILTON":        "HAM",
		"Zhou":                  "ZHO",
		"Guanyu  Zhou":          "ZHO",
		"Andrea Kimi Antonelli": "ANT",
		"":                      "",
		"Li":                    "LI",
	}
	for name, want := range tests {
		if got := DriverCode(name); got != want {
			t.Errorf("DriverCode(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestToIDIsStable(t *testing.T) {
	t.Parallel()

	if ToID("9250") != ToID("9250") {
		t.Fatal("ToID must be deterministic")
	}
	if ToID("9250") == ToID("9251") {
		t.Fatal("distinct inputs should hash differently")
	}
}
