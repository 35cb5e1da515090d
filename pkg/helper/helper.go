package helper

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

const NoLapTime = "--:--"

// FormatLapTime converts seconds to M:SS.mmm, rounding to the nearest millisecond.
func FormatLapTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return NoLapTime
	}
	ms := int64(math.Round(seconds * 1000))
	minutes := ms / 60000
	secs := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, secs, millis)
}

func SecondsToHoursAndMinutes(seconds float64) string {
	if seconds <= 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	seconds = seconds - float64(hours*3600)
	minutes := int(seconds / 60)
	return fmt.Sprintf("%02dh %02dm", hours, minutes)
}

// DriverCode builds a three letter acronym from a driver name, e.g. "Max Verstappen" -> "VER".
// Single names use their first three letters.
func DriverCode(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return ""
	}
	word := words[len(words)-1]
	runes := []rune(word)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return strings.ToUpper(string(runes))
}

// convert name to a hash
func ToID(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return fmt.Sprint(h.Sum32())
}
