package replay

import (
	"fmt"
	"strings"

	"f1replay/pkg/helper"
	"f1replay/pkg/model"
)

func formatLapTime(lap *model.Lap) string {
	if lap == nil || !lap.HasValidDuration() {
		return helper.NoLapTime
	}
	return helper.FormatLapTime(*lap.LapDuration)
}

// formatGap renders the leader gap of an interval sample. The gap field wins over the interval
// field; blank text counts as absent. Text sentinels such as "+1 LAP" pass through unchanged.
func formatGap(interval *model.Interval) string {
	if interval == nil {
		return NoGap
	}
	value := interval.GapToLeader
	if !present(value) {
		value = interval.Gap
	}
	if !present(value) {
		value = interval.Interval
	}
	if !present(value) {
		return NoGap
	}
	if !value.Numeric {
		return strings.TrimSpace(value.Raw)
	}
	switch {
	case value.Seconds == 0:
		return LeaderGap
	case value.Seconds < 0:
		// ahead of the reference car; the sign already marks it
		return fmt.Sprintf("%.3f", value.Seconds)
	default:
		return fmt.Sprintf("+%.3f", value.Seconds)
	}
}

func present(v *model.GapValue) bool {
	return v != nil && (v.Numeric || strings.TrimSpace(v.Raw) != "")
}
