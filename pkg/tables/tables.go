package tables

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"f1replay/pkg/helper"
	"f1replay/pkg/model"
	"f1replay/pkg/replay"
)

const (
	tablePos     = "POS"
	tableNumber  = "NO"
	tableDriver  = "DRIVER"
	tableTeam    = "TEAM"
	tableGap     = "GAP"
	tableLastLap = "LAST LAP"
	tableTyre    = "TYRE"
	tablePits    = "PITS"
)

// Title describes the frame, e.g. "Bahrain - Race | Lap 12/50 | 00h 18m".
func Title(r replay.RaceReplay, f replay.Frame) string {
	return fmt.Sprintf("%s - %s | Lap %d/%d | %s",
		r.Session.CountryName, r.Session.SessionName, f.LapNumber, r.TotalLaps,
		helper.SecondsToHoursAndMinutes(f.ElapsedTime))
}

// Standings renders one frame as a text table.
func Standings(r replay.RaceReplay, f replay.Frame) string {
	var b strings.Builder
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(Title(r, f))
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: tablePos, Align: text.AlignRight},
		{Name: tableNumber, Align: text.AlignRight},
		{Name: tableGap, Align: text.AlignRight},
		{Name: tableLastLap, Align: text.AlignRight},
		{Name: tablePits, Align: text.AlignRight},
	})

	t.AppendHeader(table.Row{tablePos, tableNumber, tableDriver, tableTeam, tableGap, tableLastLap, tableTyre, tablePits})
	for _, d := range f.Drivers {
		driver := r.Drivers[d.DriverNumber]
		t.AppendRow([]interface{}{
			d.Position,
			d.DriverNumber,
			driverName(driver),
			driver.TeamName,
			d.Gap,
			d.LapTime,
			d.Tyre,
			d.PitStops,
		})
	}
	t.Render()
	return b.String()
}

func driverName(d model.Driver) string {
	if d.NameAcronym != "" {
		return d.NameAcronym
	}
	return helper.DriverCode(d.FullName)
}
