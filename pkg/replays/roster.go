package replays

import (
	"sort"
	"strings"

	"f1replay/pkg/helper"
	"f1replay/pkg/model"
)

const (
	UnknownDriverName = "Unknown Driver"
	UnknownFirstName  = "Unknown"
	UnknownLastName   = "Driver"
	UnknownAcronym    = "UNK"
	UnknownTeam       = "Unknown Team"
	DefaultTeamColour = "808080"
	UnknownCountry    = "XX"
)

// BuildRoster keys drivers by number and fills missing display fields. The first record of a
// repeated number wins.
func BuildRoster(drivers []model.Driver) map[int]model.Driver {
	roster := make(map[int]model.Driver, len(drivers))
	for _, d := range drivers {
		if _, ok := roster[d.DriverNumber]; ok {
			continue
		}
		roster[d.DriverNumber] = withDefaults(d)
	}
	return roster
}

func SortedRoster(roster map[int]model.Driver) []model.Driver {
	drivers := make([]model.Driver, 0, len(roster))
	for _, d := range roster {
		drivers = append(drivers, d)
	}
	sort.Slice(drivers, func(i, j int) bool {
		return drivers[i].DriverNumber < drivers[j].DriverNumber
	})
	return drivers
}

func withDefaults(d model.Driver) model.Driver {
	d.FullName = strings.TrimSpace(d.FullName)
	if d.FullName == "" {
		d.FullName = strings.TrimSpace(d.FirstName + " " + d.LastName)
	}
	if d.FullName == "" {
		d.FullName = UnknownDriverName
	}
	if d.FirstName == "" {
		d.FirstName = UnknownFirstName
	}
	if d.LastName == "" {
		d.LastName = UnknownLastName
	}
	if d.BroadcastName == "" {
		d.BroadcastName = strings.ToUpper(d.FullName)
	}
	if d.NameAcronym == "" {
		d.NameAcronym = UnknownAcronym
		if d.FullName != UnknownDriverName {
			d.NameAcronym = helper.DriverCode(d.FullName)
		}
	}
	if d.TeamName == "" {
		d.TeamName = UnknownTeam
	}
	d.TeamColour = strings.TrimPrefix(d.TeamColour, "#")
	if d.TeamColour == "" {
		d.TeamColour = DefaultTeamColour
	}
	if d.CountryCode == "" {
		d.CountryCode = UnknownCountry
	}
	return d
}
