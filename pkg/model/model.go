package model

import "fmt"

// Session struct represents an OpenF1 "sessions" record.
type Session struct {
	SessionKey       int    `json:"session_key"`
	MeetingKey       int    `json:"meeting_key"`
	SessionName      string `json:"session_name"`
	SessionType      string `json:"session_type"`
	DateStart        string `json:"date_start"`
	DateEnd          string `json:"date_end"`
	GMTOffset        string `json:"gmt_offset"`
	Location         string `json:"location"`
	CountryName      string `json:"country_name"`
	CountryCode      string `json:"country_code"`
	CircuitName      string `json:"circuit_name,omitempty"`
	CircuitShortName string `json:"circuit_short_name"`
	Year             int    `json:"year"`
}

func (s Session) String() string {
	return fmt.Sprintf("%s - %s (%d)", s.CountryName, s.SessionName, s.SessionKey)
}

// Driver struct represents an OpenF1 "drivers" record.
type Driver struct {
	MeetingKey    int    `json:"meeting_key,omitempty"`
	SessionKey    int    `json:"session_key,omitempty"`
	DriverNumber  int    `json:"driver_number"`
	BroadcastName string `json:"broadcast_name"`
	FullName      string `json:"full_name"`
	NameAcronym   string `json:"name_acronym"`
	TeamName      string `json:"team_name"`
	TeamColour    string `json:"team_colour"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	HeadshotURL   string `json:"headshot_url,omitempty"`
	CountryCode   string `json:"country_code"`
}

type Lap struct {
	SessionKey      int        `json:"session_key"`
	MeetingKey      int        `json:"meeting_key"`
	DriverNumber    int        `json:"driver_number"`
	LapNumber       int        `json:"lap_number"`
	DateStart       *Timestamp `json:"date_start,omitempty"`
	LapDuration     *float64   `json:"lap_duration"`
	DurationSector1 *float64   `json:"duration_sector_1,omitempty"`
	DurationSector2 *float64   `json:"duration_sector_2,omitempty"`
	DurationSector3 *float64   `json:"duration_sector_3,omitempty"`
	I1Speed         *int       `json:"i1_speed,omitempty"`
	I2Speed         *int       `json:"i2_speed,omitempty"`
	StSpeed         *int       `json:"st_speed,omitempty"`
	IsPitOutLap     bool       `json:"is_pit_out_lap"`
}

// HasValidDuration reports whether the lap carries a usable lap time.
func (l Lap) HasValidDuration() bool {
	return l.LapDuration != nil && *l.LapDuration > 0
}

type Position struct {
	SessionKey   int       `json:"session_key"`
	MeetingKey   int       `json:"meeting_key"`
	DriverNumber int       `json:"driver_number"`
	Date         Timestamp `json:"date"`
	Position     int       `json:"position"`
}

// Interval struct represents an OpenF1 "intervals" record. Live OpenF1 data names the leader gap
// "gap_to_leader" while older payloads use "gap"; both are accepted.
type Interval struct {
	SessionKey   int       `json:"session_key"`
	MeetingKey   int       `json:"meeting_key"`
	DriverNumber int       `json:"driver_number"`
	Date         Timestamp `json:"date"`
	GapToLeader  *GapValue `json:"gap_to_leader,omitempty"`
	Gap          *GapValue `json:"gap,omitempty"`
	Interval     *GapValue `json:"interval"`
}

// LeaderGap returns the gap to the leader, whichever field carried it.
func (i Interval) LeaderGap() *GapValue {
	if i.GapToLeader != nil {
		return i.GapToLeader
	}
	return i.Gap
}

type Stint struct {
	SessionKey     int    `json:"session_key"`
	MeetingKey     int    `json:"meeting_key"`
	DriverNumber   int    `json:"driver_number"`
	StintNumber    int    `json:"stint_number"`
	Compound       string `json:"compound"`
	LapStart       *int   `json:"lap_start"`
	LapEnd         *int   `json:"lap_end"`
	TyreAgeAtStart int    `json:"tyre_age_at_start"`
}

// Contains reports whether lap falls within the stint. A missing start means the stint began with
// the race and a missing end means it runs to the end of the data.
func (s Stint) Contains(lap int) bool {
	start := 1
	if s.LapStart != nil {
		start = *s.LapStart
	}
	if lap < start {
		return false
	}
	return s.LapEnd == nil || lap <= *s.LapEnd
}

type PitStop struct {
	SessionKey   int        `json:"session_key"`
	MeetingKey   int        `json:"meeting_key"`
	DriverNumber int        `json:"driver_number"`
	Date         *Timestamp `json:"date,omitempty"`
	LapNumber    int        `json:"lap_number"`
	Duration     *float64   `json:"duration,omitempty"`
	PitDuration  *float64   `json:"pit_duration"`
}

type Weather struct {
	SessionKey       int        `json:"session_key"`
	MeetingKey       int        `json:"meeting_key"`
	Date             *Timestamp `json:"date,omitempty"`
	AirTemperature   *float64   `json:"air_temperature"`
	TrackTemperature *float64   `json:"track_temperature"`
	Humidity         *float64   `json:"humidity"`
	Pressure         *float64   `json:"pressure"`
	Rainfall         *float64   `json:"rainfall"`
	WindDirection    *int       `json:"wind_direction"`
	WindSpeed        *float64   `json:"wind_speed"`
}

type SessionResult struct {
	SessionKey    int       `json:"session_key"`
	MeetingKey    int       `json:"meeting_key"`
	DriverNumber  int       `json:"driver_number"`
	Position      int       `json:"position"`
	Classified    bool      `json:"classified"`
	DNF           bool      `json:"dnf"`
	DNS           bool      `json:"dns"`
	Disqualified  bool      `json:"dsq"`
	RaceTime      *float64  `json:"duration"`
	GapToLeader   *GapValue `json:"gap_to_leader"`
	LapsCompleted *int      `json:"number_of_laps"`
}
