package mock

import "f1replay/pkg/model"

const headshotBase = "https://www.formula1.com/content/dam/fom-website/drivers/"

var drivers = []model.Driver{
	{MeetingKey: 1250, DriverNumber: 1, BroadcastName: "M VERSTAPPEN", FullName: "Max VERSTAPPEN", NameAcronym: "VER", TeamName: "Red Bull Racing Honda RBPT", TeamColour: "3671C6", FirstName: "Max", LastName: "Verstappen", HeadshotURL: headshotBase + "M/MAXVER01_Max_Verstappen/maxver01.png", CountryCode: "NLD"},
	{MeetingKey: 1250, DriverNumber: 81, BroadcastName: "O PIASTRI", FullName: "Oscar PIASTRI", NameAcronym: "PIA", TeamName: "McLaren Mercedes", TeamColour: "FF8000", FirstName: "Oscar", LastName: "Piastri", HeadshotURL: headshotBase + "O/OSCPIA01_Oscar_Piastri/oscpia01.png", CountryCode: "AUS"},
	{MeetingKey: 1250, DriverNumber: 4, BroadcastName: "L NORRIS", FullName: "Lando NORRIS", NameAcronym: "NOR", TeamName: "McLaren Mercedes", TeamColour: "FF8000", FirstName: "Lando", LastName: "Norris", HeadshotURL: headshotBase + "L/LANNOR01_Lando_Norris/lannor01.png", CountryCode: "GBR"},
	{MeetingKey: 1250, DriverNumber: 16, BroadcastName: "C LECLERC", FullName: "Charles LECLERC", NameAcronym: "LEC", TeamName: "Ferrari", TeamColour: "E80020", FirstName: "Charles", LastName: "Leclerc", HeadshotURL: headshotBase + "C/CHALEC01_Charles_Leclerc/chalec01.png", CountryCode: "MCO"},
	{MeetingKey: 1250, DriverNumber: 55, BroadcastName: "C SAINZ", FullName: "Carlos SAINZ", NameAcronym: "SAI", TeamName: "Ferrari", TeamColour: "E80020", FirstName: "Carlos", LastName: "Sainz", HeadshotURL: headshotBase + "C/CARSAI01_Carlos_Sainz/carsai01.png", CountryCode: "ESP"},
	{MeetingKey: 1250, DriverNumber: 63, BroadcastName: "G RUSSELL", FullName: "George RUSSELL", NameAcronym: "RUS", TeamName: "Mercedes", TeamColour: "27F4D2", FirstName: "George", LastName: "Russell", HeadshotURL: headshotBase + "G/GEORUS01_George_Russell/georus01.png", CountryCode: "GBR"},
	{MeetingKey: 1250, DriverNumber: 44, BroadcastName: "L HAMILTON", FullName: "Lewis HAMILTON", NameAcronym: "HAM", TeamName: "Mercedes", TeamColour: "27F4D2", FirstName: "Lewis", LastName: "Hamilton", HeadshotURL: headshotBase + "L/LEWHAM01_Lewis_Hamilton/lewham01.png", CountryCode: "GBR"},
	{MeetingKey: 1250, DriverNumber: 11, BroadcastName: "S PEREZ", FullName: "Sergio PEREZ", NameAcronym: "PER", TeamName: "Red Bull Racing Honda RBPT", TeamColour: "3671C6", FirstName: "Sergio", LastName: "Perez", HeadshotURL: headshotBase + "S/SERPER01_Sergio_Perez/serper01.png", CountryCode: "MEX"},
	{MeetingKey: 1250, DriverNumber: 14, BroadcastName: "F ALONSO", FullName: "Fernando ALONSO", NameAcronym: "ALO", TeamName: "Aston Martin Aramco Mercedes", TeamColour: "229971", FirstName: "Fernando", LastName: "Alonso", HeadshotURL: headshotBase + "F/FERALO01_Fernando_Alonso/feralo01.png", CountryCode: "ESP"},
	{MeetingKey: 1250, DriverNumber: 18, BroadcastName: "L STROLL", FullName: "Lance STROLL", NameAcronym: "STR", TeamName: "Aston Martin Aramco Mercedes", TeamColour: "229971", FirstName: "Lance", LastName: "Stroll", HeadshotURL: headshotBase + "L/LANSTR01_Lance_Stroll/lanstr01.png", CountryCode: "CAN"},
}

var sessions = []model.Session{
	bahrain(9250, "Race", "Race", "2025-03-16T15:00:00", "2025-03-16T17:00:00"),
	bahrain(9249, "Qualifying", "Qualifying", "2025-03-15T18:00:00", "2025-03-15T19:00:00"),
	bahrain(9248, "Sprint", "Sprint", "2025-03-15T14:30:00", "2025-03-15T15:00:00"),
	jeddah(9247, "Race", "Race", "2025-03-09T20:00:00", "2025-03-09T22:00:00"),
	jeddah(9246, "Qualifying", "Qualifying", "2025-03-08T20:00:00", "2025-03-08T21:00:00"),
	yasMarina(9158, "Race", "Race", "2024-12-08T15:00:00", "2024-12-08T17:00:00"),
	yasMarina(9157, "Qualifying", "Qualifying", "2024-12-07T18:00:00", "2024-12-07T19:00:00"),
}

// DNFs by driver number: the lap on which the car stops.
var retirements = map[int]int{
	14: 15,
	18: 32,
}

var safetyCarLaps = map[int]bool{18: true, 19: true, 20: true, 35: true, 36: true}

func skill(driverNumber int) float64 {
	switch driverNumber {
	case 1, 81, 4:
		return 1.0
	case 16, 55:
		return 0.95
	case 63, 44:
		return 0.92
	default:
		return 0.88
	}
}

func bahrain(key int, name, kind, start, end string) model.Session {
	return model.Session{
		SessionKey: key, MeetingKey: 1250, SessionName: name, SessionType: kind,
		DateStart: start, DateEnd: end, GMTOffset: "+03:00",
		Location: "Sakhir", CountryName: "Bahrain", CountryCode: "BHR",
		CircuitName: "Bahrain International Circuit", CircuitShortName: "Bahrain", Year: 2025,
	}
}

func jeddah(key int, name, kind, start, end string) model.Session {
	return model.Session{
		SessionKey: key, MeetingKey: 1249, SessionName: name, SessionType: kind,
		DateStart: start, DateEnd: end, GMTOffset: "+03:00",
		Location: "Jeddah", CountryName: "Saudi Arabia", CountryCode: "SAU",
		CircuitName: "Jeddah Corniche Circuit", CircuitShortName: "Jeddah", Year: 2025,
	}
}

func yasMarina(key int, name, kind, start, end string) model.Session {
	return model.Session{
		SessionKey: key, MeetingKey: 1234, SessionName: name, SessionType: kind,
		DateStart: start, DateEnd: end, GMTOffset: "+04:00",
		Location: "Abu Dhabi", CountryName: "United Arab Emirates", CountryCode: "ARE",
		CircuitName: "Yas Marina Circuit", CircuitShortName: "Yas Marina", Year: 2024,
	}
}
