package domain

import "time"

// FeedPath is the public path the static site serves the artifact from.
const FeedPath = "/weather/weather_forecast.json"

// ArtifactName is the file name of the published document inside the output directory.
const ArtifactName = "weather_forecast.json"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Now summarizes current conditions. Temperatures are whole Fahrenheit
// degrees, nil when the provider did not report them.
type Now struct {
	Temp         *int   `json:"temp"`
	Summary      string `json:"summary"`
	Icon         string `json:"icon"`
	High         *int   `json:"high"`
	Low          *int   `json:"low"`
	PrecipChance int    `json:"precip_chance"`
}

// HourlyEntry is one hour of the short-range forecast.
type HourlyEntry struct {
	Time string `json:"time"` // 12-hour label, e.g. "2 PM"
	Temp *int   `json:"temp"`
	Icon string `json:"icon"`
}

// DailyEntry is one day of the multi-day forecast.
type DailyEntry struct {
	Day     string `json:"day"` // weekday name, empty when the date was invalid
	High    *int   `json:"high"`
	Low     *int   `json:"low"`
	Summary string `json:"summary"`
	Icon    string `json:"icon"`
}

// Feed carries static metadata about where consumers fetch the document.
type Feed struct {
	Path string `json:"path"`
}

// Document is the provider-independent weather snapshot written to disk.
type Document struct {
	Location       string        `json:"location"`
	Updated        time.Time     `json:"updated"`
	UpdatedDisplay string        `json:"updated_display"`
	Coordinates    Coordinates   `json:"coordinates"`
	Now            Now           `json:"now"`
	Hourly         []HourlyEntry `json:"hourly"`
	Daily          []DailyEntry  `json:"daily"`
	Feed           Feed          `json:"feed"`
}
