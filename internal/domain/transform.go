package domain

import (
	"math"
	"strconv"
	"time"
)

const (
	maxHourlyEntries = 12
	maxDailyEntries  = 7

	// DefaultIcon is used for any condition type missing from the icon table.
	DefaultIcon = "🌤️"
)

// iconByCondition maps provider condition types to icon tokens. The table is
// closed: anything not listed falls back to DefaultIcon.
var iconByCondition = map[string]string{
	"CLEAR":         "☀️",
	"MOSTLY_CLEAR":  "🌤️",
	"PARTLY_CLOUDY": "⛅",
	"MOSTLY_CLOUDY": "☁️",
	"CLOUDY":        "☁️",
	"OVERCAST":      "☁️",
	"RAIN":          "🌧️",
	"SHOWERS":       "🌦️",
	"LIGHT_RAIN":    "🌦️",
	"HEAVY_RAIN":    "🌧️",
	"THUNDERSTORM":  "⛈️",
	"SNOW":          "🌨️",
	"LIGHT_SNOW":    "🌨️",
	"HEAVY_SNOW":    "❄️",
	"SLEET":         "🌨️",
	"FREEZING_RAIN": "🌨️",
	"FOG":           "🌫️",
	"HAZE":          "🌫️",
	"WINDY":         "💨",
}

// Normalize builds the published document from whatever sections were fetched.
// now stamps the document; its location is used for the display string.
func Normalize(raw RawFetchResult, target PollTarget, now time.Time) Document {
	return Document{
		Location:       target.DisplayName(),
		Updated:        now.UTC(),
		UpdatedDisplay: "Updated " + now.Format("3:04 PM MST"),
		Coordinates:    Coordinates{Lat: target.Latitude, Lon: target.Longitude},
		Now:            normalizeNow(raw.Section(SectionCurrent)),
		Hourly:         normalizeHourly(raw.Section(SectionHourly)),
		Daily:          normalizeDaily(raw.Section(SectionDaily)),
		Feed:           Feed{Path: FeedPath},
	}
}

func normalizeNow(current Node) Now {
	condition := current.Get("weatherCondition")
	history := current.Get("currentConditionsHistory")

	return Now{
		Temp:         temperature(current.Get("temperature")),
		Summary:      condition.Get("description", "text").String(""),
		Icon:         Icon(condition.Get("type").String("")),
		High:         temperature(history.Get("maxTemperature")),
		Low:          temperature(history.Get("minTemperature")),
		PrecipChance: current.Get("precipitation", "probability", "percent").Int(0),
	}
}

func normalizeHourly(hourly Node) []HourlyEntry {
	hours := hourly.Get("forecastHours").Items()
	if len(hours) > maxHourlyEntries {
		hours = hours[:maxHourlyEntries]
	}

	out := make([]HourlyEntry, 0, len(hours))
	for _, hour := range hours {
		out = append(out, HourlyEntry{
			Time: HourLabel(hour.Get("displayDateTime", "hours").Int(0)),
			Temp: temperature(hour.Get("temperature")),
			Icon: Icon(hour.Get("weatherCondition", "type").String("")),
		})
	}
	return out
}

func normalizeDaily(daily Node) []DailyEntry {
	days := daily.Get("forecastDays").Items()
	if len(days) > maxDailyEntries {
		days = days[:maxDailyEntries]
	}

	out := make([]DailyEntry, 0, len(days))
	for _, day := range days {
		condition := day.Get("daytimeForecast", "weatherCondition")
		date := day.Get("displayDate")
		out = append(out, DailyEntry{
			Day:     Weekday(date.Get("year"), date.Get("month"), date.Get("day")),
			High:    temperature(day.Get("maxTemperature")),
			Low:     temperature(day.Get("minTemperature")),
			Summary: condition.Get("description", "text").String(""),
			Icon:    Icon(condition.Get("type").String("")),
		})
	}
	return out
}

// temperature converts a provider temperature object to Fahrenheit,
// returning nil when "degrees" is missing, not a number, or converts to a
// value outside the int32 range.
func temperature(n Node) *int {
	c, ok := n.Get("degrees").Float()
	if !ok {
		return nil
	}
	v := fahrenheit(c)
	if v > math.MaxInt32 || v < math.MinInt32 {
		return nil
	}
	f := int(v)
	return &f
}

// Fahrenheit converts Celsius to whole Fahrenheit degrees, rounding half away from zero.
func Fahrenheit(celsius float64) int {
	return int(fahrenheit(celsius))
}

func fahrenheit(celsius float64) float64 {
	return math.Round(celsius*9/5 + 32)
}

// Icon maps a provider condition type to its icon token.
func Icon(condition string) string {
	if icon, ok := iconByCondition[condition]; ok {
		return icon
	}
	return DefaultIcon
}

// KnownIcon reports whether icon is one Icon can produce.
func KnownIcon(icon string) bool {
	if icon == DefaultIcon {
		return true
	}
	for _, v := range iconByCondition {
		if v == icon {
			return true
		}
	}
	return false
}

// HourLabel renders an hour of day on a 12-hour clock: 0 -> "12 AM",
// 13 -> "1 PM". Values outside 0-23 wrap around the day.
func HourLabel(hour int) string {
	hour = ((hour % 24) + 24) % 24
	switch {
	case hour == 0:
		return "12 AM"
	case hour < 12:
		return strconv.Itoa(hour) + " AM"
	case hour == 12:
		return "12 PM"
	default:
		return strconv.Itoa(hour-12) + " PM"
	}
}

// Weekday returns the English weekday of a provider date triple, or "" when
// any part is missing or the triple is not a real calendar date.
func Weekday(year, month, day Node) string {
	y, okY := wholeNumber(year)
	m, okM := wholeNumber(month)
	d, okD := wholeNumber(day)
	if !okY || !okM || !okD {
		return ""
	}
	if y < 1 || y > 9999 || m < 1 || m > 12 || d < 1 {
		return ""
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return ""
	}
	return t.Weekday().String()
}

func wholeNumber(n Node) (int, bool) {
	f, ok := n.Float()
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
