package domain

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Section identifies one of the three upstream lookups made per cycle.
type Section string

const (
	SectionCurrent Section = "current"
	SectionHourly  Section = "hourly"
	SectionDaily   Section = "daily"
)

// Sections lists every section in fetch order.
var Sections = []Section{SectionCurrent, SectionHourly, SectionDaily}

// Endpoints holds the per-section resource paths relative to the API base URL.
type Endpoints struct {
	Current string
	Hourly  string
	Daily   string
}

// PollTarget identifies the single location a daemon instance polls.
// It is built once at startup and passed by value.
type PollTarget struct {
	Name      string
	Latitude  float64
	Longitude float64
	BaseURL   string
	Endpoints Endpoints
	APIKey    string
	Timeout   time.Duration
}

// DisplayName returns the configured name, or "lat,lon" when none was given.
func (t PollTarget) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return formatCoord(t.Latitude) + "," + formatCoord(t.Longitude)
}

// Endpoint returns the resource path for a section.
func (t PollTarget) Endpoint(s Section) string {
	switch s {
	case SectionCurrent:
		return t.Endpoints.Current
	case SectionHourly:
		return t.Endpoints.Hourly
	case SectionDaily:
		return t.Endpoints.Daily
	default:
		return ""
	}
}

// URL builds the full request URL for a section, including the API key and
// location query parameters.
func (t PollTarget) URL(s Section) string {
	base := strings.TrimRight(t.BaseURL, "/")
	path := strings.TrimLeft(t.Endpoint(s), "/")
	params := url.Values{
		"key":                {t.APIKey},
		"location.latitude":  {formatCoord(t.Latitude)},
		"location.longitude": {formatCoord(t.Longitude)},
	}
	return base + "/" + path + "?" + params.Encode()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RawFetchResult holds the decoded payload of every section that succeeded
// in a cycle. Failed sections are simply absent.
type RawFetchResult map[Section]Node

// Section returns the payload for s, or the zero Node when it is absent.
func (r RawFetchResult) Section(s Section) Node {
	return r[s]
}

// Has reports whether s was fetched successfully.
func (r RawFetchResult) Has(s Section) bool {
	_, ok := r[s]
	return ok
}
