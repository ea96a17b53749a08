package mapbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/weather-daemon/internal/domain"
)

// ErrNoPlace is returned when the coordinates resolve to no named place.
var ErrNoPlace = errors.New("mapbox: no place found")

// Client resolves the poll coordinates to a display name using the Mapbox
// reverse geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		logger:  logger,
	}
}

// PlaceName returns a short "City, Region" label for the coordinates.
func (c *Client) PlaceName(ctx context.Context, lat, lon float64) (string, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"place,locality"},
	}
	fullURL := fmt.Sprintf("%s/%s.json?%s", c.baseURL, coord, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	root, err := domain.ParseNode(body)
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	features := root.Get("features").Items()
	if len(features) == 0 {
		return "", ErrNoPlace
	}

	name := shortName(features[0].Get("place_name").String(""), features[0].Get("text").String(""))
	if name == "" {
		return "", ErrNoPlace
	}
	c.logger.Debug("place name resolved", "place", name, "latitude", lat, "longitude", lon)
	return name, nil
}

// shortName keeps the first two components of a full place name,
// "Mountain View, California, United States" -> "Mountain View, California".
func shortName(placeName, text string) string {
	parts := strings.Split(placeName, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 2 && parts[0] != "":
		return parts[0] + ", " + parts[1]
	case parts[0] != "":
		return parts[0]
	default:
		return strings.TrimSpace(text)
	}
}
