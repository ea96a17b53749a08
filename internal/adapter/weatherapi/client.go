package weatherapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/couchcryptid/weather-daemon/internal/domain"
)

// Client performs single GET requests against the weather API for one poll target.
type Client struct {
	target     domain.PollTarget
	httpClient *http.Client
}

// NewClient creates a client whose requests time out after target.Timeout.
func NewClient(target domain.PollTarget) *Client {
	return &Client{
		target: target,
		httpClient: &http.Client{
			Timeout: target.Timeout,
		},
	}
}

// Get fetches one section and decodes its body. Exactly one request is made.
func (c *Client) Get(ctx context.Context, section domain.Section) (domain.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target.URL(section), nil)
	if err != nil {
		return domain.Node{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Node{}, fmt.Errorf("%s request: %w", section, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Node{}, &StatusError{Section: section, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Node{}, fmt.Errorf("%s read body: %w", section, err)
	}

	node, err := domain.ParseNode(body)
	if err != nil {
		return domain.Node{}, fmt.Errorf("%w: %s: %w", ErrDecode, section, err)
	}
	return node, nil
}
