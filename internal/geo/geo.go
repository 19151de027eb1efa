// Package geo provides the IP geolocation lookup used by the location
// sub-flow of the intake dialogue.
//
// The lookup is best-effort by contract: any failure yields nil, never an
// error, so callers fall back to the general environment questions.
package geo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// DefaultEndpoint is the ip-api.com current-location endpoint.
const DefaultEndpoint = "http://ip-api.com/json/?fields=status,city,countryCode"

// Location is the resolved coarse location of the caller.
type Location struct {
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
}

// Client performs geolocation lookups.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// NewClient creates a geolocation client. An empty endpoint selects
// DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
	}
}

type apiResponse struct {
	Status      string `json:"status"`
	City        string `json:"city"`
	CountryCode string `json:"countryCode"`
}

// Lookup resolves the caller's city and country code. Returns nil on any
// failure.
func (c *Client) Lookup(ctx context.Context) *Location {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		slog.Error("geo.Lookup: failed to build request", "error", err)
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("geo.Lookup: request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("geo.Lookup: unexpected status", "status", resp.StatusCode)
		return nil
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Warn("geo.Lookup: failed to decode response", "error", err)
		return nil
	}
	if body.Status != "success" || body.City == "" {
		slog.Debug("geo.Lookup: lookup unsuccessful", "status", body.Status)
		return nil
	}

	slog.Debug("geo.Lookup succeeded", "city", body.City, "countryCode", body.CountryCode)
	return &Location{City: body.City, CountryCode: body.CountryCode}
}
