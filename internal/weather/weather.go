// Package weather provides the OpenWeatherMap lookup used to enrich the
// requirement record with the user's local climate.
//
// Like the geolocation lookup, failures yield nil rather than errors: climate
// data is an enrichment, never a hard requirement.
package weather

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultBaseURL is the OpenWeatherMap current-weather endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// CityWeather summarises the current weather of a city. Temperatures are in
// degrees Celsius, rounded to whole degrees.
type CityWeather struct {
	AvgTemp     float64 `json:"avgTemp"`
	MaxTemp     float64 `json:"maxTemp"`
	MinTemp     float64 `json:"minTemp"`
	Description string  `json:"description"`
}

// Client performs weather lookups.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a weather client. An empty baseURL selects DefaultBaseURL.
// An empty apiKey is allowed; lookups then fail fast without a network call.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type apiResponse struct {
	Main struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// CityWeather fetches the current weather for a city. The country code is
// optional. Returns nil on any failure, including a missing API key.
func (c *Client) CityWeather(ctx context.Context, city, countryCode string) *CityWeather {
	if c.apiKey == "" {
		slog.Warn("weather.CityWeather: API key not configured, skipping lookup")
		return nil
	}

	q := city
	if countryCode != "" {
		q = city + "," + countryCode
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "pt_br")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		slog.Error("weather.CityWeather: failed to build request", "error", err)
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("weather.CityWeather: request failed", "error", err, "city", city)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("weather.CityWeather: unexpected status", "status", resp.StatusCode, "city", city)
		return nil
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Warn("weather.CityWeather: failed to decode response", "error", err)
		return nil
	}
	if len(body.Weather) == 0 {
		slog.Warn("weather.CityWeather: incomplete response", "city", city)
		return nil
	}

	slog.Debug("weather.CityWeather succeeded", "city", city, "temp", body.Main.Temp)
	return &CityWeather{
		AvgTemp:     math.Round(body.Main.Temp),
		MaxTemp:     math.Round(body.Main.TempMax),
		MinTemp:     math.Round(body.Main.TempMin),
		Description: capitalize(body.Weather[0].Description),
	}
}

// capitalize upper-cases the first rune, leaving the rest untouched.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
