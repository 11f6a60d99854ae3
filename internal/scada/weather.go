package scada

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Conditions is the environmental baseline blended into sample generation.
type Conditions struct {
	Temperature float64 // °C
	WindSpeed   float64 // m/s
}

// WeatherProvider supplies the environmental baseline for the simulation.
// Implementations must be safe to call from the telemetry loop; failures are
// absorbed by the caller, which keeps the last good conditions.
type WeatherProvider interface {
	Current(ctx context.Context) (Conditions, error)
}

// StaticWeather returns fixed conditions. Used as the zero-dependency
// fallback and in tests.
type StaticWeather struct {
	Conditions Conditions
}

func (s StaticWeather) Current(_ context.Context) (Conditions, error) {
	return s.Conditions, nil
}

// DefaultConditions is the baseline used until a real weather reading lands.
var DefaultConditions = Conditions{Temperature: 20, WindSpeed: 10}

// ── Open-Meteo ──────────────────────────────────────────────

// OpenMeteo fetches current conditions from the Open-Meteo forecast API
// (free, no credential required).
type OpenMeteo struct {
	client   *http.Client
	endpoint string
	lat, lng float64
}

// NewOpenMeteo creates a provider for the given site coordinates.
func NewOpenMeteo(lat, lng float64) *OpenMeteo {
	return &OpenMeteo{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: "https://api.open-meteo.com",
		lat:      lat,
		lng:      lng,
	}
}

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"` // km/h
	} `json:"current"`
}

func (o *OpenMeteo) Current(ctx context.Context) (Conditions, error) {
	url := fmt.Sprintf("%s/v1/forecast?latitude=%.4f&longitude=%.4f&current=temperature_2m,wind_speed_10m",
		o.endpoint, o.lat, o.lng)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("open-meteo: create request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("open-meteo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Conditions{}, fmt.Errorf("open-meteo: status %d: %s", resp.StatusCode, string(body))
	}

	var om openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&om); err != nil {
		return Conditions{}, fmt.Errorf("open-meteo: decode response: %w", err)
	}

	return Conditions{
		Temperature: om.Current.Temperature,
		WindSpeed:   om.Current.WindSpeed / 3.6, // km/h → m/s
	}, nil
}
