package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the AetherGrid core server.
type Config struct {
	Port      int
	Version   string
	DataDir   string
	Scada     ScadaConfig
	Solar     SolarConfig
	Reasoning ReasoningConfig
	Telemetry TelemetryConfig
}

// ScadaConfig tunes the telemetry simulation and the weather collaborator.
type ScadaConfig struct {
	TickInterval   time.Duration
	WindowCapacity int
	// Site coordinates used for the weather lookup (Grid Sector 7).
	Latitude  float64
	Longitude float64
}

type SolarConfig struct {
	// ElectricityRate is the $/kWh used for savings projections.
	ElectricityRate float64
}

// ReasoningConfig configures the external reasoning backend. An empty APIKey
// means no backend is configured and runs degrade to the simulation path.
type ReasoningConfig struct {
	APIKey      string
	Endpoint    string
	Model       string
	Temperature float64
	CallTimeout time.Duration
	MaxTurns    int
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envInt("AETHERGRID_PORT", 8080),
		Version: envStr("AETHERGRID_VERSION", "0.4.0"),
		DataDir: envStr("AETHERGRID_DATA_DIR", ""),
		Scada: ScadaConfig{
			TickInterval:   envDuration("AETHERGRID_TICK_INTERVAL", 2*time.Second),
			WindowCapacity: envInt("AETHERGRID_WINDOW_CAPACITY", 100),
			Latitude:       envFloat("AETHERGRID_WEATHER_LAT", 54.321),
			Longitude:      envFloat("AETHERGRID_WEATHER_LNG", -2.145),
		},
		Solar: SolarConfig{
			ElectricityRate: envFloat("AETHERGRID_ELECTRICITY_RATE", 0.15),
		},
		Reasoning: ReasoningConfig{
			APIKey:      envStr("GEMINI_API_KEY", ""),
			Endpoint:    envStr("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com"),
			Model:       envStr("GEMINI_MODEL", "gemini-3-pro-preview"),
			Temperature: envFloat("GEMINI_TEMPERATURE", 0.2),
			CallTimeout: envDuration("GEMINI_CALL_TIMEOUT", 30*time.Second),
			MaxTurns:    envInt("AETHERGRID_MAX_TURNS", 5),
		},
		Telemetry: TelemetryConfig{
			Enabled:      envBool("OTEL_ENABLED", true),
			OTLPEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:  envStr("OTEL_SERVICE_NAME", "aethergrid-core"),
		},
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
