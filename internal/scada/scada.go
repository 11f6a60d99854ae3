// Package scada holds the rolling window of synthetic SCADA telemetry and
// scores trailing slices of it for threshold anomalies.
//
// Samples blend a slowly varying environmental baseline (wind and ambient
// temperature from a weather collaborator, with a static fallback) with
// high-frequency noise and a cut-in/rated power transfer curve. The window is
// append-only with FIFO eviction and is persisted as one whole blob per tick.
package scada

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aethergrid/aethergrid/internal/store"
	"github.com/aethergrid/aethergrid/pkg/models"
)

// StorageKey is the blob key the telemetry window is persisted under.
const StorageKey = "aether_scada_history"

// AssetID is the turbine all demo telemetry is attributed to.
const AssetID = "WTG-04"

const (
	defaultTickInterval   = 2 * time.Second
	defaultWindowCapacity = 100
	weatherRefreshEvery   = 10 * time.Minute

	cutInWindSpeed = 3.0    // m/s, no power below this
	ratedPowerKW   = 5000.0 // saturation cap
)

// Detection thresholds over window means.
const (
	vibrationHighThreshold     = 4.0 // mm/s → HIGH
	vibrationCriticalThreshold = 6.0 // mm/s → CRITICAL
	temperatureThreshold       = 85  // °C → MEDIUM
)

// Subscriber receives the latest sample and a copy of the full window on
// every tick (and once immediately on subscription if data exists).
type Subscriber func(latest models.TelemetrySample, window []models.TelemetrySample)

// Options tune a Service. Zero values take defaults.
type Options struct {
	TickInterval   time.Duration
	WindowCapacity int
	// Now overrides the clock; tests use it to pin window arithmetic.
	Now func() time.Time
}

// Service owns the telemetry window exclusively.
type Service struct {
	store    store.Store
	weather  WeatherProvider
	interval time.Duration
	capacity int
	now      func() time.Time

	mu      sync.RWMutex
	window  []models.TelemetrySample
	current Conditions

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

// New creates the telemetry service, restoring the persisted window if a
// readable blob exists and generating a synthetic backfill otherwise.
func New(s store.Store, weather WeatherProvider, opts Options) *Service {
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}
	if opts.WindowCapacity <= 0 {
		opts.WindowCapacity = defaultWindowCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if weather == nil {
		weather = StaticWeather{Conditions: DefaultConditions}
	}

	svc := &Service{
		store:    s,
		weather:  weather,
		interval: opts.TickInterval,
		capacity: opts.WindowCapacity,
		now:      opts.Now,
		current:  DefaultConditions,
		subs:     make(map[int]Subscriber),
	}
	svc.restore()
	return svc
}

// restore loads the persisted window, falling back to a fresh backfill when
// the blob is absent or unreadable.
func (s *Service) restore() {
	blob, found, err := s.store.Load(StorageKey)
	if err == nil && found {
		var window []models.TelemetrySample
		if jsonErr := json.Unmarshal(blob, &window); jsonErr == nil {
			if len(window) > s.capacity {
				window = window[len(window)-s.capacity:]
			}
			s.window = window
			log.Info().Int("samples", len(window)).Msg("Telemetry window restored")
			return
		}
		log.Warn().Str("key", StorageKey).Msg("Malformed telemetry blob, regenerating")
	}
	if err != nil {
		log.Warn().Err(err).Str("key", StorageKey).Msg("Failed to load telemetry blob, regenerating")
	}
	s.window = s.backfill()
	s.persist()
}

// backfill generates a full window of history ending now, so the dashboard
// has charts to draw on first boot.
func (s *Service) backfill() []models.TelemetrySample {
	samples := make([]models.TelemetrySample, 0, s.capacity)
	now := s.now()
	for i := s.capacity; i > 0; i-- {
		samples = append(samples, s.generate(now.Add(-time.Duration(i)*s.interval)))
	}
	return samples
}

// Run drives the tick loop and the periodic weather refresh until ctx ends.
func (s *Service) Run(ctx context.Context) {
	s.refreshWeather(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	weatherTicker := time.NewTicker(weatherRefreshEvery)
	defer weatherTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-weatherTicker.C:
			s.refreshWeather(ctx)
		case <-ticker.C:
			s.Tick()
		}
	}
}

// refreshWeather pulls current conditions, keeping the last good reading on
// any failure.
func (s *Service) refreshWeather(ctx context.Context) {
	cond, err := s.weather.Current(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Weather fetch failed, keeping last conditions")
		return
	}
	s.mu.Lock()
	s.current = cond
	s.mu.Unlock()
	log.Debug().
		Float64("temperature", cond.Temperature).
		Float64("wind_speed", cond.WindSpeed).
		Msg("Weather conditions updated")
}

// Tick appends one freshly generated sample, evicts the oldest past capacity,
// persists the window, and notifies subscribers. Never fails.
func (s *Service) Tick() {
	s.mu.Lock()
	sample := s.generate(s.now())
	s.window = append(s.window, sample)
	if len(s.window) > s.capacity {
		s.window = s.window[len(s.window)-s.capacity:]
	}
	window := s.copyWindowLocked()
	s.mu.Unlock()

	s.persist()
	s.notify(sample, window)
}

// generate produces one sample from the current conditions plus noise.
// Callers must not rely on any randomness contract beyond: monotonic
// timestamps, non-negative power/vibration/temperature, and power rising with
// wind up to the rated cap.
func (s *Service) generate(at time.Time) models.TelemetrySample {
	tf := float64(at.UnixMilli()) / 10000
	noise := rand.Float64()*0.1 - 0.05

	base := s.current
	wind := math.Max(0, base.WindSpeed+math.Sin(tf*2)*1.5+noise*2)

	// Cubic ramp from cut-in, saturating at rated power.
	curve := math.Max(0, math.Pow(math.Max(0, wind-cutInWindSpeed), 3)/100)
	power := math.Max(0, math.Min(ratedPowerKW, curve*1000+noise*50))

	// Ambient plus load-coupled component heating.
	temperature := math.Max(0, base.Temperature+(power/ratedPowerKW)*40+math.Sin(tf*0.1)*2)

	pitch := 0.0
	if wind > 12 {
		pitch = (wind - 12) * 5
	}

	return models.TelemetrySample{
		CapturedAt:  at,
		WindSpeed:   wind,
		PowerOutput: power,
		Vibration:   1.0 + math.Max(0, (wind-10)*0.2) + rand.Float64()*0.5,
		RotorSpeed:  math.Min(25, math.Max(0, wind*1.5)),
		Temperature: temperature,
		PitchAngle:  math.Max(0, math.Min(90, pitch+noise*2)),
	}
}

func (s *Service) persist() {
	s.mu.RLock()
	blob, err := json.Marshal(s.window)
	s.mu.RUnlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal telemetry window")
		return
	}
	if err := s.store.Save(StorageKey, blob); err != nil {
		log.Error().Err(err).Str("key", StorageKey).Msg("Failed to persist telemetry window")
	}
}

// ── Subscriptions ───────────────────────────────────────────

// Subscribe registers fn and returns an unsubscribe handle. If data already
// exists, fn is called back immediately with the current state.
func (s *Service) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	s.mu.RLock()
	var latest models.TelemetrySample
	var window []models.TelemetrySample
	if len(s.window) > 0 {
		latest = s.window[len(s.window)-1]
		window = s.copyWindowLocked()
	}
	s.mu.RUnlock()
	if window != nil {
		fn(latest, window)
	}

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Service) notify(latest models.TelemetrySample, window []models.TelemetrySample) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(latest, window)
	}
}

// ── Accessors ───────────────────────────────────────────────

// Latest returns the newest sample, or ok=false for an empty window.
func (s *Service) Latest() (models.TelemetrySample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.window) == 0 {
		return models.TelemetrySample{}, false
	}
	return s.window[len(s.window)-1], true
}

// History returns a defensive copy of the full window, oldest first.
func (s *Service) History() []models.TelemetrySample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyWindowLocked()
}

func (s *Service) copyWindowLocked() []models.TelemetrySample {
	out := make([]models.TelemetrySample, len(s.window))
	copy(out, s.window)
	return out
}

// ── Anomaly Scoring ─────────────────────────────────────────

// AnalyzeWindow scores the trailing windowSeconds of samples against fixed
// thresholds. Deterministic given the window contents; an empty window yields
// no anomalies and no error.
func (s *Service) AnalyzeWindow(windowSeconds int) models.AnalysisResult {
	cutoff := s.now().Add(-time.Duration(windowSeconds) * time.Second)

	s.mu.RLock()
	var slice []models.TelemetrySample
	for _, p := range s.window {
		if p.CapturedAt.After(cutoff) {
			slice = append(slice, p)
		}
	}
	s.mu.RUnlock()

	result := models.AnalysisResult{Anomalies: []models.Anomaly{}}
	if len(slice) == 0 {
		return result
	}

	var vibSum, tempSum float64
	for _, p := range slice {
		vibSum += p.Vibration
		tempSum += p.Temperature
	}
	meanVib := vibSum / float64(len(slice))
	meanTemp := tempSum / float64(len(slice))
	last := slice[len(slice)-1]

	if meanVib > vibrationHighThreshold {
		severity := models.SeverityHigh
		if meanVib > vibrationCriticalThreshold {
			severity = models.SeverityCritical
		}
		result.Anomalies = append(result.Anomalies, models.Anomaly{
			ID:                "ANM-" + uuid.New().String(),
			DetectedAt:        last.CapturedAt,
			Kind:              models.AnomalyVibrationSpike,
			Severity:          severity,
			Confidence:        0.95,
			Description:       fmt.Sprintf("Sustained vibration (%.2f mm/s) detected.", meanVib),
			AssetID:           AssetID,
			Status:            models.AnomalyOpen,
			RecommendedAction: "Inspect nacelle bearings immediately.",
		})
	}

	if meanTemp > temperatureThreshold {
		result.Anomalies = append(result.Anomalies, models.Anomaly{
			ID:                "ANM-" + uuid.New().String(),
			DetectedAt:        last.CapturedAt,
			Kind:              models.AnomalyTemperature,
			Severity:          models.SeverityMedium,
			Confidence:        0.88,
			Description:       fmt.Sprintf("Generator temperature high (%.1f°C).", meanTemp),
			AssetID:           AssetID,
			Status:            models.AnomalyOpen,
			RecommendedAction: "Check cooling system.",
		})
	}

	result.AnomalyDetected = len(result.Anomalies) > 0
	return result
}
