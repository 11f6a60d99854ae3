// Package solar computes deterministic solar-yield projections. Every
// estimate is a pure function of the inputs: same coordinates, same answer,
// byte for byte. Nothing here touches storage or the network.
package solar

import (
	"math"

	"github.com/aethergrid/aethergrid/pkg/models"
)

const (
	// baseFluxKwh is the annual irradiance ceiling at the equator, before the
	// latitude falloff is applied.
	baseFluxKwh = 1400.0

	panelAreaSqm     = 1.6
	panelEfficiency  = 0.21
	performanceRatio = 0.75
	panelUnitCost    = 800.0

	hoursPerYear = 8760
)

// Estimator projects solar yield for a site. The zero value is unusable; use
// New so the electricity rate is set.
type Estimator struct {
	electricityRate float64 // $/kWh
}

// New creates an estimator. A non-positive rate falls back to 0.15 $/kWh.
func New(electricityRate float64) *Estimator {
	if electricityRate <= 0 {
		electricityRate = 0.15
	}
	return &Estimator{electricityRate: electricityRate}
}

// AnalyzeRoof estimates annual yield, panel count, cost and payback for the
// roof at (lat, lng). When knownAreaSqm is positive it is used directly as
// the usable area; otherwise roof dimensions are derived deterministically
// from the coordinates. panelType is recorded for callers but does not alter
// the math.
func (e *Estimator) AnalyzeRoof(lat, lng float64, panelType string, knownAreaSqm float64) models.SolarEstimate {
	_ = panelType

	// Irradiance falls off toward the poles, modulated slightly by longitude
	// so nearby sites do not all report identical flux.
	latFactor := 1 - math.Abs(lat)/90*0.6
	annualFlux := baseFluxKwh * latFactor * (1 + math.Sin(lng)*0.1)

	// Roof geometry is seeded from the coordinates so repeated queries for
	// one site always agree.
	seed := math.Abs(lat * lng * 1000)
	roofArea := 100 + math.Mod(seed, 400)
	usable := roofArea * 0.7
	if knownAreaSqm > 0 {
		usable = knownAreaSqm
	}
	shadeLoss := 5 + math.Mod(seed, 20)

	panels := int(math.Floor(usable / panelAreaSqm))
	output := float64(panels) * panelAreaSqm * panelEfficiency * annualFlux *
		(1 - shadeLoss/100) * performanceRatio

	cost := float64(panels) * panelUnitCost
	savings := output * e.electricityRate
	payback := -1.0
	if savings > 0 {
		payback = cost / savings
	}

	return models.SolarEstimate{
		TotalFluxKwh:      output,
		HourlyFlux:        hourlyCurve(),
		OptimalPanelCount: panels,
		ShadeLossPercent:  shadeLoss,
		InstallationCost:  cost,
		AnnualSavings:     savings,
		PaybackYears:      payback,
		UsableAreaSqm:     usable,
	}
}

// hourlyCurve is the relative irradiance profile over a year: zero outside
// 06:00–18:00, a half-sine across daylight hours, and a seasonal swing over
// the days. Index = hour of year.
func hourlyCurve() []float64 {
	curve := make([]float64, hoursPerYear)
	for h := 0; h < hoursPerYear; h++ {
		hourOfDay := h % 24
		if hourOfDay < 6 || hourOfDay > 18 {
			continue
		}
		day := h / 24
		daily := math.Sin(float64(hourOfDay-6) / 12 * math.Pi)
		seasonal := 1 + 0.2*math.Sin(2*math.Pi*float64(day)/365)
		curve[h] = math.Max(0, daily*seasonal)
	}
	return curve
}
