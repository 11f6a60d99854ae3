package solar

import (
	"reflect"
	"testing"
)

func TestAnalyzeRoofDeterministic(t *testing.T) {
	e := New(0.15)
	a := e.AnalyzeRoof(54.321, -2.145, "monocrystalline", 0)
	b := e.AnalyzeRoof(54.321, -2.145, "monocrystalline", 0)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different estimates")
	}
}

func TestAnalyzeRoofLatitudeFalloff(t *testing.T) {
	e := New(0.15)
	// Same longitude and a fixed usable area so only latitude varies the flux.
	equator := e.AnalyzeRoof(0, 10, "", 100)
	north := e.AnalyzeRoof(60, 10, "", 100)
	if equator.TotalFluxKwh <= north.TotalFluxKwh {
		t.Fatalf("equator output %.1f <= 60°N output %.1f", equator.TotalFluxKwh, north.TotalFluxKwh)
	}
}

func TestAnalyzeRoofKnownAreaOverride(t *testing.T) {
	e := New(0.15)
	est := e.AnalyzeRoof(40, -3, "", 50)
	if est.UsableAreaSqm != 50 {
		t.Fatalf("UsableAreaSqm = %.1f, want 50", est.UsableAreaSqm)
	}
	if est.OptimalPanelCount != 31 { // floor(50 / 1.6)
		t.Fatalf("OptimalPanelCount = %d, want 31", est.OptimalPanelCount)
	}

	// Shade loss comes from the coordinates, not the known area.
	derived := e.AnalyzeRoof(40, -3, "", 0)
	if est.ShadeLossPercent != derived.ShadeLossPercent {
		t.Fatalf("known area changed shade loss: %.1f vs %.1f", est.ShadeLossPercent, derived.ShadeLossPercent)
	}
}

func TestAnalyzeRoofPaybackSentinel(t *testing.T) {
	e := New(0.15)
	// Too small for a single panel, so no output and no savings.
	est := e.AnalyzeRoof(40, -3, "", 1.0)
	if est.OptimalPanelCount != 0 {
		t.Fatalf("OptimalPanelCount = %d, want 0", est.OptimalPanelCount)
	}
	if est.AnnualSavings != 0 {
		t.Fatalf("AnnualSavings = %.2f, want 0", est.AnnualSavings)
	}
	if est.PaybackYears != -1 {
		t.Fatalf("PaybackYears = %.2f, want -1 sentinel", est.PaybackYears)
	}
}

func TestAnalyzeRoofCostAndSavings(t *testing.T) {
	e := New(0.20)
	est := e.AnalyzeRoof(10, 5, "", 161) // floor(161 / 1.6) = 100 panels
	if est.OptimalPanelCount != 100 {
		t.Fatalf("OptimalPanelCount = %d, want 100", est.OptimalPanelCount)
	}
	if est.InstallationCost != 100*800 {
		t.Fatalf("InstallationCost = %.0f, want 80000", est.InstallationCost)
	}
	wantSavings := est.TotalFluxKwh * 0.20
	if est.AnnualSavings != wantSavings {
		t.Fatalf("AnnualSavings = %.2f, want %.2f", est.AnnualSavings, wantSavings)
	}
	wantPayback := est.InstallationCost / est.AnnualSavings
	if est.PaybackYears != wantPayback {
		t.Fatalf("PaybackYears = %.2f, want %.2f", est.PaybackYears, wantPayback)
	}
}

func TestHourlyCurveShape(t *testing.T) {
	e := New(0.15)
	est := e.AnalyzeRoof(45, 7, "", 0)

	if len(est.HourlyFlux) != 8760 {
		t.Fatalf("HourlyFlux length = %d, want 8760", len(est.HourlyFlux))
	}
	// Night hours carry nothing.
	for _, h := range []int{0, 3, 5, 19, 23} {
		if est.HourlyFlux[h] != 0 {
			t.Fatalf("HourlyFlux[%d] = %f, want 0 at night", h, est.HourlyFlux[h])
		}
	}
	// Midday on day one is positive and the daily peak.
	noon := est.HourlyFlux[12]
	if noon <= 0 {
		t.Fatalf("HourlyFlux[12] = %f, want > 0", noon)
	}
	for h := 0; h < 24; h++ {
		if est.HourlyFlux[h] > noon {
			t.Fatalf("HourlyFlux[%d] = %f exceeds noon %f", h, est.HourlyFlux[h], noon)
		}
	}
}
