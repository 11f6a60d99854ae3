// Package models defines the shared domain types for the AetherGrid core:
// SCADA telemetry samples, anomalies, work orders, solar estimates, and the
// agent run trace exchanged with UI collaborators.
package models

import (
	"time"
)

// ── Telemetry ────────────────────────────────────────────────

// TelemetrySample is one synthetic SCADA reading. Immutable once created.
type TelemetrySample struct {
	CapturedAt  time.Time `json:"captured_at"`
	WindSpeed   float64   `json:"wind_speed"`   // m/s
	PowerOutput float64   `json:"power_output"` // kW
	Vibration   float64   `json:"vibration"`    // mm/s
	RotorSpeed  float64   `json:"rotor_speed"`  // RPM
	Temperature float64   `json:"temperature"`  // °C
	PitchAngle  float64   `json:"pitch_angle"`  // degrees
}

// ── Anomalies ────────────────────────────────────────────────

type AnomalyKind string

const (
	AnomalyVibrationSpike     AnomalyKind = "VibrationSpike"
	AnomalyTemperature        AnomalyKind = "TemperatureAnomaly"
	AnomalyLeadingEdgeErosion AnomalyKind = "LeadingEdgeErosion"
	AnomalyThermalHotspot     AnomalyKind = "ThermalHotspot"
	AnomalyPowerCurveDrop     AnomalyKind = "PowerCurveDrop"
)

// Severity is ordered: LOW < MEDIUM < HIGH < CRITICAL.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the ordering position of a severity (LOW=0 … CRITICAL=3).
// Unknown severities rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return -1
}

// AnomalyStatus transitions one-directionally: OPEN → INVESTIGATING → RESOLVED.
type AnomalyStatus string

const (
	AnomalyOpen          AnomalyStatus = "OPEN"
	AnomalyInvestigating AnomalyStatus = "INVESTIGATING"
	AnomalyResolved      AnomalyStatus = "RESOLVED"
)

// Anomaly is one detection event emitted by windowed telemetry analysis.
type Anomaly struct {
	ID                string        `json:"id"`
	DetectedAt        time.Time     `json:"detected_at"`
	Kind              AnomalyKind   `json:"kind"`
	Severity          Severity      `json:"severity"`
	Confidence        float64       `json:"confidence"` // 0..1
	Description       string        `json:"description"`
	AssetID           string        `json:"asset_id"`
	Status            AnomalyStatus `json:"status"`
	RecommendedAction string        `json:"recommended_action,omitempty"`
}

// ── Work Orders ──────────────────────────────────────────────

// OrderStatus transitions forward only: PENDING → SCHEDULED → IN_PROGRESS → COMPLETED.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderScheduled  OrderStatus = "SCHEDULED"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderCompleted  OrderStatus = "COMPLETED"
)

type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// PriorityForLevel maps a numeric priority level (1..5) to a priority tier.
// Levels 3 and 4 both map to MEDIUM, matching the dispatch rules the field
// teams work from. Out-of-range levels default to MEDIUM.
func PriorityForLevel(level int) Priority {
	switch level {
	case 1:
		return PriorityCritical
	case 2:
		return PriorityHigh
	case 3, 4:
		return PriorityMedium
	case 5:
		return PriorityLow
	}
	return PriorityMedium
}

// RepairPart is one line item on a work order's parts list.
type RepairPart struct {
	PartID   string  `json:"part_id"`
	Quantity int     `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
	Name     string  `json:"name,omitempty"`
}

// WorkOrder is a repair-logistics record owned by the dispatch registry.
type WorkOrder struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	AssetID       string       `json:"asset_id"`
	Status        OrderStatus  `json:"status"`
	Priority      Priority     `json:"priority"`
	AssignedCrew  string       `json:"assigned_crew,omitempty"`
	ScheduledDate string       `json:"scheduled_date,omitempty"` // YYYY-MM-DD
	EstimatedHrs  float64      `json:"estimated_duration_hours"`
	RequiredParts []RepairPart `json:"required_parts"`
	CrewSize      int          `json:"crew_size,omitempty"`
	FaultType     string       `json:"fault_type,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ── Solar ────────────────────────────────────────────────────

// SolarEstimate is a pure, recomputed-on-every-query projection. It carries
// no identity and is never persisted.
type SolarEstimate struct {
	TotalFluxKwh      float64   `json:"total_flux_kwh"`
	HourlyFlux        []float64 `json:"hourly_flux"` // 8760 entries, index = hour of year
	OptimalPanelCount int       `json:"optimal_panel_count"`
	ShadeLossPercent  float64   `json:"shade_loss_percent"`
	InstallationCost  float64   `json:"installation_cost"`
	AnnualSavings     float64   `json:"annual_savings"`
	// PaybackYears is -1 when annual savings are zero (no finite payback).
	PaybackYears  float64 `json:"payback_years"`
	UsableAreaSqm float64 `json:"usable_area_sqm"`
}

// ── Repair Strategies ────────────────────────────────────────

type StrategyTier string

const (
	TierBudget   StrategyTier = "Budget"
	TierBalanced StrategyTier = "Balanced"
	TierLuxury   StrategyTier = "Luxury"
)

// RepairStrategy is one entry in the fixed repair-planning catalog shown to
// operators when an anomaly needs a remediation decision.
type RepairStrategy struct {
	Tier          StrategyTier `json:"tier"`
	Name          string       `json:"name"`
	Cost          float64      `json:"cost"`
	DowntimeHrs   float64      `json:"downtime_hours"`
	LifeExtension float64      `json:"life_extension_years"`
	RiskLevel     string       `json:"risk_level"`
	Description   string       `json:"description"`
	Recommended   bool         `json:"recommended"`
	Warranty      string       `json:"warranty"`
}

// ── Agent Runs ───────────────────────────────────────────────

// ActionFinalAnswer is the sentinel action recorded when the reasoning
// backend concludes with free text instead of a tool call.
const ActionFinalAnswer = "Final Answer"

// RunStatus is the terminal status of an orchestration run.
type RunStatus string

const (
	// RunCompleted: the reasoning backend reached a final answer.
	RunCompleted RunStatus = "COMPLETED"
	// RunSimulated: no backend was available; the deterministic simulation
	// path produced the trace. Degraded but successful.
	RunSimulated RunStatus = "SIMULATED"
	// RunErrored: the backend failed mid-loop; partial trace preserved.
	RunErrored RunStatus = "ERRORED"
	// RunInconclusive: the turn budget ran out before a final answer.
	RunInconclusive RunStatus = "INCONCLUSIVE"
)

// AgentStep is one entry in a run's trace. Append-only; a step is final once
// its tool result (if any) is attached.
type AgentStep struct {
	StepIndex int    `json:"step_index"` // 1-based, monotonic within a run
	Thought   string `json:"thought"`
	Action    string `json:"action"` // tool name or ActionFinalAnswer
	Result    any    `json:"result,omitempty"`
}

// AgentRun is the transient record of one orchestration call. It exists only
// for the duration of the call and is rebuilt from scratch on every run.
type AgentRun struct {
	ID          string      `json:"id"`
	Trigger     string      `json:"trigger"`
	Status      RunStatus   `json:"status"`
	Steps       []AgentStep `json:"steps"`
	FinalResult string      `json:"final_result,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	DurationMs  int64       `json:"duration_ms"`
}

// ── Tool Results ─────────────────────────────────────────────

// AnalysisResult is the payload returned by the analyze_scada_telemetry tool.
type AnalysisResult struct {
	AnomalyDetected bool      `json:"anomaly_detected"`
	Anomalies       []Anomaly `json:"anomalies"`
}

// DispatchResult is the payload returned by the dispatch_repair_crew tool.
type DispatchResult struct {
	Status      string   `json:"status"` // "DISPATCHED"
	WorkOrderID string   `json:"work_order_id"`
	Priority    Priority `json:"priority"`
}

// ToolError is the structured result recorded when a tool invocation cannot
// be honored (unknown tool, bad arguments). It never aborts a run.
type ToolError struct {
	Error string `json:"error"`
}
