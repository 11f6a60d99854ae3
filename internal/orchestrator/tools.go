package orchestrator

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/aethergrid/aethergrid/internal/reasoning"
	"github.com/aethergrid/aethergrid/pkg/models"
)

// Tool names as declared to the reasoning backend.
const (
	toolAnalyzeTelemetry = "analyze_scada_telemetry"
	toolDispatchCrew     = "dispatch_repair_crew"
	toolSolarPotential   = "query_solar_potential"
)

// toolDecls declares the grid tools to the backend. Parameter schemas follow
// the generateContent function-declaration subset of JSON Schema.
func toolDecls() []reasoning.ToolDecl {
	return []reasoning.ToolDecl{
		{
			Name:        toolAnalyzeTelemetry,
			Description: "Analyze the trailing window of SCADA telemetry for threshold anomalies.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"window_seconds": map[string]any{
						"type":        "integer",
						"description": "How many trailing seconds of telemetry to score. Defaults to 60.",
					},
				},
			},
		},
		{
			Name:        toolDispatchCrew,
			Description: "Create a repair work order. Priority levels 1-2 auto-schedule a rapid-response crew for tomorrow.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fault_type":      map[string]any{"type": "string"},
					"priority_level":  map[string]any{"type": "integer", "description": "1 (critical) to 5 (low)."},
					"asset_id":        map[string]any{"type": "string"},
					"crew_size":       map[string]any{"type": "integer"},
					"estimated_hours": map[string]any{"type": "number"},
					"estimated_parts_list": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"part_id":   map[string]any{"type": "string"},
								"quantity":  map[string]any{"type": "integer"},
								"unit_cost": map[string]any{"type": "number"},
								"name":      map[string]any{"type": "string"},
							},
						},
					},
				},
				"required": []string{"fault_type", "priority_level", "asset_id"},
			},
		},
		{
			Name:        toolSolarPotential,
			Description: "Estimate annual solar yield, panel count, cost and payback for a site.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"lat":        map[string]any{"type": "number"},
					"lng":        map[string]any{"type": "number"},
					"panel_type": map[string]any{"type": "string"},
				},
				"required": []string{"lat", "lng"},
			},
		},
	}
}

type analyzeArgs struct {
	WindowSeconds int `json:"window_seconds"`
}

type dispatchArgs struct {
	FaultType      string              `json:"fault_type"`
	PriorityLevel  int                 `json:"priority_level"`
	AssetID        string              `json:"asset_id"`
	CrewSize       int                 `json:"crew_size"`
	EstimatedHours float64             `json:"estimated_hours"`
	PartsList      []models.RepairPart `json:"estimated_parts_list"`
}

type solarArgs struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PanelType string  `json:"panel_type"`
}

// execute dispatches one tool call and returns its structured result. Failures
// are returned as ToolError payloads so the run keeps going and the backend
// can read what went wrong.
func (o *Orchestrator) execute(_ context.Context, call *reasoning.FunctionCall) any {
	switch call.Name {
	case toolAnalyzeTelemetry:
		var args analyzeArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return models.ToolError{Error: "bad arguments for " + call.Name + ": " + err.Error()}
		}
		if args.WindowSeconds <= 0 {
			args.WindowSeconds = 60
		}
		return o.scada.AnalyzeWindow(args.WindowSeconds)

	case toolDispatchCrew:
		var args dispatchArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return models.ToolError{Error: "bad arguments for " + call.Name + ": " + err.Error()}
		}
		orderID, err := o.registry.DispatchRepairCrew(
			args.FaultType, args.PriorityLevel, args.AssetID,
			args.PartsList, args.CrewSize, args.EstimatedHours)
		if err != nil {
			return models.ToolError{Error: err.Error()}
		}
		return models.DispatchResult{
			Status:      "DISPATCHED",
			WorkOrderID: orderID,
			Priority:    models.PriorityForLevel(args.PriorityLevel),
		}

	case toolSolarPotential:
		var args solarArgs
		if err := decodeArgs(call.Args, &args); err != nil {
			return models.ToolError{Error: "bad arguments for " + call.Name + ": " + err.Error()}
		}
		return o.solar.AnalyzeRoof(args.Lat, args.Lng, args.PanelType, 0)

	default:
		log.Warn().Str("tool", call.Name).Msg("Unknown tool requested")
		return models.ToolError{Error: "unknown tool: " + call.Name}
	}
}

func decodeArgs(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, into)
}
