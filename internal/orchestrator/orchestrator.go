// Package orchestrator runs the autonomous maintenance agent: a bounded
// reasoning loop that lets the backend call grid tools one at a time, plus a
// deterministic simulation path used whenever no backend is available.
//
// Run never returns an error. Every outcome, including backend failure, is
// expressed as a terminal status on the returned AgentRun so callers always
// get a full trace.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aethergrid/aethergrid/internal/logistics"
	"github.com/aethergrid/aethergrid/internal/reasoning"
	"github.com/aethergrid/aethergrid/internal/scada"
	"github.com/aethergrid/aethergrid/internal/solar"
	"github.com/aethergrid/aethergrid/pkg/models"
)

const (
	defaultMaxTurns    = 5
	defaultTemperature = 0.2
)

const systemPrompt = `You are the AetherGrid autonomous maintenance agent for a renewable energy site.
You investigate telemetry alerts and take corrective action using the tools provided.
Work step by step: analyze before dispatching, and dispatch a crew only when the
analysis confirms a real fault. When you are done, reply with a short final
summary for the operator instead of calling a tool.`

// Options tune an Orchestrator. Zero values take defaults.
type Options struct {
	MaxTurns    int
	Temperature float64
	// Now overrides the clock; tests use it to pin run timing.
	Now func() time.Time
}

// Orchestrator wires the reasoning backend to the grid tools.
type Orchestrator struct {
	reasoner    reasoning.Client
	scada       *scada.Service
	registry    *logistics.Registry
	solar       *solar.Estimator
	maxTurns    int
	temperature float64
	now         func() time.Time
	tracer      trace.Tracer
}

// New creates an orchestrator over the given collaborators.
func New(reasoner reasoning.Client, scadaSvc *scada.Service, registry *logistics.Registry, estimator *solar.Estimator, opts Options) *Orchestrator {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaultMaxTurns
	}
	if opts.Temperature <= 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		reasoner:    reasoner,
		scada:       scadaSvc,
		registry:    registry,
		solar:       estimator,
		maxTurns:    opts.MaxTurns,
		temperature: opts.Temperature,
		now:         opts.Now,
		tracer:      otel.Tracer("aethergrid.orchestrator"),
	}
}

// Run executes one agent run for the given trigger. extraContext is optional
// operator-supplied detail appended to the opening message. The returned run
// always carries a terminal status and the full step trace.
func (o *Orchestrator) Run(ctx context.Context, trigger, extraContext string) *models.AgentRun {
	ctx, span := o.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(attribute.String("agent.trigger", trigger)))
	defer span.End()

	run := &models.AgentRun{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Steps:     []models.AgentStep{},
		StartedAt: o.now(),
	}
	log.Info().Str("run", run.ID).Str("trigger", trigger).Msg("Agent run started")

	if !o.reasoner.Available() {
		o.simulate(run)
	} else {
		o.converse(ctx, run, trigger, extraContext)
	}

	run.DurationMs = o.now().Sub(run.StartedAt).Milliseconds()
	span.SetAttributes(
		attribute.String("agent.status", string(run.Status)),
		attribute.Int("agent.steps", len(run.Steps)),
	)
	log.Info().
		Str("run", run.ID).
		Str("status", string(run.Status)).
		Int("steps", len(run.Steps)).
		Int64("duration_ms", run.DurationMs).
		Msg("Agent run finished")
	return run
}

// converse drives the live reasoning loop: one backend turn per iteration,
// executing at most one tool call between turns, up to the turn budget.
func (o *Orchestrator) converse(ctx context.Context, run *models.AgentRun, trigger, extraContext string) {
	opening := "Alert trigger: " + trigger
	if extraContext != "" {
		opening += "\nAdditional context: " + extraContext
	}
	messages := []reasoning.Message{reasoning.UserText(opening)}

	for turn := 1; turn <= o.maxTurns; turn++ {
		reply, err := o.reasoner.Converse(ctx, &reasoning.ConverseRequest{
			System:      systemPrompt,
			Messages:    messages,
			Tools:       toolDecls(),
			Temperature: o.temperature,
		})
		if errors.Is(err, reasoning.ErrUnavailable) {
			// Backend dropped out before producing anything; degrade to the
			// deterministic path so the operator still gets a trace.
			o.simulate(run)
			return
		}
		if err != nil {
			run.Steps = append(run.Steps, models.AgentStep{
				StepIndex: len(run.Steps) + 1,
				Thought:   "Reasoning backend failed mid-run.",
				Action:    models.ActionFinalAnswer,
				Result:    models.ToolError{Error: err.Error()},
			})
			run.Status = models.RunErrored
			run.FinalResult = "Agent run aborted: " + err.Error()
			log.Warn().Err(err).Str("run", run.ID).Int("turn", turn).Msg("Reasoning backend failed")
			return
		}

		if reply.ToolCall == nil {
			run.Steps = append(run.Steps, models.AgentStep{
				StepIndex: len(run.Steps) + 1,
				Thought:   reply.Text,
				Action:    models.ActionFinalAnswer,
			})
			run.Status = models.RunCompleted
			run.FinalResult = reply.Text
			return
		}

		call := reply.ToolCall
		thought := reply.Text
		if thought == "" {
			thought = "Invoking " + call.Name + "."
		}
		result := o.execute(ctx, call)
		run.Steps = append(run.Steps, models.AgentStep{
			StepIndex: len(run.Steps) + 1,
			Thought:   thought,
			Action:    call.Name,
			Result:    result,
		})

		messages = append(messages, reasoning.ModelTurn(reply), reasoning.ToolResult(call.Name, result))
	}

	run.Status = models.RunInconclusive
	run.FinalResult = fmt.Sprintf("Turn budget (%d) exhausted before a final answer.", o.maxTurns)
	log.Warn().Str("run", run.ID).Int("max_turns", o.maxTurns).Msg("Agent run hit turn budget")
}

// simulate is the deterministic degraded path: analyze the last minute of
// telemetry, dispatch a rapid-response crew if anything was flagged, and
// close with a summary. Produces the same trace shape as a live run.
func (o *Orchestrator) simulate(run *models.AgentRun) {
	analysis := o.scada.AnalyzeWindow(60)
	run.Steps = append(run.Steps, models.AgentStep{
		StepIndex: len(run.Steps) + 1,
		Thought:   "Telemetry alert received. Analyzing the last 60 seconds of SCADA data.",
		Action:    toolAnalyzeTelemetry,
		Result:    analysis,
	})

	if analysis.AnomalyDetected {
		orderID, err := o.registry.DispatchRepairCrew(
			string(models.AnomalyVibrationSpike), 1, scada.AssetID, nil, 3, 4)
		var result any
		if err != nil {
			result = models.ToolError{Error: err.Error()}
		} else {
			result = models.DispatchResult{
				Status:      "DISPATCHED",
				WorkOrderID: orderID,
				Priority:    models.PriorityForLevel(1),
			}
		}
		run.Steps = append(run.Steps, models.AgentStep{
			StepIndex: len(run.Steps) + 1,
			Thought:   "Anomaly confirmed. Dispatching a rapid-response crew to " + scada.AssetID + ".",
			Action:    toolDispatchCrew,
			Result:    result,
		})
		run.FinalResult = fmt.Sprintf("Anomaly confirmed on %s; repair crew dispatched (order %s).", scada.AssetID, orderID)
	} else {
		run.Steps = append(run.Steps, models.AgentStep{
			StepIndex: len(run.Steps) + 1,
			Thought:   "No anomalies in the analysis window. Likely a false positive, no action required.",
			Action:    models.ActionFinalAnswer,
		})
		run.FinalResult = "No anomalies detected; alert closed as a false positive."
	}

	run.Status = models.RunSimulated
}
