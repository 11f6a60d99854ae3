// Package api exposes the HTTP surface: telemetry reads, work-order CRUD,
// solar analysis, the repair-strategy catalog, and agent runs.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/aethergrid/aethergrid/internal/logistics"
	"github.com/aethergrid/aethergrid/internal/orchestrator"
	"github.com/aethergrid/aethergrid/internal/scada"
	"github.com/aethergrid/aethergrid/internal/solar"
	"github.com/aethergrid/aethergrid/pkg/models"
)

// Handlers holds the services the HTTP layer fronts.
type Handlers struct {
	Scada        *scada.Service
	Registry     *logistics.Registry
	Solar        *solar.Estimator
	Orchestrator *orchestrator.Orchestrator
	Version      string
}

// ── Helpers ─────────────────────────────────────────────────

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Error().Err(err).Msg("Failed to encode response")
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// ── Health & Version ────────────────────────────────────────

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": h.Version})
}

// ── Telemetry ───────────────────────────────────────────────

func (h *Handlers) GetTelemetry(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.Scada.History())
}

func (h *Handlers) GetLatestTelemetry(w http.ResponseWriter, _ *http.Request) {
	sample, ok := h.Scada.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no telemetry captured yet")
		return
	}
	respondJSON(w, http.StatusOK, sample)
}

type analyzeRequest struct {
	WindowSeconds int `json:"window_seconds"`
}

func (h *Handlers) AnalyzeTelemetry(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.WindowSeconds <= 0 {
		req.WindowSeconds = 60
	}
	respondJSON(w, http.StatusOK, h.Scada.AnalyzeWindow(req.WindowSeconds))
}

// ── Work Orders ─────────────────────────────────────────────

func (h *Handlers) ListWorkOrders(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.Registry.Orders())
}

func (h *Handlers) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Registry.Order(chi.URLParam(r, "orderID"))
	if err != nil {
		var nf *logistics.ErrNotFound
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var partial models.WorkOrder
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, h.Registry.CreateWorkOrder(partial))
}

func (h *Handlers) UpdateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var patch logistics.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	order, err := h.Registry.UpdateOrder(chi.URLParam(r, "orderID"), patch)
	if err != nil {
		var nf *logistics.ErrNotFound
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, order)
}

type dispatchRequest struct {
	FaultType      string              `json:"fault_type"`
	PriorityLevel  int                 `json:"priority_level"`
	AssetID        string              `json:"asset_id"`
	CrewSize       int                 `json:"crew_size"`
	EstimatedHours float64             `json:"estimated_hours"`
	PartsList      []models.RepairPart `json:"estimated_parts_list"`
}

func (h *Handlers) DispatchCrew(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.FaultType == "" {
		respondError(w, http.StatusBadRequest, "fault_type is required")
		return
	}
	orderID, err := h.Registry.DispatchRepairCrew(
		req.FaultType, req.PriorityLevel, req.AssetID,
		req.PartsList, req.CrewSize, req.EstimatedHours)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, models.DispatchResult{
		Status:      "DISPATCHED",
		WorkOrderID: orderID,
		Priority:    models.PriorityForLevel(req.PriorityLevel),
	})
}

// ── Strategies ──────────────────────────────────────────────

func (h *Handlers) ListStrategies(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, logistics.RepairStrategies())
}

// ── Solar ───────────────────────────────────────────────────

type solarRequest struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	PanelType    string  `json:"panel_type"`
	KnownAreaSqm float64 `json:"known_area_sqm"`
}

func (h *Handlers) AnalyzeSolar(w http.ResponseWriter, r *http.Request) {
	var req solarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.Solar.AnalyzeRoof(req.Lat, req.Lng, req.PanelType, req.KnownAreaSqm))
}

// ── Agent ───────────────────────────────────────────────────

type agentRunRequest struct {
	Trigger string          `json:"trigger"`
	Context json.RawMessage `json:"context"`
}

func (h *Handlers) RunAgent(w http.ResponseWriter, r *http.Request) {
	var req agentRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Trigger == "" {
		respondError(w, http.StatusBadRequest, "trigger is required")
		return
	}
	run := h.Orchestrator.Run(r.Context(), req.Trigger, string(req.Context))
	respondJSON(w, http.StatusOK, run)
}
