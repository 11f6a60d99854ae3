// Package logistics is the dispatch registry: it owns the work-order list,
// maps numeric priority levels to tiers, and auto-schedules top-priority
// repairs. Orders are persisted as one whole blob after every mutation.
package logistics

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aethergrid/aethergrid/internal/store"
	"github.com/aethergrid/aethergrid/pkg/models"
)

// StorageKey is the blob key the work-order list is persisted under.
const StorageKey = "aether_work_orders"

// RapidResponseCrew is assigned when an order is auto-scheduled.
const RapidResponseCrew = "Rapid Response Unit A"

// autoScheduleMaxLevel: priority levels at or below this are scheduled
// immediately on dispatch; levels above stay PENDING for manual planning.
const autoScheduleMaxLevel = 2

// ErrNotFound is returned when an order id does not exist.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return "work order not found: " + e.ID
}

// OrderPatch carries the fields UpdateOrder may merge onto an existing order.
// Nil fields are left untouched; set fields win wholesale.
type OrderPatch struct {
	Title         *string              `json:"title,omitempty"`
	Status        *models.OrderStatus  `json:"status,omitempty"`
	Priority      *models.Priority     `json:"priority,omitempty"`
	AssignedCrew  *string              `json:"assigned_crew,omitempty"`
	ScheduledDate *string              `json:"scheduled_date,omitempty"`
	EstimatedHrs  *float64             `json:"estimated_duration_hours,omitempty"`
	RequiredParts *[]models.RepairPart `json:"required_parts,omitempty"`
	CrewSize      *int                 `json:"crew_size,omitempty"`
	FaultType     *string              `json:"fault_type,omitempty"`
}

// Registry owns the order list exclusively.
type Registry struct {
	store store.Store
	now   func() time.Time

	mu     sync.RWMutex
	orders []models.WorkOrder // most recent first
	seq    int
}

// New creates a registry, restoring persisted orders or seeding demo data
// when no readable blob exists.
func New(s store.Store) *Registry {
	return NewWithClock(s, time.Now)
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(s store.Store, now func() time.Time) *Registry {
	r := &Registry{store: s, now: now}
	r.restore()
	return r
}

func (r *Registry) restore() {
	blob, found, err := r.store.Load(StorageKey)
	if err == nil && found {
		var orders []models.WorkOrder
		if jsonErr := json.Unmarshal(blob, &orders); jsonErr == nil {
			r.orders = orders
			log.Info().Int("orders", len(orders)).Msg("Work orders restored")
			return
		}
		log.Warn().Str("key", StorageKey).Msg("Malformed work-order blob, reseeding")
	}
	if err != nil {
		log.Warn().Err(err).Str("key", StorageKey).Msg("Failed to load work orders, reseeding")
	}
	r.orders = seedOrders(r.now())
	r.persistLocked()
}

// seedOrders is the demo data used when the store is empty.
func seedOrders(now time.Time) []models.WorkOrder {
	year := now.Year()
	return []models.WorkOrder{
		{
			ID:           fmt.Sprintf("WO-%d-0127-001", year),
			Title:        "Blade Erosion Repair",
			AssetID:      "WTG-042",
			Status:       models.OrderPending,
			Priority:     models.PriorityCritical,
			EstimatedHrs: 6,
			RequiredParts: []models.RepairPart{
				{PartID: "P-BLADE-KIT", Quantity: 1, UnitCost: 1500, Name: "Leading Edge Kit"},
			},
			CreatedAt: now,
		},
		{
			ID:            fmt.Sprintf("WO-%d-0126-055", year),
			Title:         "Gearbox Oil Change",
			AssetID:       "WTG-011",
			Status:        models.OrderScheduled,
			Priority:      models.PriorityMedium,
			AssignedCrew:  "Team Alpha",
			ScheduledDate: now.AddDate(0, 0, 14).Format("2006-01-02"),
			EstimatedHrs:  4,
			RequiredParts: []models.RepairPart{
				{PartID: "P-OIL-FILT", Quantity: 2, UnitCost: 50, Name: "Oil Filter"},
			},
			CreatedAt: now,
		},
	}
}

// persistLocked marshals and saves the order list. Callers hold at least a
// read view of r.orders that is safe to serialize.
func (r *Registry) persistLocked() {
	blob, err := json.Marshal(r.orders)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal work orders")
		return
	}
	if err := r.store.Save(StorageKey, blob); err != nil {
		log.Error().Err(err).Str("key", StorageKey).Msg("Failed to persist work orders")
	}
}

// ── CRUD ────────────────────────────────────────────────────

// CreateWorkOrder fills missing fields with defaults, assigns a fresh id,
// prepends the order (most-recent-first), persists, and returns the created
// order. Malformed input is coerced to defaults rather than rejected.
func (r *Registry) CreateWorkOrder(partial models.WorkOrder) models.WorkOrder {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	now := r.now()

	// The counter keeps ids session-unique; the random tail matches the
	// numbering scheme field crews already know.
	order := partial
	order.ID = fmt.Sprintf("WO-%d-%04d-%03d", now.Year(), r.seq, rand.Intn(1000))
	order.CreatedAt = now
	if order.Title == "" {
		order.Title = "Untitled Maintenance"
	}
	if order.AssetID == "" {
		order.AssetID = "UNK-00"
	}
	if !validStatus(order.Status) {
		order.Status = models.OrderPending
	}
	if !validPriority(order.Priority) {
		order.Priority = models.PriorityMedium
	}
	if order.EstimatedHrs <= 0 {
		order.EstimatedHrs = 2
	}
	if order.RequiredParts == nil {
		order.RequiredParts = []models.RepairPart{}
	}

	r.orders = append([]models.WorkOrder{order}, r.orders...)
	r.persistLocked()

	log.Info().
		Str("order", order.ID).
		Str("asset", order.AssetID).
		Str("priority", string(order.Priority)).
		Msg("Work order created")
	return order
}

// UpdateOrder merges patch fields onto the existing order, persists, and
// returns the updated order. Returns *ErrNotFound for an unknown id.
func (r *Registry) UpdateOrder(id string, patch OrderPatch) (models.WorkOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].ID != id {
			continue
		}
		o := &r.orders[i]
		if patch.Title != nil {
			o.Title = *patch.Title
		}
		if patch.Status != nil {
			o.Status = *patch.Status
		}
		if patch.Priority != nil {
			o.Priority = *patch.Priority
		}
		if patch.AssignedCrew != nil {
			o.AssignedCrew = *patch.AssignedCrew
		}
		if patch.ScheduledDate != nil {
			o.ScheduledDate = *patch.ScheduledDate
		}
		if patch.EstimatedHrs != nil {
			o.EstimatedHrs = *patch.EstimatedHrs
		}
		if patch.RequiredParts != nil {
			o.RequiredParts = *patch.RequiredParts
		}
		if patch.CrewSize != nil {
			o.CrewSize = *patch.CrewSize
		}
		if patch.FaultType != nil {
			o.FaultType = *patch.FaultType
		}
		r.persistLocked()
		return *o, nil
	}
	return models.WorkOrder{}, &ErrNotFound{ID: id}
}

// Orders returns a defensive copy of all orders, most recent first.
func (r *Registry) Orders() []models.WorkOrder {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.WorkOrder, len(r.orders))
	copy(out, r.orders)
	return out
}

// Order returns one order by id.
func (r *Registry) Order(id string) (models.WorkOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return models.WorkOrder{}, &ErrNotFound{ID: id}
}

// ── Dispatch ────────────────────────────────────────────────

// DispatchRepairCrew creates a work order for the fault and, for priority
// levels 1–2 only, immediately auto-schedules it with the rapid-response
// crew for tomorrow. Levels 3–5 stay PENDING. Returns the new order's id.
func (r *Registry) DispatchRepairCrew(faultType string, priorityLevel int, assetID string, parts []models.RepairPart, crewSize int, estimatedHours float64) (string, error) {
	order := r.CreateWorkOrder(models.WorkOrder{
		Title:         "Repair: " + faultType,
		AssetID:       assetID,
		Priority:      models.PriorityForLevel(priorityLevel),
		EstimatedHrs:  estimatedHours,
		RequiredParts: parts,
		CrewSize:      crewSize,
		FaultType:     faultType,
	})

	if priorityLevel <= autoScheduleMaxLevel {
		scheduled := models.OrderScheduled
		crew := RapidResponseCrew
		date := r.now().Add(24 * time.Hour).Format("2006-01-02")
		if _, err := r.UpdateOrder(order.ID, OrderPatch{
			Status:        &scheduled,
			AssignedCrew:  &crew,
			ScheduledDate: &date,
		}); err != nil {
			return "", fmt.Errorf("auto-schedule order %s: %w", order.ID, err)
		}
		log.Info().Str("order", order.ID).Str("crew", crew).Msg("Repair crew auto-scheduled")
	}

	return order.ID, nil
}

// ── Strategy Catalog ────────────────────────────────────────

// RepairStrategies returns the fixed repair-tier catalog shown to operators.
func RepairStrategies() []models.RepairStrategy {
	return []models.RepairStrategy{
		{
			Tier:          models.TierBudget,
			Name:          "Patch Repair",
			Cost:          4500,
			DowntimeHrs:   6,
			LifeExtension: 0.5,
			RiskLevel:     "High",
			Description:   "Minimal intervention. Addresses symptoms but not root cause.",
			Warranty:      "90 days",
		},
		{
			Tier:          models.TierBalanced,
			Name:          "Sub-assembly Swap",
			Cost:          12000,
			DowntimeHrs:   12,
			LifeExtension: 3.0,
			RiskLevel:     "Low",
			Description:   "Replace bearing race and seals. Optimal balance of cost vs longevity.",
			Recommended:   true,
			Warranty:      "2 years",
		},
		{
			Tier:          models.TierLuxury,
			Name:          "Full Overhaul",
			Cost:          45000,
			DowntimeHrs:   48,
			LifeExtension: 10.0,
			RiskLevel:     "Zero",
			Description:   "Complete Gen-5 yaw system installation with upgraded sensors.",
			Warranty:      "5 years",
		},
	}
}

func validStatus(s models.OrderStatus) bool {
	switch s {
	case models.OrderPending, models.OrderScheduled, models.OrderInProgress, models.OrderCompleted:
		return true
	}
	return false
}

func validPriority(p models.Priority) bool {
	switch p {
	case models.PriorityCritical, models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	}
	return false
}
