package logistics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethergrid/aethergrid/internal/store"
	"github.com/aethergrid/aethergrid/pkg/models"
)

var testNow = time.Date(2026, 1, 27, 9, 30, 0, 0, time.UTC)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewWithClock(store.NewMemoryStore(), func() time.Time { return testNow })
}

func TestNewSeedsOrders(t *testing.T) {
	r := newTestRegistry(t)
	orders := r.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "Blade Erosion Repair", orders[0].Title)
	assert.Equal(t, models.OrderPending, orders[0].Status)
	assert.Equal(t, "Gearbox Oil Change", orders[1].Title)
	assert.Equal(t, models.OrderScheduled, orders[1].Status)
}

func TestNewRestoresPersistedOrders(t *testing.T) {
	st := store.NewMemoryStore()
	first := NewWithClock(st, func() time.Time { return testNow })
	created := first.CreateWorkOrder(models.WorkOrder{Title: "Yaw Motor Swap", AssetID: "WTG-07"})

	second := NewWithClock(st, func() time.Time { return testNow })
	got, err := second.Order(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Yaw Motor Swap", got.Title)
	// Restored, not reseeded: seeds plus the created order.
	assert.Len(t, second.Orders(), 3)
}

func TestCreateWorkOrderDefaults(t *testing.T) {
	r := newTestRegistry(t)
	order := r.CreateWorkOrder(models.WorkOrder{})

	assert.True(t, strings.HasPrefix(order.ID, "WO-2026-"), "id = %s", order.ID)
	assert.Equal(t, "Untitled Maintenance", order.Title)
	assert.Equal(t, "UNK-00", order.AssetID)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PriorityMedium, order.Priority)
	assert.Equal(t, 2.0, order.EstimatedHrs)
	assert.NotNil(t, order.RequiredParts)
	assert.Equal(t, testNow, order.CreatedAt)
}

func TestCreateWorkOrderCoercesMalformedFields(t *testing.T) {
	r := newTestRegistry(t)
	order := r.CreateWorkOrder(models.WorkOrder{
		Status:       "EXPLODED",
		Priority:     "MAXIMUM",
		EstimatedHrs: -3,
	})
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PriorityMedium, order.Priority)
	assert.Equal(t, 2.0, order.EstimatedHrs)
}

func TestCreateWorkOrderIDsAreUnique(t *testing.T) {
	r := newTestRegistry(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		order := r.CreateWorkOrder(models.WorkOrder{Title: "Inspection"})
		require.False(t, seen[order.ID], "duplicate id %s", order.ID)
		seen[order.ID] = true
	}
}

func TestCreateWorkOrderPrepends(t *testing.T) {
	r := newTestRegistry(t)
	order := r.CreateWorkOrder(models.WorkOrder{Title: "Newest"})
	assert.Equal(t, order.ID, r.Orders()[0].ID)
}

func TestUpdateOrderMergesFields(t *testing.T) {
	r := newTestRegistry(t)
	order := r.CreateWorkOrder(models.WorkOrder{Title: "Gear Inspection", AssetID: "WTG-11"})

	status := models.OrderInProgress
	crew := "Team Bravo"
	updated, err := r.UpdateOrder(order.ID, OrderPatch{Status: &status, AssignedCrew: &crew})
	require.NoError(t, err)

	assert.Equal(t, models.OrderInProgress, updated.Status)
	assert.Equal(t, "Team Bravo", updated.AssignedCrew)
	// Untouched fields survive the merge.
	assert.Equal(t, "Gear Inspection", updated.Title)
	assert.Equal(t, "WTG-11", updated.AssetID)
}

func TestUpdateOrderNotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.UpdateOrder("WO-0000-9999", OrderPatch{})
	var nf *ErrNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "WO-0000-9999", nf.ID)
}

func TestOrderNotFound(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.Order("nope")
	var nf *ErrNotFound
	assert.True(t, errors.As(err, &nf))
}

func TestOrdersReturnsCopy(t *testing.T) {
	r := newTestRegistry(t)
	orders := r.Orders()
	orders[0].Title = "mutated"
	assert.NotEqual(t, "mutated", r.Orders()[0].Title)
}

// ── Dispatch ────────────────────────────────────────────────

func TestDispatchRepairCrewAutoScheduleBoundary(t *testing.T) {
	cases := []struct {
		level        int
		wantPriority models.Priority
		wantStatus   models.OrderStatus
		wantCrew     string
	}{
		{1, models.PriorityCritical, models.OrderScheduled, RapidResponseCrew},
		{2, models.PriorityHigh, models.OrderScheduled, RapidResponseCrew},
		{3, models.PriorityMedium, models.OrderPending, ""},
		{4, models.PriorityMedium, models.OrderPending, ""},
		{5, models.PriorityLow, models.OrderPending, ""},
	}
	for _, tc := range cases {
		r := newTestRegistry(t)
		id, err := r.DispatchRepairCrew("GearboxWear", tc.level, "WTG-09", nil, 2, 3)
		require.NoError(t, err, "level %d", tc.level)

		order, err := r.Order(id)
		require.NoError(t, err)
		assert.Equal(t, tc.wantPriority, order.Priority, "level %d", tc.level)
		assert.Equal(t, tc.wantStatus, order.Status, "level %d", tc.level)
		assert.Equal(t, tc.wantCrew, order.AssignedCrew, "level %d", tc.level)
	}
}

func TestDispatchRepairCrewSchedulesTomorrow(t *testing.T) {
	r := newTestRegistry(t)
	id, err := r.DispatchRepairCrew("LeadingEdgeErosion", 1, "WTG-042", nil, 3, 6)
	require.NoError(t, err)

	order, err := r.Order(id)
	require.NoError(t, err)
	assert.Equal(t, "Repair: LeadingEdgeErosion", order.Title)
	assert.Equal(t, "WTG-042", order.AssetID)
	assert.Equal(t, models.PriorityCritical, order.Priority)
	assert.Equal(t, testNow.Add(24*time.Hour).Format("2006-01-02"), order.ScheduledDate)
}

func TestDispatchRepairCrewCarriesParts(t *testing.T) {
	r := newTestRegistry(t)
	parts := []models.RepairPart{{PartID: "P-BRG-SET", Quantity: 2, UnitCost: 900}}
	id, err := r.DispatchRepairCrew("BearingWear", 4, "WTG-02", parts, 2, 5)
	require.NoError(t, err)

	order, err := r.Order(id)
	require.NoError(t, err)
	require.Len(t, order.RequiredParts, 1)
	assert.Equal(t, "P-BRG-SET", order.RequiredParts[0].PartID)
	assert.Equal(t, 2, order.CrewSize)
	assert.Equal(t, 5.0, order.EstimatedHrs)
	assert.Equal(t, "BearingWear", order.FaultType)
}

// ── Strategy Catalog ────────────────────────────────────────

func TestRepairStrategiesCatalog(t *testing.T) {
	strategies := RepairStrategies()
	require.Len(t, strategies, 3)

	tiers := map[models.StrategyTier]models.RepairStrategy{}
	for _, s := range strategies {
		tiers[s.Tier] = s
	}
	require.Contains(t, tiers, models.TierBudget)
	require.Contains(t, tiers, models.TierBalanced)
	require.Contains(t, tiers, models.TierLuxury)

	assert.True(t, tiers[models.TierBalanced].Recommended)
	assert.False(t, tiers[models.TierBudget].Recommended)
	assert.False(t, tiers[models.TierLuxury].Recommended)
	assert.Less(t, tiers[models.TierBudget].Cost, tiers[models.TierBalanced].Cost)
	assert.Less(t, tiers[models.TierBalanced].Cost, tiers[models.TierLuxury].Cost)
}
