package reports

import (
	"testing"

	"github.com/svfabworks/factory_backend/models"
)

func TestRollupForDate(t *testing.T) {
	txns := []*models.Transaction{
		{
			OperationType: models.OperationAddStockQuantity,
			Date:          "2026-08-30",
			Timestamp:     "2026-08-30T09:00:00+05:30",
			Username:      "operator",
			Details: models.Details{
				"item_id":        "ms-sheet-2mm",
				"quantity_added": "10",
				"added_cost":     "147.50",
			},
		},
		{
			OperationType: models.OperationPushToProduction,
			Date:          "2026-08-30",
			Timestamp:     "2026-08-30T11:00:00+05:30",
			Username:      "operator",
			Details: models.Details{
				"push_id": "p1",
				"deductions": map[string]interface{}{
					"ms-sheet-2mm": "8",
				},
			},
		},
		{
			OperationType: models.OperationSaveOpeningStock,
			Date:          "2026-08-30",
			Timestamp:     "2026-08-30T08:00:00+05:30",
			Username:      "operator",
			Details: models.Details{
				"date":             "2026-08-30",
				"per_item_opening": map[string]interface{}{"ms-sheet-2mm": "40"},
			},
		},
	}

	rollup := rollupForDate("2026-08-30", txns)
	if rollup.Date != "2026-08-30" {
		t.Fatalf("unexpected date %s", rollup.Date)
	}
	if len(rollup.Operations) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(rollup.Operations))
	}
	for _, op := range rollup.Operations {
		if _, ok := op["per_item_opening"]; ok {
			t.Fatal("per_item_opening must be stripped from the listing")
		}
		if op["operation_type"] == "" {
			t.Fatal("operations must carry their operation_type")
		}
	}

	// The totals key on operation names the mutation layer never writes,
	// so receipts and pushes leave them untouched.
	if !rollup.InwardQty.IsZero() || !rollup.InwardAmount.IsZero() {
		t.Fatalf("inward totals must stay zero, got %s / %s", rollup.InwardQty, rollup.InwardAmount)
	}
	if !rollup.ConsumptionQty.IsZero() || !rollup.ConsumptionAmount.IsZero() {
		t.Fatalf("consumption totals must stay zero, got %s / %s",
			rollup.ConsumptionQty, rollup.ConsumptionAmount)
	}
	if !rollup.BalanceQty.IsZero() || !rollup.BalanceAmount.IsZero() {
		t.Fatalf("balance totals must stay zero, got %s / %s", rollup.BalanceQty, rollup.BalanceAmount)
	}
}

func TestRollupForDateEmpty(t *testing.T) {
	rollup := rollupForDate("2026-08-31", nil)
	if rollup.Operations == nil || len(rollup.Operations) != 0 {
		t.Fatalf("empty dates should carry an empty operation list, got %v", rollup.Operations)
	}
	if !rollup.BalanceQty.IsZero() {
		t.Fatalf("empty date balance should be zero, got %s", rollup.BalanceQty)
	}
}
