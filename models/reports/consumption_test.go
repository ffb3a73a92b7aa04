package reports

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestExtractConsumption(t *testing.T) {
	txns := []*models.Transaction{
		{
			OperationType: models.OperationPushToProduction,
			Timestamp:     "2026-08-31T10:00:00+05:30",
			Details: models.Details{
				"deductions": map[string]interface{}{
					"ms-sheet-2mm": "8",
					"hinge-set":    "4",
				},
			},
		},
		{
			OperationType: models.OperationAddDefectiveGoods,
			Timestamp:     "2026-08-31T11:00:00+05:30",
			Details: models.Details{
				"item_id":         "paint-grey",
				"defective_added": "1.5",
			},
		},
		{
			// Receipts are not consumption.
			OperationType: models.OperationAddStockQuantity,
			Details:       models.Details{"item_id": "ms-sheet-2mm", "quantity_added": "10"},
		},
	}

	rows := ExtractConsumption(txns)
	if len(rows) != 3 {
		t.Fatalf("expected 3 consumption rows, got %d", len(rows))
	}
	byItem := map[string]decimal.Decimal{}
	for _, row := range rows {
		byItem[row.ItemId] = byItem[row.ItemId].Add(row.QuantityConsumed)
	}
	if !byItem["ms-sheet-2mm"].Equal(dec("8")) {
		t.Fatalf("ms-sheet-2mm expected 8, got %s", byItem["ms-sheet-2mm"])
	}
	if !byItem["hinge-set"].Equal(dec("4")) {
		t.Fatalf("hinge-set expected 4, got %s", byItem["hinge-set"])
	}
	if !byItem["paint-grey"].Equal(dec("1.5")) {
		t.Fatalf("paint-grey expected 1.5, got %s", byItem["paint-grey"])
	}
}

func TestExtractInward(t *testing.T) {
	txns := []*models.Transaction{
		{
			OperationType: models.OperationAddStockQuantity,
			Timestamp:     "2026-08-31T09:00:00+05:30",
			Details: models.Details{
				"item_id":        "ms-sheet-2mm",
				"quantity_added": "10",
				"added_cost":     "147.5",
				"supplier_name":  "Sharma Steels",
				"new_available":  "50",
			},
		},
		{
			OperationType: models.OperationSubtractStockQuantity,
			Details:       models.Details{"item_id": "ms-sheet-2mm", "quantity_subtracted": "5"},
		},
	}

	rows := ExtractInward(txns)
	if len(rows) != 1 {
		t.Fatalf("expected 1 inward row, got %d", len(rows))
	}
	row := rows[0]
	if row.ItemId != "ms-sheet-2mm" || row.SupplierName != "Sharma Steels" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !row.QuantityAdded.Equal(dec("10")) || !row.AddedCost.Equal(dec("147.5")) {
		t.Fatalf("unexpected quantities: %+v", row)
	}
	if !row.NewAvailable.Equal(dec("50")) {
		t.Fatalf("new_available expected 50, got %s", row.NewAvailable)
	}
}

func TestByTimestamp_DoesNotMutateInput(t *testing.T) {
	txns := []*models.Transaction{
		{TransactionId: "b", Timestamp: "2026-08-31T11:00:00+05:30"},
		{TransactionId: "a", Timestamp: "2026-08-31T09:00:00+05:30"},
	}
	sorted := byTimestamp(txns)
	if sorted[0].TransactionId != "a" || sorted[1].TransactionId != "b" {
		t.Fatalf("expected chronological order, got %s, %s",
			sorted[0].TransactionId, sorted[1].TransactionId)
	}
	if txns[0].TransactionId != "b" {
		t.Fatal("input slice order must be preserved")
	}
}
