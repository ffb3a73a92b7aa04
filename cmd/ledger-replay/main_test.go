package main

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/svfabworks/factory_backend/models"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return v
}

func replay(txns []*models.Transaction) (map[string]decimal.Decimal, map[string]bool) {
	replayed := map[string]decimal.Decimal{}
	dropped := map[string]bool{}
	for _, txn := range txns {
		applyTransaction(replayed, dropped, txn)
	}
	return replayed, dropped
}

func TestApplyTransactionCreateOnly(t *testing.T) {
	// CreateStock logs quantity at the top level of the details, not under
	// an "after" snapshot, so an item that was created and never updated
	// must still replay to its created quantity.
	replayed, _ := replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":        "R10",
			"quantity":       dec(t, "100"),
			"defective":      decimal.Zero,
			"cost_per_unit":  dec(t, "50"),
			"gst_percentage": dec(t, "18"),
			"total_cost":     dec(t, "5900"),
		}},
	})
	if got := replayed["R10"]; !got.Equal(dec(t, "100")) {
		t.Fatalf("created item should replay to 100, got %s", got)
	}
}

func TestApplyTransactionUpdateUsesAfterSnapshot(t *testing.T) {
	replayed, _ := replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "100"),
		}},
		{OperationType: models.OperationUpdateStock, Details: models.Details{
			"item_id": "R10",
			"before":  map[string]any{"quantity": "100"},
			"after":   map[string]any{"quantity": "70"},
		}},
	})
	if got := replayed["R10"]; !got.Equal(dec(t, "70")) {
		t.Fatalf("update should replay the after quantity, got %s", got)
	}
}

func TestApplyTransactionQuantityAndDefectiveMoves(t *testing.T) {
	replayed, _ := replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "100"),
		}},
		{OperationType: models.OperationAddStockQuantity, Details: models.Details{
			"item_id":        "R10",
			"quantity_added": dec(t, "50"),
		}},
		{OperationType: models.OperationSubtractStockQuantity, Details: models.Details{
			"item_id":             "R10",
			"quantity_subtracted": dec(t, "20"),
		}},
		{OperationType: models.OperationAddDefectiveGoods, Details: models.Details{
			"item_id":         "R10",
			"defective_added": dec(t, "5"),
		}},
		{OperationType: models.OperationSubtractDefectiveGoods, Details: models.Details{
			"item_id":              "R10",
			"defective_subtracted": dec(t, "2"),
		}},
	})
	// 100 + 50 - 20 - 5 + 2
	if got := replayed["R10"]; !got.Equal(dec(t, "127")) {
		t.Fatalf("expected 127, got %s", got)
	}
}

func TestApplyTransactionPushAndUndo(t *testing.T) {
	push := models.Details{
		"push_id": "p1",
		"deductions": map[string]any{
			"R10": "30",
			"R11": "10",
		},
	}
	undo := models.Details{
		"push_id": "p1",
		"deductions": map[string]any{
			"R10": "30",
			"R11": "10",
		},
	}
	replayed, _ := replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "100"),
		}},
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R11",
			"quantity": dec(t, "40"),
		}},
		{OperationType: models.OperationPushToProduction, Details: push},
	})
	if !replayed["R10"].Equal(dec(t, "70")) || !replayed["R11"].Equal(dec(t, "30")) {
		t.Fatalf("push deductions not applied: R10=%s R11=%s", replayed["R10"], replayed["R11"])
	}

	replayed, _ = replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "100"),
		}},
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R11",
			"quantity": dec(t, "40"),
		}},
		{OperationType: models.OperationPushToProduction, Details: push},
		{OperationType: models.OperationUndoProduction, Details: undo},
	})
	if !replayed["R10"].Equal(dec(t, "100")) || !replayed["R11"].Equal(dec(t, "40")) {
		t.Fatalf("undo should restore deductions: R10=%s R11=%s", replayed["R10"], replayed["R11"])
	}
}

func TestApplyTransactionDeleteThenRecreate(t *testing.T) {
	replayed, dropped := replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "100"),
		}},
		{OperationType: models.OperationDeleteStock, Details: models.Details{
			"item_id": "R10",
		}},
	})
	if _, ok := replayed["R10"]; ok || !dropped["R10"] {
		t.Fatalf("deleted item should be dropped: replayed=%v dropped=%v", replayed, dropped)
	}

	replayed, dropped = replay([]*models.Transaction{
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "100"),
		}},
		{OperationType: models.OperationDeleteStock, Details: models.Details{
			"item_id": "R10",
		}},
		{OperationType: models.OperationCreateStock, Details: models.Details{
			"item_id":  "R10",
			"quantity": dec(t, "25"),
		}},
	})
	if got := replayed["R10"]; !got.Equal(dec(t, "25")) || dropped["R10"] {
		t.Fatalf("recreated item should replay to 25 and clear the drop mark, got %s", got)
	}
}
