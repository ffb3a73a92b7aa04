package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestItem(qty, defective, costPerUnit, gstPct string) *StockItem {
	item := &StockItem{
		ItemId:        "ms-sheet-2mm",
		Name:          "ms-sheet-2mm",
		Quantity:      dec(qty),
		Defective:     dec(defective),
		CostPerUnit:   dec(costPerUnit),
		GstPercentage: dec(gstPct),
	}
	item.Recompute()
	return item
}

func assertStockInvariants(t *testing.T, item *StockItem) {
	t.Helper()
	if !item.TotalQuantity.Equal(item.Quantity.Add(item.Defective)) {
		t.Fatalf("total_quantity %s != quantity %s + defective %s",
			item.TotalQuantity, item.Quantity, item.Defective)
	}
	base := item.Quantity.Mul(item.CostPerUnit)
	expectedGst := base.Mul(item.GstPercentage).Div(dec("100")).Round(2)
	if !item.GstAmount.Equal(expectedGst) {
		t.Fatalf("gst_amount %s, expected %s", item.GstAmount, expectedGst)
	}
	expectedCost := base.Add(expectedGst).Round(2)
	if !item.TotalCost.Equal(expectedCost) {
		t.Fatalf("total_cost %s, expected %s", item.TotalCost, expectedCost)
	}
}

func TestRecompute(t *testing.T) {
	item := newTestItem("40", "2", "12.50", "18")
	if !item.TotalQuantity.Equal(dec("42")) {
		t.Fatalf("total_quantity expected 42, got %s", item.TotalQuantity)
	}
	// 40 * 12.50 = 500, GST 18% = 90
	if !item.GstAmount.Equal(dec("90")) {
		t.Fatalf("gst_amount expected 90, got %s", item.GstAmount)
	}
	if !item.TotalCost.Equal(dec("590")) {
		t.Fatalf("total_cost expected 590, got %s", item.TotalCost)
	}
	assertStockInvariants(t, item)
}

func TestApplyAddQuantity(t *testing.T) {
	item := newTestItem("40", "0", "12.50", "18")
	addedCost, gstAdded := applyAddQuantity(item, dec("10"))

	// 10 * 12.50 = 125, GST 22.5, landed 147.5
	if !gstAdded.Equal(dec("22.5")) {
		t.Fatalf("gstAdded expected 22.5, got %s", gstAdded)
	}
	if !addedCost.Equal(dec("147.5")) {
		t.Fatalf("addedCost expected 147.5, got %s", addedCost)
	}
	if !item.Quantity.Equal(dec("50")) {
		t.Fatalf("quantity expected 50, got %s", item.Quantity)
	}
	assertStockInvariants(t, item)
}

func TestApplySubtractQuantity_MirrorsAdd(t *testing.T) {
	item := newTestItem("40", "0", "12.50", "18")
	before := item.TotalCost

	addedCost, _ := applyAddQuantity(item, dec("10"))
	removedCost, _, err := applySubtractQuantity(item, dec("10"), false)
	if err != nil {
		t.Fatalf("applySubtractQuantity error: %v", err)
	}
	if !removedCost.Equal(addedCost) {
		t.Fatalf("subtract should mirror add: removed %s, added %s", removedCost, addedCost)
	}
	if !item.Quantity.Equal(dec("40")) || !item.TotalCost.Equal(before) {
		t.Fatalf("add then subtract should restore the item: qty %s, cost %s", item.Quantity, item.TotalCost)
	}
	assertStockInvariants(t, item)
}

func TestApplySubtractQuantity_Insufficient(t *testing.T) {
	item := newTestItem("5", "0", "10", "0")
	if _, _, err := applySubtractQuantity(item, dec("6"), false); err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if !item.Quantity.Equal(dec("5")) {
		t.Fatalf("failed subtract must not mutate, got quantity %s", item.Quantity)
	}
}

func TestApplySubtractQuantity_ClampFloorsAtZero(t *testing.T) {
	item := newTestItem("5", "0", "10", "18")
	if _, _, err := applySubtractQuantity(item, dec("8"), true); err != nil {
		t.Fatalf("clamped subtract error: %v", err)
	}
	if !item.Quantity.IsZero() {
		t.Fatalf("quantity expected 0, got %s", item.Quantity)
	}
	if item.TotalCost.IsNegative() || item.GstAmount.IsNegative() {
		t.Fatalf("costs must not go negative: cost %s, gst %s", item.TotalCost, item.GstAmount)
	}
}

func TestApplyAddDefective_CarvesOutOfAvailable(t *testing.T) {
	item := newTestItem("40", "0", "10", "18")
	if err := applyAddDefective(item, dec("5")); err != nil {
		t.Fatalf("applyAddDefective error: %v", err)
	}
	if !item.Quantity.Equal(dec("35")) || !item.Defective.Equal(dec("5")) {
		t.Fatalf("expected 35 available / 5 defective, got %s / %s", item.Quantity, item.Defective)
	}
	if !item.TotalQuantity.Equal(dec("40")) {
		t.Fatalf("total_quantity must stay 40, got %s", item.TotalQuantity)
	}
	assertStockInvariants(t, item)
}

func TestApplyAddDefective_ExceedsTotal(t *testing.T) {
	item := newTestItem("10", "0", "10", "0")
	if err := applyAddDefective(item, dec("11")); err == nil {
		t.Fatal("expected error when defective exceeds total quantity")
	}
}

func TestApplySubtractDefective_RestoresAvailable(t *testing.T) {
	item := newTestItem("40", "0", "10", "18")
	if err := applyAddDefective(item, dec("5")); err != nil {
		t.Fatalf("applyAddDefective error: %v", err)
	}
	if err := applySubtractDefective(item, dec("5"), false); err != nil {
		t.Fatalf("applySubtractDefective error: %v", err)
	}
	if !item.Quantity.Equal(dec("40")) || !item.Defective.IsZero() {
		t.Fatalf("expected full restore, got %s available / %s defective", item.Quantity, item.Defective)
	}
	assertStockInvariants(t, item)
}

func TestApplySubtractDefective_MoreThanHeld(t *testing.T) {
	item := newTestItem("10", "2", "10", "0")
	if err := applySubtractDefective(item, dec("3"), false); err == nil {
		t.Fatal("expected error when subtracting more defective than held")
	}
	if err := applySubtractDefective(item, dec("3"), true); err != nil {
		t.Fatalf("clamped subtract error: %v", err)
	}
	if !item.Defective.IsZero() {
		t.Fatalf("defective expected 0, got %s", item.Defective)
	}
	assertStockInvariants(t, item)
}

func TestIsLowStock(t *testing.T) {
	item := newTestItem("5", "0", "10", "0")
	item.StockLimit = dec("5")
	if !item.IsLowStock() {
		t.Fatal("quantity at the limit should flag low stock")
	}
	item.StockLimit = dec("4")
	if item.IsLowStock() {
		t.Fatal("quantity above the limit should not flag low stock")
	}
	item.StockLimit = decimal.Zero
	if item.IsLowStock() {
		t.Fatal("zero limit disables the low stock flag")
	}
}

func TestGstFor(t *testing.T) {
	item := newTestItem("100", "0", "12.50", "18")
	if got := item.GstFor(dec("10")); !got.Equal(dec("22.5")) {
		t.Fatalf("GstFor(10) expected 22.5, got %s", got)
	}
}
