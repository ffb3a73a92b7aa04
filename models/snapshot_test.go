package models

import "testing"

func TestBuildSnapshotRows(t *testing.T) {
	items := []*StockItem{
		newTestItem("40", "0", "12.50", "18"),
		newTestItem("10", "2", "8", "18"),
	}
	items[1].ItemId = "hinge-set"
	items[1].Name = "hinge-set"

	rows, totalQty, totalAmount := buildSnapshotRows(items)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	// 40 * 12.50 = 500, GST excluded from snapshot valuation
	if !rows[0].Amount.Equal(dec("500")) {
		t.Fatalf("rows[0].Amount expected 500, got %s", rows[0].Amount)
	}
	if !rows[1].Amount.Equal(dec("80")) {
		t.Fatalf("rows[1].Amount expected 80, got %s", rows[1].Amount)
	}
	if !totalQty.Equal(dec("50")) {
		t.Fatalf("totalQty expected 50, got %s", totalQty)
	}
	if !totalAmount.Equal(dec("580")) {
		t.Fatalf("totalAmount expected 580, got %s", totalAmount)
	}
	if rows[1].ItemName != "hinge-set" {
		t.Fatalf("row must carry the item name, got %q", rows[1].ItemName)
	}
}

func TestBuildSnapshotRows_Empty(t *testing.T) {
	rows, totalQty, totalAmount := buildSnapshotRows(nil)
	if len(rows) != 0 || !totalQty.IsZero() || !totalAmount.IsZero() {
		t.Fatalf("expected empty rows and zero totals, got %d rows, %s, %s",
			len(rows), totalQty, totalAmount)
	}
}
