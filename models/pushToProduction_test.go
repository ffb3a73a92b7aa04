package models

import (
	"strings"
	"testing"
)

func TestErrInsufficientStock_Message(t *testing.T) {
	err := &ErrInsufficientStock{ItemId: "ms-sheet-2mm", Available: dec("5"), Required: dec("6")}
	if !strings.Contains(err.Error(), "insufficient stock") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "available 5") || !strings.Contains(err.Error(), "required 6") {
		t.Fatalf("message should carry available and required: %s", err.Error())
	}
}

func TestFirstShortfall(t *testing.T) {
	required := DecimalMap{
		"ms-sheet-2mm": dec("8"),
		"hinge-set":    dec("4"),
		"rivet-box":    dec("2"),
	}
	items := map[string]*StockItem{
		"ms-sheet-2mm": newTestItem("3", "0", "12.50", "18"),
		"hinge-set":    newTestItem("1", "0", "8", "18"),
		"rivet-box":    newTestItem("10", "0", "2", "5"),
	}

	// Both the sheet and the hinge are short; item-id order picks the hinge.
	short := firstShortfall(required, items)
	if short == nil {
		t.Fatal("expected a shortfall")
	}
	if short.ItemId != "hinge-set" || !short.Available.Equal(dec("1")) || !short.Required.Equal(dec("4")) {
		t.Fatalf("unexpected shortfall: %+v", short)
	}

	// A missing item reads as zero available.
	delete(items, "hinge-set")
	short = firstShortfall(required, items)
	if short == nil || short.ItemId != "hinge-set" || !short.Available.IsZero() {
		t.Fatalf("missing item should report zero available, got %+v", short)
	}

	items["hinge-set"] = newTestItem("4", "0", "8", "18")
	items["ms-sheet-2mm"] = newTestItem("8", "0", "12.50", "18")
	if short := firstShortfall(required, items); short != nil {
		t.Fatalf("expected no shortfall, got %+v", short)
	}
}

func TestSortPushRecords(t *testing.T) {
	records := []*PushRecord{
		{PushId: "c", Timestamp: "2026-08-31T12:00:00+05:30"},
		{PushId: "a", Timestamp: "2026-08-31T09:00:00+05:30"},
		{PushId: "b", Timestamp: "2026-08-31T10:30:00+05:30"},
	}
	sorted := sortPushRecords(records)
	if sorted[0].PushId != "a" || sorted[1].PushId != "b" || sorted[2].PushId != "c" {
		t.Fatalf("expected chronological order, got %s %s %s",
			sorted[0].PushId, sorted[1].PushId, sorted[2].PushId)
	}
}
