package middlewares

import (
	"context"
	"testing"

	"github.com/svfabworks/factory_backend/models"
)

func TestForWithoutLoaders(t *testing.T) {
	if loaders := For(context.Background()); loaders != nil {
		t.Fatalf("plain contexts carry no loaders, got %+v", loaders)
	}
}

func TestGenerateLoaderResults(t *testing.T) {
	byId := map[string]*models.StockItem{
		"r10": {ItemId: "r10", Name: "R10"},
		"r11": {ItemId: "r11", Name: "R11"},
	}
	results := generateLoaderResults(byId, []string{"r11", "missing", "r10"})
	if len(results) != 3 {
		t.Fatalf("expected one result per key, got %d", len(results))
	}
	if results[0].Data == nil || results[0].Data.ItemId != "r11" {
		t.Fatalf("results must follow key order, got %+v", results[0].Data)
	}
	if results[1].Data != nil || results[1].Error != nil {
		t.Fatalf("missing keys resolve to nil data without error, got %+v", results[1])
	}
	if results[2].Data == nil || results[2].Data.ItemId != "r10" {
		t.Fatalf("results must follow key order, got %+v", results[2].Data)
	}
}

func TestHandleError(t *testing.T) {
	results := handleError[*models.Group](3, context.DeadlineExceeded)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error == nil {
			t.Fatal("every result must carry the batch error")
		}
	}
}
