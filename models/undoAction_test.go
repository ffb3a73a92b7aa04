package models

import "testing"

func activeUndos(n int) []*UndoAction {
	records := make([]*UndoAction, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, &UndoAction{
			UndoId:    string(rune('a' + i)),
			Status:    UndoStatusActive,
			Timestamp: "2026-08-31T10:00:0" + string(rune('0'+i)) + "+05:30",
		})
	}
	return records
}

func TestEvictForInsert(t *testing.T) {
	cases := []struct {
		active  int
		evicted int
	}{
		{0, 0},
		{2, 0},
		{3, 1},
		{5, 3},
	}
	for _, tc := range cases {
		evicted := EvictForInsert(activeUndos(tc.active))
		if len(evicted) != tc.evicted {
			t.Fatalf("with %d active expected %d evicted, got %d", tc.active, tc.evicted, len(evicted))
		}
	}
}

func TestEvictForInsert_PicksOldest(t *testing.T) {
	active := activeUndos(4)
	evicted := EvictForInsert(active)
	if len(evicted) != 2 {
		t.Fatalf("expected 2 evicted, got %d", len(evicted))
	}
	if evicted[0].UndoId != active[0].UndoId || evicted[1].UndoId != active[1].UndoId {
		t.Fatalf("eviction must take the oldest entries, got %s, %s",
			evicted[0].UndoId, evicted[1].UndoId)
	}
}
