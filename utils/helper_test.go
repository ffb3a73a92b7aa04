package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]string{"a", "b", "a", "c", "b"})
	expected := []string{"a", "b", "c"}
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"zinc": 1, "acid": 2, "mild steel": 3}
	got := SortedKeys(m)
	expected := []string{"acid", "mild steel", "zinc"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}
}

func TestCanonicalArgs_OrderIndependent(t *testing.T) {
	a := CanonicalArgs("2026-08-01", "2026-08-31")
	b := CanonicalArgs("2026-08-31", "2026-08-01")
	if a != b {
		t.Fatalf("expected a stable fragment, got %q and %q", a, b)
	}
}

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"10.005", "10.01"},
		{"10.004", "10"},
		{"0.125", "0.13"},
		{"-3.555", "-3.56"},
	}
	for _, tc := range cases {
		d, _ := decimal.NewFromString(tc.in)
		if got := RoundMoney(d); got.String() != tc.expected {
			t.Fatalf("RoundMoney(%s) expected %s, got %s", tc.in, tc.expected, got.String())
		}
	}
}

func TestClampZero(t *testing.T) {
	if got := ClampZero(decimal.NewFromInt(-5)); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got.String())
	}
	if got := ClampZero(decimal.NewFromInt(5)); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected 5, got %s", got.String())
	}
}
