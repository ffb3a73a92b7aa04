package models

import "testing"

func strPtr(s string) *string { return &s }

func TestResolveGroupChain(t *testing.T) {
	groups := map[string]*Group{
		"raw":    {GroupId: "raw", Name: "Raw Material"},
		"steel":  {GroupId: "steel", Name: "Steel", ParentId: strPtr("raw")},
		"sheets": {GroupId: "sheets", Name: "Sheets", ParentId: strPtr("steel")},
	}
	chain := ResolveGroupChain(groups, "sheets")
	expected := []string{"Raw Material", "Steel", "Sheets"}
	if len(chain) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, chain)
	}
	for i := range expected {
		if chain[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, chain)
		}
	}
}

func TestResolveGroupChain_MissingParent(t *testing.T) {
	groups := map[string]*Group{
		"steel": {GroupId: "steel", Name: "Steel", ParentId: strPtr("gone")},
	}
	chain := ResolveGroupChain(groups, "steel")
	if len(chain) != 1 || chain[0] != "Steel" {
		t.Fatalf("expected the walk to stop at the dangling parent, got %v", chain)
	}
}

func TestResolveGroupChain_Cycle(t *testing.T) {
	groups := map[string]*Group{
		"a": {GroupId: "a", Name: "A", ParentId: strPtr("b")},
		"b": {GroupId: "b", Name: "B", ParentId: strPtr("a")},
	}
	chain := ResolveGroupChain(groups, "a")
	if len(chain) != 2 {
		t.Fatalf("cycle should terminate after each node once, got %v", chain)
	}
}

func TestResolveGroupChain_UnknownGroup(t *testing.T) {
	if chain := ResolveGroupChain(map[string]*Group{}, "nope"); len(chain) != 0 {
		t.Fatalf("expected empty chain, got %v", chain)
	}
}

func TestGroupTiers(t *testing.T) {
	cases := []struct {
		chain    []string
		group    string
		subgroup string
	}{
		{[]string{"Raw Material", "Steel", "Sheets"}, "Raw Material", "Steel"},
		{[]string{"Raw Material"}, "Raw Material", UnknownGroup},
		{nil, UnknownGroup, UnknownGroup},
	}
	for _, tc := range cases {
		group, subgroup := GroupTiers(tc.chain)
		if group != tc.group || subgroup != tc.subgroup {
			t.Fatalf("GroupTiers(%v) expected (%s, %s), got (%s, %s)",
				tc.chain, tc.group, tc.subgroup, group, subgroup)
		}
	}
}
