package econ

import (
	"testing"
	"time"
)

func TestClampMoneyDelta(t *testing.T) {
	tests := []struct {
		name string
		old  int64
		next int64
		want int64
	}{
		{name: "increase under cap", old: 100_000, next: 200_000, want: 200_000},
		{name: "increase at cap", old: 100_000, next: 250_000, want: 250_000},
		{name: "increase over cap", old: 100_000, next: 1_000_000, want: 250_000},
		{name: "decrease unbounded", old: 100_000, next: -5_000_000, want: -5_000_000},
		{name: "no change", old: 42, next: 42, want: 42},
	}
	for _, tc := range tests {
		got := ClampMoneyDelta(tc.old, tc.next, MoneyDeltaCap)
		if got != tc.want {
			t.Fatalf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestCloneIsolation(t *testing.T) {
	orig := State{
		Money:      100,
		Reputation: 5,
		Projects:   []Project{{ID: "p1", Name: "Mega Saga", Progress: 40, Bugs: 2, Quality: 5}},
		Released:   []ReleasedProduct{{ID: "g1", Name: "Neo Quest", Quality: 7, BaseRevenue: 9_000}},
	}
	next := orig.Clone()
	next.Money = 999
	next.Projects[0].Progress = 90
	next.Released[0].BaseRevenue = 1
	next.Projects = append(next.Projects, Project{ID: "p2"})

	if orig.Money != 100 {
		t.Fatalf("clone mutated original money: %d", orig.Money)
	}
	if orig.Projects[0].Progress != 40 {
		t.Fatalf("clone shares project backing array")
	}
	if orig.Released[0].BaseRevenue != 9_000 {
		t.Fatalf("clone shares released backing array")
	}
	if len(orig.Projects) != 1 {
		t.Fatalf("clone append leaked into original")
	}
}

func TestNewPlayerState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := NewPlayerState(now)
	if st.Money != StarterMoney {
		t.Fatalf("starter money %d", st.Money)
	}
	if st.Reputation < MinReputation || st.Reputation > MaxReputation {
		t.Fatalf("starter reputation %d out of range", st.Reputation)
	}
	if st.Projects == nil || st.Released == nil {
		t.Fatalf("expected empty, non-nil slices")
	}
	if !st.LastWriteTime.Equal(now) {
		t.Fatalf("last write time %v", st.LastWriteTime)
	}
}
