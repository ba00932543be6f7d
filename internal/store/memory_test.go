package store

import (
	"context"
	"testing"
	"time"

	"devtycoon/internal/econ"
)

func TestMemoryGetNotFound(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Provision(ctx, "p1", "Alice", econ.State{Money: 100}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if err := m.Provision(ctx, "p1", "Alice", econ.State{Money: 999}); err != nil {
		t.Fatalf("re-provision: %v", err)
	}
	snap, err := m.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.State.Money != 100 {
		t.Fatalf("re-provision overwrote record: money=%d", snap.State.Money)
	}
	if snap.Version != 1 {
		t.Fatalf("fresh record version %d", snap.Version)
	}
}

func TestMemoryCommitBumpsVersion(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.Provision(ctx, "p1", "Alice", econ.State{Money: 100}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	snap, _ := m.Get(ctx, "p1")
	next := snap.State.Clone()
	next.Money = 50
	if err := m.Commit(ctx, "p1", next, snap.Version); err != nil {
		t.Fatalf("commit: %v", err)
	}
	after, _ := m.Get(ctx, "p1")
	if after.State.Money != 50 || after.Version != snap.Version+1 {
		t.Fatalf("after commit: money=%d version=%d", after.State.Money, after.Version)
	}
}

func TestMemoryCommitConflict(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Provision(ctx, "p1", "Alice", econ.State{Money: 100})
	snap, _ := m.Get(ctx, "p1")

	// A racing commit lands first.
	winner := snap.State.Clone()
	winner.Money = 75
	if err := m.Commit(ctx, "p1", winner, snap.Version); err != nil {
		t.Fatalf("winner commit: %v", err)
	}

	loser := snap.State.Clone()
	loser.Money = 10
	if err := m.Commit(ctx, "p1", loser, snap.Version); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	after, _ := m.Get(ctx, "p1")
	if after.State.Money != 75 {
		t.Fatalf("conflicting commit overwrote winner: money=%d", after.State.Money)
	}
}

func TestMemoryCommitMissingRecord(t *testing.T) {
	m := NewMemory()
	if err := m.Commit(context.Background(), "ghost", econ.State{}, 1); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryWatchDeliversCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := NewMemory()
	_ = m.Provision(ctx, "p1", "Alice", econ.State{Money: 100})

	sub, err := m.Watch(ctx, "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Close()

	first := recvSnapshot(t, sub)
	if first.Money != 100 {
		t.Fatalf("initial snapshot money=%d", first.Money)
	}

	snap, _ := m.Get(ctx, "p1")
	next := snap.State.Clone()
	next.Money = 42
	if err := m.Commit(ctx, "p1", next, snap.Version); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got := recvSnapshot(t, sub)
	if got.Money != 42 {
		t.Fatalf("watched snapshot money=%d", got.Money)
	}
}

func TestMemoryWatchCloseStopsStream(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Provision(ctx, "p1", "Alice", econ.State{})

	sub, err := m.Watch(ctx, "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	recvSnapshot(t, sub)
	sub.Close()
	sub.Close() // idempotent

	select {
	case _, open := <-sub.Snapshots():
		if open {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("channel did not close")
	}
}

func TestMemoryWatchMissingRecord(t *testing.T) {
	m := NewMemory()
	if _, err := m.Watch(context.Background(), "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryLeaderboard(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Provision(ctx, "p1", "Alice", econ.State{Money: 100})
	_ = m.Provision(ctx, "p2", "Bob", econ.State{Money: 300})
	_ = m.Provision(ctx, "p3", "Cleo", econ.State{Money: 200})

	rows, err := m.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows %d", len(rows))
	}
	if rows[0].Name != "Bob" || rows[0].Rank != 1 || rows[0].Money != 300 {
		t.Fatalf("row 0: %+v", rows[0])
	}
	if rows[1].Name != "Cleo" || rows[1].Rank != 2 {
		t.Fatalf("row 1: %+v", rows[1])
	}
}

func recvSnapshot(t *testing.T, sub *Subscription) econ.State {
	t.Helper()
	select {
	case st := <-sub.Snapshots():
		return st
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return econ.State{}
	}
}
