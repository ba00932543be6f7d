package engine

import (
	"context"
	"testing"
	"time"

	"devtycoon/internal/econ"
	"devtycoon/internal/store"
)

func TestSessionStreamsCommittedSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := store.NewMemory()
	seedPlayer(t, m, "p1", econ.State{Money: 200_000})
	r := NewRunner(m, testLogger(), fastConfig())

	// Long tick interval keeps passive income out of the assertion.
	sess, err := NewSession(ctx, r, m, "p1", time.Hour, testLogger())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer sess.Close()

	first := recvState(t, sess.Snapshots())
	if first.Money != 200_000 {
		t.Fatalf("initial snapshot money=%d", first.Money)
	}

	res, err := sess.Submit(ctx, econ.Command{Kind: econ.KindHire})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Outcome.Applied {
		t.Fatalf("outcome %+v", res.Outcome)
	}
	got := recvState(t, sess.Snapshots())
	if got.Money != 150_000 || got.Employees != 1 {
		t.Fatalf("streamed snapshot money=%d employees=%d", got.Money, got.Employees)
	}
}

func TestSessionCloseDetaches(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	seedPlayer(t, m, "p1", econ.State{Money: 200_000})
	r := NewRunner(m, testLogger(), fastConfig())

	sess, err := NewSession(ctx, r, m, "p1", time.Hour, testLogger())
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	sess.Close()
	sess.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-sess.Snapshots():
			if !open {
				return
			}
		case <-deadline:
			t.Fatalf("snapshot channel did not close")
		}
	}
}

func TestSessionMissingPlayer(t *testing.T) {
	m := store.NewMemory()
	r := NewRunner(m, testLogger(), fastConfig())
	if _, err := NewSession(context.Background(), r, m, "ghost", time.Hour, testLogger()); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func recvState(t *testing.T, ch <-chan econ.State) econ.State {
	t.Helper()
	select {
	case st := <-ch:
		return st
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for snapshot")
		return econ.State{}
	}
}
