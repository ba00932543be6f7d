package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"devtycoon/internal/econ"
	"devtycoon/internal/store"
)

// Session owns everything one connected player session holds: the tick
// scheduler and the store subscription. Nothing session-scoped lives in
// package state; tearing the session down releases all of it.
type Session struct {
	runner   *Runner
	sched    *Scheduler
	sub      *store.Subscription
	playerID string

	closeOnce sync.Once
}

func NewSession(ctx context.Context, runner *Runner, st store.Store, playerID string, tickEvery time.Duration, logger *slog.Logger) (*Session, error) {
	sub, err := st.Watch(ctx, playerID)
	if err != nil {
		return nil, err
	}
	sched := NewScheduler(runner, playerID, tickEvery, logger)
	sched.Start(ctx)
	return &Session{
		runner:   runner,
		sched:    sched,
		sub:      sub,
		playerID: playerID,
	}, nil
}

// PlayerID identifies the player this session acts for.
func (s *Session) PlayerID() string {
	return s.playerID
}

// Submit runs one player command through the transaction runner.
func (s *Session) Submit(ctx context.Context, cmd econ.Command) (Result, error) {
	return s.runner.Apply(ctx, s.playerID, cmd)
}

// Snapshots streams committed states, starting with the current one.
func (s *Session) Snapshots() <-chan econ.State {
	return s.sub.Snapshots()
}

// Close stops the scheduler and detaches the subscription. An in-flight
// tick transaction completes independently.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.sched.Stop()
		s.sub.Close()
	})
}
