package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"devtycoon/internal/econ"
)

// DefaultTickEvery matches the reference balance: passive income lands
// every five seconds of active play.
const DefaultTickEvery = 5 * time.Second

// Scheduler submits the passive-income tick for one player on a fixed
// interval. Ticks run one at a time on the scheduler's own goroutine;
// firings that land while a tick transaction is still pending are dropped.
// Each active session runs its own scheduler against the shared record, so
// two sessions for one player double-apply passive income. Known limit of
// the design, deliberately left unsolved.
type Scheduler struct {
	runner   *Runner
	playerID string
	interval time.Duration
	log      *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewScheduler(runner *Runner, playerID string, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickEvery
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		playerID: playerID,
		interval: interval,
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. Subsequent calls are no-ops.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		go s.run(loopCtx)
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	// Stop cancels the loop but must not abort a transaction already in
	// flight, so the apply runs on a detached, bounded context.
	applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	_, err := s.runner.Apply(applyCtx, s.playerID, econ.Command{Kind: econ.KindTick})
	if err != nil {
		if errors.Is(err, ErrTxConflict) {
			s.log.Warn("tick lost every retry, skipping", "player_id", s.playerID)
			return
		}
		s.log.Error("tick failed", "player_id", s.playerID, "err", err)
		return
	}
	metrics().ticks.Inc()
}

// Stop prevents further firings and waits for the loop to exit. A tick
// transaction already in flight completes on its own.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		// Consume the start slot so a Stop-then-Start sequence stays stopped.
		s.startOnce.Do(func() { close(s.done) })
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
}
