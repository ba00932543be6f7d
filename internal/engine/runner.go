// Package engine is the transactional mutation engine: the optimistic
// commit loop, the per-session tick scheduler and the session lifecycle
// that ties them together. It is the only writer of player state.
package engine

import (
	"context"
	"errors"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"devtycoon/internal/econ"
	"devtycoon/internal/store"
)

// ErrTxConflict surfaces when a transaction kept losing write races until
// the retry budget ran out. Transient; the caller may simply try again.
var ErrTxConflict = errors.New("transaction conflict: retries exhausted")

type Config struct {
	MaxAttempts   int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	MoneyDeltaCap int64
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:   8,
		RetryDelay:    75 * time.Millisecond,
		MaxRetryDelay: 1200 * time.Millisecond,
		MoneyDeltaCap: econ.MoneyDeltaCap,
	}
}

// Result is the committed outcome of one transaction.
type Result struct {
	Outcome econ.Outcome
	State   econ.State
}

// Runner executes commands against the store: read snapshot, apply the
// command to an isolated copy, clamp the money delta, stamp the write time,
// commit. A conflicting commit restarts the whole step against a fresh
// snapshot, which is why commands must be pure values.
type Runner struct {
	store store.Store
	log   *slog.Logger
	cfg   Config
	now   func() time.Time

	mu   sync.Mutex
	rand *mathrand.Rand
}

func NewRunner(st store.Store, logger *slog.Logger, cfg Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return &Runner{
		store: st,
		log:   logger,
		cfg:   cfg,
		now:   time.Now,
		rand:  mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Runner) Apply(ctx context.Context, playerID string, cmd econ.Command) (Result, error) {
	var res Result
	retryDelay := r.cfg.RetryDelay
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		snap, err := r.store.Get(ctx, playerID)
		if err != nil {
			return res, err
		}

		next := snap.State.Clone()
		r.mu.Lock()
		out := econ.Apply(&next, cmd, r.rand)
		r.mu.Unlock()

		// The clamp baseline is the snapshot read by this attempt; a
		// retried transaction reclamps against its own fresh read.
		next.Money = econ.ClampMoneyDelta(snap.State.Money, next.Money, r.cfg.MoneyDeltaCap)
		// Stamped even when the command was rejected.
		next.LastWriteTime = r.now()

		err = r.store.Commit(ctx, playerID, next, snap.Version)
		if err == nil {
			metrics().commits.Inc()
			if !out.Applied {
				metrics().rejected.Inc()
			}
			res.Outcome = out
			res.State = next
			return res, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return res, err
		}
		metrics().conflicts.Inc()
		r.log.Debug("commit conflict, retrying", "player_id", playerID, "command", cmd.Kind, "attempt", attempt+1)
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return res, err
		}
		if retryDelay < r.cfg.MaxRetryDelay {
			retryDelay *= 2
		}
	}
	metrics().retriesExhausted.Inc()
	return res, ErrTxConflict
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
