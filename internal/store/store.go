// Package store persists the per-player economic record. Every backend
// offers the same contract: atomic read-modify-write with version-based
// conflict detection on a single record, plus a change subscription per
// record. The engine never creates or deletes records; Provision exists for
// the account surface only.
package store

import (
	"context"
	"errors"

	"devtycoon/internal/econ"
)

var (
	// ErrNotFound means no record exists for the player identifier.
	ErrNotFound = errors.New("player record not found")
	// ErrConflict means a concurrent commit raced this one; the caller is
	// expected to re-read and retry.
	ErrConflict = errors.New("write conflict")
)

// DefaultLeaderboardSize caps the ranking view.
const DefaultLeaderboardSize = 20

// Snapshot is one committed version of a player record.
type Snapshot struct {
	State   econ.State
	Version int64
}

// LeaderboardRow is the read-only ranking summary for one player.
type LeaderboardRow struct {
	Rank  int64  `json:"rank"`
	Name  string `json:"name"`
	Money int64  `json:"money"`
}

type Store interface {
	// Get returns the current committed snapshot for a player.
	Get(ctx context.Context, playerID string) (Snapshot, error)
	// Commit writes next if the record is still at expectedVersion.
	// Returns ErrConflict when another commit won the race and
	// ErrNotFound when the record does not exist.
	Commit(ctx context.Context, playerID string, next econ.State, expectedVersion int64) error
	// Provision creates the record if it does not exist yet. Creating an
	// already-provisioned player is a no-op.
	Provision(ctx context.Context, playerID, displayName string, initial econ.State) error
	// Watch streams committed snapshots for one player, starting with the
	// current one. The subscription detaches when ctx is cancelled or
	// Close is called.
	Watch(ctx context.Context, playerID string) (*Subscription, error)
	// Leaderboard returns the top players by money, descending.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
	Close()
}
