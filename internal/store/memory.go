package store

import (
	"context"
	"sort"
	"sync"

	"devtycoon/internal/econ"
)

// Memory is the in-process backend. It backs the engine test suite and the
// API's ephemeral dev mode; semantics mirror the durable backends,
// including version conflicts.
type Memory struct {
	mu      sync.Mutex
	players map[string]*memoryRecord
	bc      broadcaster
}

type memoryRecord struct {
	name    string
	state   econ.State
	version int64
}

func NewMemory() *Memory {
	return &Memory{players: make(map[string]*memoryRecord)}
}

func (m *Memory) Get(_ context.Context, playerID string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.players[playerID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{State: rec.state.Clone(), Version: rec.version}, nil
}

func (m *Memory) Commit(_ context.Context, playerID string, next econ.State, expectedVersion int64) error {
	m.mu.Lock()
	rec, ok := m.players[playerID]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if rec.version != expectedVersion {
		m.mu.Unlock()
		return ErrConflict
	}
	rec.state = next.Clone()
	rec.version++
	committed := rec.state
	m.mu.Unlock()

	m.bc.publish(playerID, committed)
	return nil
}

func (m *Memory) Provision(_ context.Context, playerID, displayName string, initial econ.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[playerID]; ok {
		return nil
	}
	m.players[playerID] = &memoryRecord{
		name:    displayName,
		state:   initial.Clone(),
		version: 1,
	}
	return nil
}

func (m *Memory) Watch(ctx context.Context, playerID string) (*Subscription, error) {
	m.mu.Lock()
	rec, ok := m.players[playerID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	current := rec.state.Clone()
	m.mu.Unlock()

	sub := m.bc.subscribe(ctx, playerID)
	sub.ch <- current
	return sub, nil
}

func (m *Memory) Leaderboard(_ context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	m.mu.Lock()
	rows := make([]LeaderboardRow, 0, len(m.players))
	for _, rec := range m.players {
		rows = append(rows, LeaderboardRow{Name: rec.name, Money: rec.state.Money})
	}
	m.mu.Unlock()

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Money > rows[j].Money })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = int64(i + 1)
	}
	return rows, nil
}

func (m *Memory) Close() {}
