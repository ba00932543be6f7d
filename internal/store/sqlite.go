package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"devtycoon/internal/econ"
)

// SQLite is the single-node backend for local play. Commits carry the same
// version-conflict semantics as postgres; change delivery is in-process,
// which is enough when every session lives in one server.
type SQLite struct {
	db *sql.DB
	bc broadcaster
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// modernc sqlite serializes writes; one connection avoids busy errors.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			player_id    TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			doc          TEXT NOT NULL,
			version      INTEGER NOT NULL DEFAULT 1,
			updated_at   INTEGER NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, playerID string) (Snapshot, error) {
	var doc string
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT doc, version FROM players WHERE player_id = ?
	`, playerID).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var st econ.State
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return Snapshot{}, fmt.Errorf("decode player doc: %w", err)
	}
	return Snapshot{State: st, Version: version}, nil
}

func (s *SQLite) Commit(ctx context.Context, playerID string, next econ.State, expectedVersion int64) error {
	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode player doc: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE players
		SET doc = ?, version = version + 1, updated_at = ?
		WHERE player_id = ? AND version = ?
	`, string(doc), time.Now().UnixMilli(), playerID, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `
			SELECT 1 FROM players WHERE player_id = ?
		`, playerID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrConflict
	}
	s.bc.publish(playerID, next)
	return nil
}

func (s *SQLite) Provision(ctx context.Context, playerID, displayName string, initial econ.State) error {
	doc, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("encode player doc: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (player_id, display_name, doc, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id) DO NOTHING
	`, playerID, displayName, string(doc), time.Now().UnixMilli())
	return err
}

func (s *SQLite) Watch(ctx context.Context, playerID string) (*Subscription, error) {
	snap, err := s.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}
	sub := s.bc.subscribe(ctx, playerID)
	sub.ch <- snap.State
	return sub, nil
}

func (s *SQLite) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT display_name, CAST(json_extract(doc, '$.money') AS INTEGER) AS money
		FROM players
		ORDER BY money DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardRow
	var rank int64 = 1
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Name, &r.Money); err != nil {
			return nil, err
		}
		r.Rank = rank
		rank++
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() {
	_ = s.db.Close()
}
