package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"devtycoon/internal/econ"
)

// commitChannel carries the player id of every committed record so LISTEN
// loops can re-read just that record.
const commitChannel = "devtycoon_commits"

// Postgres is the shared multi-session backend. One jsonb document per
// player; optimistic commits guarded by a version column; realtime change
// delivery over LISTEN/NOTIFY.
type Postgres struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func OpenPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool, log: logger}, nil
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			player_id    text PRIMARY KEY,
			display_name text NOT NULL,
			doc          jsonb NOT NULL,
			version      bigint NOT NULL DEFAULT 1,
			updated_at   timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS players_money_idx
		ON players (((doc->>'money')::bigint) DESC)
	`)
	return err
}

func (p *Postgres) Get(ctx context.Context, playerID string) (Snapshot, error) {
	var doc []byte
	var version int64
	err := p.pool.QueryRow(ctx, `
		SELECT doc, version
		FROM players
		WHERE player_id = $1
	`, playerID).Scan(&doc, &version)
	if err == pgx.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var st econ.State
	if err := json.Unmarshal(doc, &st); err != nil {
		return Snapshot{}, fmt.Errorf("decode player doc: %w", err)
	}
	return Snapshot{State: st, Version: version}, nil
}

func (p *Postgres) Commit(ctx context.Context, playerID string, next econ.State, expectedVersion int64) error {
	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode player doc: %w", err)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		UPDATE players
		SET doc = $1, version = version + 1, updated_at = now()
		WHERE player_id = $2 AND version = $3
	`, doc, playerID, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM players WHERE player_id = $1)
		`, playerID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, commitChannel, playerID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Provision(ctx context.Context, playerID, displayName string, initial econ.State) error {
	doc, err := json.Marshal(initial)
	if err != nil {
		return fmt.Errorf("encode player doc: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO players (player_id, display_name, doc)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO NOTHING
	`, playerID, displayName, doc)
	return err
}

func (p *Postgres) Watch(ctx context.Context, playerID string) (*Subscription, error) {
	snap, err := p.Get(ctx, playerID)
	if err != nil {
		return nil, err
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+commitChannel); err != nil {
		conn.Release()
		return nil, err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{ch: make(chan econ.State, 8), detach: cancel}
	sub.ch <- snap.State

	go func() {
		defer close(sub.ch)
		defer func() {
			// A connection left in LISTEN state must not go back into
			// rotation.
			_ = conn.Conn().Close(context.Background())
			conn.Release()
		}()
		for {
			n, err := conn.Conn().WaitForNotification(watchCtx)
			if err != nil {
				if watchCtx.Err() == nil {
					p.log.Error("watch listen failed", "player_id", playerID, "err", err)
				}
				return
			}
			if n.Payload != playerID {
				continue
			}
			fresh, err := p.Get(watchCtx, playerID)
			if err != nil {
				if watchCtx.Err() == nil {
					p.log.Error("watch reread failed", "player_id", playerID, "err", err)
				}
				return
			}
			select {
			case sub.ch <- fresh.State:
			default:
			}
		}
	}()
	return sub, nil
}

func (p *Postgres) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	rows, err := p.pool.Query(ctx, `
		SELECT display_name, (doc->>'money')::bigint AS money
		FROM players
		ORDER BY money DESC
		LIMIT $1
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

func (p *Postgres) Close() {
	p.pool.Close()
}
