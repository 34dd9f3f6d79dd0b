package usage

import (
	"context"
	"database/sql"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, clientID string, policy Policy, now time.Time) (Usage, error) {
	return s.withRow(ctx, clientID, policy, now, func(tx *sql.Tx, u Usage) (Usage, error) {
		return u, nil
	})
}

func (s *pgStore) Consume(ctx context.Context, clientID string, n int, policy Policy, now time.Time) (Usage, error) {
	return s.withRow(ctx, clientID, policy, now, func(tx *sql.Tx, u Usage) (Usage, error) {
		if n <= 0 {
			return u, nil
		}
		if u.Used+n > u.Limit {
			return u, ErrLimitReached
		}
		u.Used += n
		if _, err := tx.ExecContext(ctx, `
UPDATE generation_usage SET used = $1 WHERE client_id = $2`, u.Used, clientID); err != nil {
			return Usage{}, err
		}
		return u, nil
	})
}

func (s *pgStore) Reset(ctx context.Context, clientID string, policy Policy, now time.Time) (Usage, error) {
	resetsAt := now.Add(policy.Window)
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO generation_usage (client_id, used, resets_at) VALUES ($1, 0, $2)
ON CONFLICT (client_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at`, clientID, resetsAt); err != nil {
		return Usage{}, err
	}
	return Usage{Limit: policy.Limit, Used: 0, ResetsAt: resetsAt}, nil
}

// withRow locks the client's row, rolling the window forward when it expired,
// and commits only if fn succeeds.
func (s *pgStore) withRow(ctx context.Context, clientID string, policy Policy, now time.Time, fn func(*sql.Tx, Usage) (Usage, error)) (u Usage, err error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
INSERT INTO generation_usage (client_id, used, resets_at) VALUES ($1, 0, $2)
ON CONFLICT (client_id) DO NOTHING`, clientID, now.Add(policy.Window)); err != nil {
		return Usage{}, err
	}

	row := tx.QueryRowContext(ctx, `
SELECT used, resets_at FROM generation_usage WHERE client_id = $1 FOR UPDATE`, clientID)
	if err = row.Scan(&u.Used, &u.ResetsAt); err != nil {
		return Usage{}, err
	}
	u.Limit = policy.Limit

	if !now.Before(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(policy.Window)
		if _, err = tx.ExecContext(ctx, `
UPDATE generation_usage SET used = 0, resets_at = $1 WHERE client_id = $2`, u.ResetsAt, clientID); err != nil {
			return Usage{}, err
		}
	}

	u, err = fn(tx, u)
	if err != nil {
		return u, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}
