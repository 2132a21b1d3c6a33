package featureflags

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
)

// Schema creates the settings table.
const Schema = `
	CREATE TABLE IF NOT EXISTS view_settings (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

const upsertFlag = `
	INSERT INTO view_settings (key, value, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		updated_at = EXCLUDED.updated_at
`

// PostgresRepository persists flags in PostgreSQL so settings survive restarts.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewPostgresRepository creates a PostgreSQL settings repository.
func NewPostgresRepository(pool *pgxpool.Pool, clock clockwork.Clock) *PostgresRepository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PostgresRepository{pool: pool, clock: clock}
}

// EnsureSchema creates the settings table if it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("creating view_settings: %w", err)
	}
	return nil
}

// GetFlag retrieves a single flag by key.
func (r *PostgresRepository) GetFlag(ctx context.Context, key string) (*Flag, error) {
	var (
		flag      Flag
		valueJSON []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT key, value, updated_at FROM view_settings WHERE key = $1`, key,
	).Scan(&flag.Key, &valueJSON, &flag.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFlagNotFound
		}
		return nil, fmt.Errorf("querying flag %s: %w", key, err)
	}

	if err := json.Unmarshal(valueJSON, &flag.Value); err != nil {
		return nil, fmt.Errorf("decoding flag %s: %w", key, err)
	}
	return &flag, nil
}

// GetAllFlags retrieves all flags.
func (r *PostgresRepository) GetAllFlags(ctx context.Context) (map[string]*Flag, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, updated_at FROM view_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]*Flag)
	for rows.Next() {
		var (
			flag      Flag
			valueJSON []byte
		)
		if err := rows.Scan(&flag.Key, &valueJSON, &flag.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning flag: %w", err)
		}
		if err := json.Unmarshal(valueJSON, &flag.Value); err != nil {
			return nil, fmt.Errorf("decoding flag %s: %w", flag.Key, err)
		}
		flags[flag.Key] = &flag
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating flags: %w", err)
	}
	return flags, nil
}

// SetFlag creates or updates a flag.
func (r *PostgresRepository) SetFlag(ctx context.Context, flag *Flag) error {
	valueJSON, err := json.Marshal(flag.Value)
	if err != nil {
		return fmt.Errorf("encoding flag %s: %w", flag.Key, err)
	}
	if _, err := r.pool.Exec(ctx, upsertFlag, flag.Key, valueJSON, r.clock.Now()); err != nil {
		return fmt.Errorf("saving flag %s: %w", flag.Key, err)
	}
	return nil
}

// SetFlags creates or updates several flags in one transaction.
func (r *PostgresRepository) SetFlags(ctx context.Context, flags []*Flag) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	now := r.clock.Now()
	for _, flag := range flags {
		valueJSON, err := json.Marshal(flag.Value)
		if err != nil {
			return fmt.Errorf("encoding flag %s: %w", flag.Key, err)
		}
		if _, err := tx.Exec(ctx, upsertFlag, flag.Key, valueJSON, now); err != nil {
			return fmt.Errorf("saving flag %s: %w", flag.Key, err)
		}
	}
	return tx.Commit(ctx)
}

// DeleteFlag removes a flag by key.
func (r *PostgresRepository) DeleteFlag(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM view_settings WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("deleting flag %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
