package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"assetd/pkg/platform/sentinel"
	txcontext "assetd/pkg/platform/tx"
)

// registryLockID is the advisory lock key serializing registry commits
// across every process sharing the database.
const registryLockID int64 = 0x61737365746400

const createRegistryTable = `
	CREATE TABLE IF NOT EXISTS registry_kv (
		key   BYTEA PRIMARY KEY,
		value BYTEA NOT NULL
	)`

// PostgresBackend persists registry keys in a single PostgreSQL table.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend constructs a backend over an open database handle.
// Call Migrate once before first use.
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Migrate creates the registry table if it does not exist.
func (p *PostgresBackend) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createRegistryTable); err != nil {
		return fmt.Errorf("create registry_kv: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := txcontext.Exec(ctx, p.db).
		QueryRowContext(ctx, `SELECT value FROM registry_kv WHERE key = $1`, key).
		Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select registry key: %w", err)
	}
	return value, nil
}

// Apply takes the registry advisory lock, verifies the read set and upserts
// every write inside one SQL transaction.
func (p *PostgresBackend) Apply(ctx context.Context, batch *Batch) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	ctx = txcontext.WithTx(ctx, tx)

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registryLockID); err != nil {
		return fmt.Errorf("acquire registry lock: %w", err)
	}
	if err := p.checkReads(ctx, batch); err != nil {
		return err
	}
	for _, w := range batch.Writes {
		if err := p.upsert(ctx, w); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry tx: %w", err)
	}
	return nil
}

func (p *PostgresBackend) checkReads(ctx context.Context, batch *Batch) error {
	reads := batch.Reads
	if len(reads) == 0 {
		return nil
	}
	rows, err := txcontext.Exec(ctx, p.db).QueryContext(ctx,
		`SELECT key, value FROM registry_kv WHERE key = ANY($1)`, pq.ByteaArray(batch.ReadKeys()))
	if err != nil {
		return fmt.Errorf("select read set: %w", err)
	}
	defer rows.Close()

	current := make(map[string][]byte, len(reads))
	for rows.Next() {
		var k, v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scan read set: %w", err)
		}
		current[string(k)] = v
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate read set: %w", err)
	}

	for _, r := range reads {
		v, ok := current[string(r.Key)]
		if !r.Matches(v, ok) {
			return sentinel.ErrConflict
		}
	}
	return nil
}

func (p *PostgresBackend) upsert(ctx context.Context, w Write) error {
	_, err := txcontext.Exec(ctx, p.db).ExecContext(ctx, `
		INSERT INTO registry_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		w.Key, w.Value)
	if err != nil {
		return fmt.Errorf("upsert registry key: %w", err)
	}
	return nil
}

// Close is a no-op; the *sql.DB lifecycle is managed by the caller.
func (p *PostgresBackend) Close() error { return nil }
