package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ghuser/supplytrack/pkg/database"
	"github.com/ghuser/supplytrack/services/item/infrastructure/persistence/snapshot"
)

// snapshotRowID is the primary key of the single row holding the snapshot.
const snapshotRowID = 1

const (
	loadSnapshotSQL = `SELECT payload FROM item_snapshots WHERE id = $1`

	upsertSnapshotSQL = `INSERT INTO item_snapshots (id, payload, size_bytes, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE
SET payload = EXCLUDED.payload, size_bytes = EXCLUDED.size_bytes, updated_at = EXCLUDED.updated_at`
)

var _ snapshot.Backend = (*SnapshotBackend)(nil)

// SnapshotBackend keeps the item snapshot in one row of item_snapshots.
// The table is created by the goose migrations in migrations/item.
type SnapshotBackend struct {
	db *database.Database
}

// NewSnapshotBackend returns a SnapshotBackend using db.
func NewSnapshotBackend(db *database.Database) *SnapshotBackend {
	return &SnapshotBackend{db: db}
}

func (b *SnapshotBackend) Driver() string { return "postgres" }

// Load returns the stored payload or snapshot.ErrSnapshotNotFound when the
// row has not been written yet.
func (b *SnapshotBackend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.db.DB().QueryRowContext(ctx, loadSnapshotSQL, snapshotRowID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, snapshot.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return payload, nil
}

// Save replaces the stored payload with data.
func (b *SnapshotBackend) Save(ctx context.Context, data []byte) error {
	return b.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertSnapshotSQL, snapshotRowID, string(data), len(data)); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		return nil
	})
}

func (b *SnapshotBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}
