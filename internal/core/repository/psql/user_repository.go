// Package psql implements the user document gateway over PostgreSQL.
// PostgreSQL serves as a document store here: the users table holds one
// JSONB document per user keyed by its numeric id, with posts and comments
// embedded — there are no separate post or comment tables.
package psql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nhudang/user-aggregator/internal/core/domain"
)

// UserRepository implements domain.UserRepository using pgx/v5.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates the repository over an injected connection pool.
// The pool is owned by the caller and stays open for the process lifetime.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert replaces or inserts the document under id. Idempotent: repeated
// upserts for the same id leave exactly one row reflecting the last write.
func (r *UserRepository) Upsert(ctx context.Context, id int64, doc []byte) error {
	query := `INSERT INTO users (id, doc) VALUES ($1, $2)
	          ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`
	if _, err := r.pool.Exec(ctx, query, id, doc); err != nil {
		return domain.StorageError("upsert user", err)
	}
	return nil
}

// Create inserts the document under id, failing with a conflict error when
// the id is already stored. The existence check and the insert are separate
// statements — not an atomic unique-constraint insert — so two concurrent
// creates with the same id can race. Kept as-is: the race window is part of
// the documented contract.
func (r *UserRepository) Create(ctx context.Context, id int64, doc []byte) ([]byte, error) {
	var exists int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, id).Scan(&exists)
	if err == nil {
		return nil, domain.ConflictError(id)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.StorageError("check existing user", err)
	}

	var stored []byte
	query := `INSERT INTO users (id, doc) VALUES ($1, $2) RETURNING doc`
	if err := r.pool.QueryRow(ctx, query, id, doc).Scan(&stored); err != nil {
		return nil, domain.StorageError("insert user", err)
	}
	return stored, nil
}

// GetByID returns the stored document for id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) ([]byte, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM users WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError(id)
		}
		return nil, domain.StorageError("query user", err)
	}
	return doc, nil
}

// DeleteByID removes the document for id, failing when nothing was deleted.
func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError(id)
	}
	return nil
}

// DeleteAll removes every document. Succeeds on an empty table.
func (r *UserRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users`); err != nil {
		return domain.StorageError("delete all users", err)
	}
	return nil
}
