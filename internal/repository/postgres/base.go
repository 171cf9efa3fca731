package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/clinic-api/internal/repository"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// wrap maps driver errors onto repository sentinels and adds context.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// mustAffect turns a zero-row update into ErrNotFound.
func mustAffect(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}
