package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"plugfolio-deployer/internal/domain"
)

// ParameterRepository is a ParameterStore for local runs. Every
// overwrite bumps the parameter's version.
type ParameterRepository struct {
	db *sql.DB
}

func NewParameterRepository(db *sql.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

func (r *ParameterRepository) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM parameters WHERE name = ?`

	var value string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", domain.ErrParameterNotFound, key)
		}
		return "", fmt.Errorf("failed to get parameter %s: %w", key, err)
	}

	return value, nil
}

func (r *ParameterRepository) Put(ctx context.Context, key, value string, overwrite bool) error {
	query := `
	INSERT INTO parameters (name, value, version, updated_at) VALUES (?, ?, 1, ?)
	ON CONFLICT (name) DO NOTHING
	`
	if overwrite {
		query = `
		INSERT INTO parameters (name, value, version, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT (name) DO UPDATE SET
			value = excluded.value,
			version = parameters.version + 1,
			updated_at = excluded.updated_at
		`
	}

	result, err := r.db.ExecContext(ctx, query, key, value, domain.FormatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to put parameter %s: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrParameterExists, key)
	}

	return nil
}

// Version returns how many times key has been written.
func (r *ParameterRepository) Version(ctx context.Context, key string) (int64, error) {
	query := `SELECT version FROM parameters WHERE name = ?`

	var version int64
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrParameterNotFound, key)
		}
		return 0, err
	}

	return version, nil
}
