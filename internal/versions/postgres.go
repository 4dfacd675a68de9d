package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore enforces the single-final-version invariant with a
// transaction: demote every version of the content item, promote the target,
// and commit only if the target existed.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a version store over an existing database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add records a new version.
func (s *PostgresStore) Add(ctx context.Context, v *Version) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_versions (id, content_id, label, is_final, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.ContentID, v.Label, v.Final, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("versions: insert version: %w", err)
	}
	return nil
}

// MarkFinal implements Finalizer.
func (s *PostgresStore) MarkFinal(ctx context.Context, contentID, versionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("versions: begin mark final: %w", err)
	}
	defer tx.Rollback()

	// The demote deliberately touches every row of the content item, not just
	// the currently-final ones: the row locks it takes are what serialize two
	// racing MarkFinal transactions. Filtering on is_final = TRUE would let
	// two callers starting from zero finals lock nothing, promote different
	// versions, and both commit.
	if _, err := tx.ExecContext(ctx, `
		UPDATE content_versions SET is_final = FALSE
		WHERE content_id = $1`, contentID); err != nil {
		return fmt.Errorf("versions: demote finals: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE content_versions SET is_final = TRUE
		WHERE content_id = $1 AND id = $2`, contentID, versionID)
	if err != nil {
		return fmt.Errorf("versions: promote version: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("versions: promote version: %w", err)
	}
	if affected != 1 {
		return ErrVersionNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("versions: commit mark final: %w", err)
	}
	return nil
}

// List returns all versions of a content item, oldest first.
func (s *PostgresStore) List(ctx context.Context, contentID string) ([]*Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content_id, label, is_final, created_at
		FROM content_versions WHERE content_id = $1 ORDER BY created_at`, contentID)
	if err != nil {
		return nil, fmt.Errorf("versions: list: %w", err)
	}
	defer rows.Close()

	var out []*Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.ContentID, &v.Label, &v.Final, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("versions: scan version: %w", err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("versions: list: %w", err)
	}
	return out, nil
}

// FinalVersion implements Finalizer.
func (s *PostgresStore) FinalVersion(ctx context.Context, contentID string) (*Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content_id, label, is_final, created_at
		FROM content_versions WHERE content_id = $1 AND is_final = TRUE`, contentID)
	var v Version
	err := row.Scan(&v.ID, &v.ContentID, &v.Label, &v.Final, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("versions: query final: %w", err)
	}
	return &v, nil
}
