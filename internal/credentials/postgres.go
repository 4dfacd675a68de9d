package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/haasonsaas/syndicate/pkg/models"
)

// PostgresConfig holds connection pool settings for the Postgres-backed store.
type PostgresConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPostgresConfig returns default pool settings.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// PostgresStore implements Store using Postgres. Put is an upsert keyed by
// (provider_id, workspace_id) so concurrent refreshes cannot lose updates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStoreFromDSN opens a Postgres-backed credential store.
func NewPostgresStoreFromDSN(dsn string, config *PostgresConfig) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	if config == nil {
		config = DefaultPostgresConfig()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an existing database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the stored record, or nil when absent.
func (s *PostgresStore) Get(ctx context.Context, providerID, workspaceID string) (*models.CredentialRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, secret_key, access_token, refresh_token, expires_at
		FROM workspace_credentials
		WHERE provider_id = $1 AND workspace_id = $2
	`, providerID, workspaceID)

	var (
		record       models.CredentialRecord
		kind         string
		secretKey    sql.NullString
		accessToken  sql.NullString
		refreshToken sql.NullString
		expiresAt    sql.NullTime
	)
	err := row.Scan(&kind, &secretKey, &accessToken, &refreshToken, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	record.Kind = models.CredentialKind(kind)
	record.Key = secretKey.String
	record.AccessToken = accessToken.String
	record.RefreshToken = refreshToken.String
	if expiresAt.Valid {
		expiry := expiresAt.Time
		record.ExpiresAt = &expiry
	}
	return &record, nil
}

// Put upserts the record for (provider, workspace) in a single statement.
func (s *PostgresStore) Put(ctx context.Context, providerID, workspaceID string, record *models.CredentialRecord) error {
	if record == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workspace_credentials
			(provider_id, workspace_id, kind, secret_key, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
		ON CONFLICT (provider_id, workspace_id) DO UPDATE
		SET kind = EXCLUDED.kind,
			secret_key = EXCLUDED.secret_key,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()
	`,
		providerID,
		workspaceID,
		string(record.Kind),
		nullableString(record.Key),
		nullableString(record.AccessToken),
		nullableString(record.RefreshToken),
		nullExpiry(record.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

// Delete removes the record for (provider, workspace).
func (s *PostgresStore) Delete(ctx context.Context, providerID, workspaceID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM workspace_credentials
		WHERE provider_id = $1 AND workspace_id = $2
	`, providerID, workspaceID)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullExpiry(value *time.Time) sql.NullTime {
	if value == nil || value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
