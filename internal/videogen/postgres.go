package videogen

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/haasonsaas/syndicate/pkg/models"
)

// PostgresJobStore persists render jobs in Postgres.
type PostgresJobStore struct {
	db *sql.DB
}

// NewPostgresJobStore creates a job store over an existing database handle.
func NewPostgresJobStore(db *sql.DB) *PostgresJobStore {
	return &PostgresJobStore{db: db}
}

// NewPostgresJobStoreFromDSN opens a connection and returns a job store.
func NewPostgresJobStoreFromDSN(dsn string) (*PostgresJobStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("videogen: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &PostgresJobStore{db: db}, nil
}

const jobColumns = `job_id, workspace_id, provider_id, status, prompt, duration_seconds,
	test_render, estimated_cost, preview_url, output_url, thumbnail_url, storyboard,
	progress, error_message, error_code, action_label, action_link, action_name,
	created_at, updated_at`

// Create implements JobStore.
func (s *PostgresJobStore) Create(ctx context.Context, job *Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO render_jobs (`+jobColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		job.JobID, job.WorkspaceID, job.ProviderID, string(job.Status), job.Prompt, job.DurationSeconds,
		job.TestRender, job.EstimatedCost,
		nullString(job.PreviewURL), nullString(job.OutputURL), nullString(job.ThumbnailURL),
		pq.Array(job.Storyboard), nullInt(job.Progress),
		nullString(job.Error), nullString(job.ErrorCode),
		nullAction(job.NextAction, func(a *models.NextAction) string { return a.Label }),
		nullAction(job.NextAction, func(a *models.NextAction) string { return a.Link }),
		nullAction(job.NextAction, func(a *models.NextAction) string { return a.Action }),
		job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("videogen: insert job: %w", err)
	}
	return nil
}

// Get implements JobStore.
func (s *PostgresJobStore) Get(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM render_jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return job, err
}

// Update implements JobStore. The row is locked for the duration of the
// mutation so concurrent transitions serialize instead of clobbering.
func (s *PostgresJobStore) Update(ctx context.Context, jobID string, mutate func(*Job) error) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("videogen: begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM render_jobs WHERE job_id = $1 FOR UPDATE`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := mutate(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE render_jobs SET
			status = $2, preview_url = $3, output_url = $4, thumbnail_url = $5,
			storyboard = $6, progress = $7, error_message = $8, error_code = $9,
			action_label = $10, action_link = $11, action_name = $12, updated_at = $13
		WHERE job_id = $1`,
		job.JobID, string(job.Status),
		nullString(job.PreviewURL), nullString(job.OutputURL), nullString(job.ThumbnailURL),
		pq.Array(job.Storyboard), nullInt(job.Progress),
		nullString(job.Error), nullString(job.ErrorCode),
		nullAction(job.NextAction, func(a *models.NextAction) string { return a.Label }),
		nullAction(job.NextAction, func(a *models.NextAction) string { return a.Link }),
		nullAction(job.NextAction, func(a *models.NextAction) string { return a.Action }),
		job.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("videogen: update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("videogen: commit update: %w", err)
	}
	return job, nil
}

// List implements JobStore.
func (s *PostgresJobStore) List(ctx context.Context, workspaceID string) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM render_jobs
		WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("videogen: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// PruneTerminal implements JobStore.
func (s *PostgresJobStore) PruneTerminal(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM render_jobs
		WHERE status IN ('completed', 'failed', 'awaiting_provider', 'budget_exceeded')
		AND updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("videogen: prune jobs: %w", err)
	}
	n, err := result.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job        Job
		status     string
		preview    sql.NullString
		output     sql.NullString
		thumbnail  sql.NullString
		storyboard pq.StringArray
		progress   sql.NullInt64
		errMsg     sql.NullString
		errCode    sql.NullString
		label      sql.NullString
		link       sql.NullString
		action     sql.NullString
	)
	err := row.Scan(
		&job.JobID, &job.WorkspaceID, &job.ProviderID, &status, &job.Prompt, &job.DurationSeconds,
		&job.TestRender, &job.EstimatedCost, &preview, &output, &thumbnail, &storyboard,
		&progress, &errMsg, &errCode, &label, &link, &action,
		&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	job.Status = models.RenderStatus(status)
	job.PreviewURL = preview.String
	job.OutputURL = output.String
	job.ThumbnailURL = thumbnail.String
	job.Storyboard = storyboard
	if progress.Valid {
		p := int(progress.Int64)
		job.Progress = &p
	}
	job.Error = errMsg.String
	job.ErrorCode = errCode.String
	if label.Valid || link.Valid || action.Valid {
		job.NextAction = &models.NextAction{
			Label:  label.String,
			Link:   link.String,
			Action: action.String,
		}
	}
	return &job, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullAction(a *models.NextAction, field func(*models.NextAction) string) any {
	if a == nil {
		return nil
	}
	return nullString(field(a))
}
