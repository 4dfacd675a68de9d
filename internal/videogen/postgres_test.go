package videogen

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/haasonsaas/syndicate/pkg/models"
)

func TestPostgresJobStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO render_jobs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	store := NewPostgresJobStore(db)
	err = store.Create(context.Background(), &Job{
		RenderResult: models.RenderResult{
			JobID:      "job-1",
			ProviderID: "runway",
			Status:     models.RenderQueued,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		WorkspaceID:     "ws1",
		Prompt:          "a sunrise",
		DurationSeconds: 10,
		EstimatedCost:   7.50,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresJobStore_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM render_jobs WHERE job_id`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}))

	store := NewPostgresJobStore(db)
	_, err = store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestPostgresJobStore_PruneTerminal(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectExec(`DELETE FROM render_jobs`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := NewPostgresJobStore(db)
	pruned, err := store.PruneTerminal(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("PruneTerminal() error = %v", err)
	}
	if pruned != 3 {
		t.Errorf("pruned = %d, want 3", pruned)
	}
}
