package credentials

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/haasonsaas/syndicate/pkg/models"
)

func TestPostgresStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	expiry := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT kind, secret_key, access_token, refresh_token, expires_at`).
		WithArgs("youtube", "ws1").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "secret_key", "access_token", "refresh_token", "expires_at"}).
			AddRow("oauth", nil, "token", "refresh", expiry))

	store := NewPostgresStore(db)
	record, err := store.Get(context.Background(), "youtube", "ws1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.Kind != models.CredentialOAuth || record.AccessToken != "token" {
		t.Errorf("record = %+v", record)
	}
	if record.ExpiresAt == nil || !record.ExpiresAt.Equal(expiry) {
		t.Errorf("expiry = %v, want %v", record.ExpiresAt, expiry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStore_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT kind, secret_key, access_token, refresh_token, expires_at`).
		WithArgs("youtube", "ws1").
		WillReturnRows(sqlmock.NewRows([]string{"kind", "secret_key", "access_token", "refresh_token", "expires_at"}))

	store := NewPostgresStore(db)
	record, err := store.Get(context.Background(), "youtube", "ws1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record != nil {
		t.Errorf("expected nil record, got %+v", record)
	}
}

func TestPostgresStore_PutUpserts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO workspace_credentials`).
		WithArgs("youtube", "ws1", "oauth", nil, "token", "refresh", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	expiry := time.Now().Add(time.Hour)
	store := NewPostgresStore(db)
	err = store.Put(context.Background(), "youtube", "ws1", &models.CredentialRecord{
		Kind:         models.CredentialOAuth,
		AccessToken:  "token",
		RefreshToken: "refresh",
		ExpiresAt:    &expiry,
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM workspace_credentials`).
		WithArgs("youtube", "ws1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresStore(db)
	if err := store.Delete(context.Background(), "youtube", "ws1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
