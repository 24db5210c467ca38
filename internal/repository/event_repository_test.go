package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMockEventRepo(t *testing.T) (EventRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewEventRepository(db, testLogger()), mock
}

// Both management toggles must refresh updated_at in the same statement
// that flips the flag, so a double toggle is visible in the audit column.
func TestEventRepository_SetVisible_BumpsUpdatedAt(t *testing.T) {
	repo, mock := newMockEventRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE events SET is_visible = $2, updated_at = now() WHERE id = $1`,
	)).WithArgs(int64(7), false).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetVisible(context.Background(), 7, false); err != nil {
		t.Fatalf("SetVisible: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEventRepository_SetRegistrationOpen_BumpsUpdatedAt(t *testing.T) {
	repo, mock := newMockEventRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE events SET registration_open = $2, updated_at = now() WHERE id = $1`,
	)).WithArgs(int64(7), true).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetRegistrationOpen(context.Background(), 7, true); err != nil {
		t.Fatalf("SetRegistrationOpen: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEventRepository_SetVisible_MissingEvent(t *testing.T) {
	repo, mock := newMockEventRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE events SET is_visible = $2, updated_at = now() WHERE id = $1`,
	)).WithArgs(int64(404), true).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetVisible(context.Background(), 404, true)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing event, got %v", err)
	}
}
