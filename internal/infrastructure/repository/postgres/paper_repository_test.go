package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

func newMockRepo(t *testing.T) (*PaperRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPaperRepository(db), mock
}

func TestPaperRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	paper := &domain.Paper{
		ID:          "p-1",
		Title:       "Attention Is All You Need",
		Abstract:    "We propose the Transformer.",
		Authors:     []string{"Vaswani", "Shazeer"},
		Category:    "cs.CL",
		Year:        2017,
		Filename:    "attention.pdf",
		MimeType:    "application/pdf",
		StoragePath: "papers/p-1/attention.pdf",
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectExec(`INSERT INTO papers`).
		WithArgs(
			paper.ID, paper.Title, paper.Abstract, []byte(`["Vaswani","Shazeer"]`),
			paper.Category, paper.Year, paper.Filename, paper.MimeType, paper.StoragePath,
			"uploaded", "", paper.CreatedAt, paper.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), paper); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPaperRepositoryGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "abstract", "authors", "category", "year",
		"filename", "mime_type", "storage_path", "status", "error_message",
		"created_at", "updated_at",
	}).AddRow(
		"p-1", "Attention Is All You Need", "We propose the Transformer.",
		[]byte(`["Vaswani","Shazeer"]`), "cs.CL", 2017,
		"attention.pdf", "application/pdf", "papers/p-1/attention.pdf", "ready", "",
		now, now,
	)

	mock.ExpectQuery(`SELECT .+ FROM papers`).WithArgs("p-1").WillReturnRows(rows)

	paper, err := repo.GetByID(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if paper.Status != domain.StatusReady {
		t.Errorf("status = %q, want ready", paper.Status)
	}
	if len(paper.Authors) != 2 || paper.Authors[0] != "Vaswani" {
		t.Errorf("authors = %v", paper.Authors)
	}
}

func TestPaperRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .+ FROM papers`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrPaperNotFound) {
		t.Fatalf("err = %v, want ErrPaperNotFound", err)
	}
}

func TestPaperRepositoryUpdateStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE papers`).
		WithArgs("missing", "failed", "boom", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusFailed, "boom")
	if !errors.Is(err, domain.ErrPaperNotFound) {
		t.Fatalf("err = %v, want ErrPaperNotFound", err)
	}
}

func TestPaperRepositorySaveExtractedFields(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE papers`).
		WithArgs("p-1", "New Title", "New abstract", []byte(`["A","B"]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveExtractedFields(context.Background(), "p-1", "New Title", "New abstract", []string{"A", "B"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
}
