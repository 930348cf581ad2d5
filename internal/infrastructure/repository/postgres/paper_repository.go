package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/akuzminsky/paperrag/internal/core/domain"
)

type PaperRepository struct {
	db *sql.DB
}

func NewPaperRepository(db *sql.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *PaperRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS papers (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	abstract TEXT,
	authors JSONB NOT NULL DEFAULT '[]'::jsonb,
	category TEXT,
	year INT,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_papers_status ON papers(status);
CREATE INDEX IF NOT EXISTS idx_papers_created_at ON papers(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *PaperRepository) Create(ctx context.Context, paper *domain.Paper) error {
	authorsJSON, err := json.Marshal(paper.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO papers (
	id, title, abstract, authors, category, year, filename, mime_type, storage_path, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`,
		paper.ID, paper.Title, paper.Abstract, authorsJSON, paper.Category, paper.Year,
		paper.Filename, paper.MimeType, paper.StoragePath, string(paper.Status), paper.Error,
		paper.CreatedAt, paper.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

func (r *PaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, abstract, authors, category, year, filename, mime_type, storage_path, status, error_message, created_at, updated_at
FROM papers
WHERE id = $1
`, id)

	var paper domain.Paper
	var authorsRaw []byte
	var status string

	err := row.Scan(
		&paper.ID, &paper.Title, &paper.Abstract, &authorsRaw, &paper.Category, &paper.Year,
		&paper.Filename, &paper.MimeType, &paper.StoragePath, &status, &paper.Error,
		&paper.CreatedAt, &paper.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrPaperNotFound, "get paper", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan paper: %w", err)
	}

	if err := json.Unmarshal(authorsRaw, &paper.Authors); err != nil {
		return nil, fmt.Errorf("unmarshal authors: %w", err)
	}
	paper.Status = domain.PaperStatus(status)
	return &paper, nil
}

func (r *PaperRepository) UpdateStatus(ctx context.Context, id string, status domain.PaperStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE papers
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update paper status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrPaperNotFound, "update paper status", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *PaperRepository) SaveExtractedFields(ctx context.Context, id string, title, abstract string, authors []string) error {
	authorsJSON, err := json.Marshal(authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE papers
SET title = $2, abstract = $3, authors = $4, updated_at = $5
WHERE id = $1
`, id, title, abstract, authorsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extracted fields: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.WrapError(domain.ErrPaperNotFound, "save extracted fields", fmt.Errorf("id=%s", id))
	}
	return nil
}
