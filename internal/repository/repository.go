// Package repository persists generation history: one row per pipeline run.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lavrova/rfpdesk/internal/common"
	"github.com/lavrova/rfpdesk/internal/database"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Generation struct {
	ID               uuid.UUID  `json:"id"`
	UserID           *string    `json:"user_id,omitempty"`
	OriginalFilename string     `json:"original_filename"`
	SourceKind       string     `json:"source_kind"`
	ContentType      string     `json:"content_type,omitempty"`
	FileSize         int64      `json:"file_size,omitempty"`
	Status           string     `json:"status"`
	DriveFileID      *string    `json:"drive_file_id,omitempty"`
	DriveLink        *string    `json:"drive_link,omitempty"`
	Error            *string    `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type Repository struct {
	db *database.DB
}

func New(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *database.DB {
	return r.db
}

func (r *Repository) CreateGeneration(ctx context.Context, g *Generation) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Status == "" {
		g.Status = StatusPending
	}

	query := `
		INSERT INTO generations (id, user_id, original_filename, source_kind, content_type, file_size, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Pool().Exec(ctx, query,
		g.ID, g.UserID, g.OriginalFilename, g.SourceKind, g.ContentType, g.FileSize, g.Status)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

func (r *Repository) UpdateGenerationStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE generations SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Pool().Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update generation status: %w", err)
	}
	return nil
}

func (r *Repository) MarkGenerationCompleted(ctx context.Context, id uuid.UUID, driveFileID, driveLink string) error {
	query := `
		UPDATE generations
		SET status = $1, drive_file_id = $2, drive_link = $3, error = NULL,
		    completed_at = NOW(), updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Pool().Exec(ctx, query, StatusCompleted, driveFileID, driveLink, id)
	if err != nil {
		return fmt.Errorf("mark generation completed: %w", err)
	}
	return nil
}

func (r *Repository) MarkGenerationFailed(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE generations
		SET status = $1, error = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.Pool().Exec(ctx, query, StatusFailed, reason, id)
	if err != nil {
		return fmt.Errorf("mark generation failed: %w", err)
	}
	return nil
}

func (r *Repository) GetGeneration(ctx context.Context, id uuid.UUID) (*Generation, error) {
	query := `
		SELECT id, user_id, original_filename, source_kind, content_type, file_size,
		       status, drive_file_id, drive_link, error, created_at, updated_at, completed_at
		FROM generations WHERE id = $1
	`
	g := &Generation{}
	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&g.ID, &g.UserID, &g.OriginalFilename, &g.SourceKind, &g.ContentType, &g.FileSize,
		&g.Status, &g.DriveFileID, &g.DriveLink, &g.Error, &g.CreatedAt, &g.UpdatedAt, &g.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get generation: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGenerations(ctx context.Context, userID *string, limit int) ([]Generation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT id, user_id, original_filename, source_kind, content_type, file_size,
		       status, drive_file_id, drive_link, error, created_at, updated_at, completed_at
		FROM generations
		WHERE ($1::text IS NULL OR user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool().Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []Generation
	for rows.Next() {
		var g Generation
		if err := rows.Scan(
			&g.ID, &g.UserID, &g.OriginalFilename, &g.SourceKind, &g.ContentType, &g.FileSize,
			&g.Status, &g.DriveFileID, &g.DriveLink, &g.Error, &g.CreatedAt, &g.UpdatedAt, &g.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
