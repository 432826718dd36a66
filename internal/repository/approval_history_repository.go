package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/geoviet/surveyid-api/internal/models"
)

// ApprovalHistoryRepository appends and reads the workflow audit trail.
// History rows are append-only; no update or delete paths exist.
type ApprovalHistoryRepository struct {
	db *sqlx.DB
}

// NewApprovalHistoryRepository constructs the repository.
func NewApprovalHistoryRepository(db *sqlx.DB) *ApprovalHistoryRepository {
	return &ApprovalHistoryRepository{db: db}
}

// Append inserts one history entry for a completed transition.
func (r *ApprovalHistoryRepository) Append(ctx context.Context, entry *models.ApprovalHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_history
	(id, survey_location_id, action, actor_id, actor_role, previous_status, new_status, notes, metadata, created_at)
	VALUES (:id, :survey_location_id, :action, :actor_id, :actor_role, :previous_status, :new_status, :notes, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append approval history: %w", err)
	}
	return nil
}

// ListByLocation returns the transition chain for a record, oldest first.
func (r *ApprovalHistoryRepository) ListByLocation(ctx context.Context, locationID string) ([]models.ApprovalHistoryEntry, error) {
	const query = `SELECT id, survey_location_id, action, actor_id, actor_role, previous_status, new_status, notes, metadata, created_at
	FROM approval_history WHERE survey_location_id = $1 ORDER BY created_at ASC`
	var entries []models.ApprovalHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, locationID); err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}
	return entries, nil
}
