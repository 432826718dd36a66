package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

// pqUniqueViolation is the Postgres error code for duplicate key violations.
const pqUniqueViolation = "23505"

const identifierColumns = `id, code, admin_code, sequence_number, survey_location_id, assigned_by,
       assigned_at, is_active, deactivation_reason, deactivated_at`

// IdentifierRepository persists issued location identifiers.
type IdentifierRepository struct {
	db *sqlx.DB
}

// NewIdentifierRepository constructs the repository.
func NewIdentifierRepository(db *sqlx.DB) *IdentifierRepository {
	return &IdentifierRepository{db: db}
}

// Insert stores a new identifier row. The unique constraints on code and
// survey_location_id are the arbiter under concurrent issuance; a duplicate
// key signal from the store maps to ErrDuplicateCode so callers can
// distinguish collisions from other persistence failures.
func (r *IdentifierRepository) Insert(ctx context.Context, identifier *models.LocationIdentifier) error {
	if identifier.ID == "" {
		identifier.ID = uuid.NewString()
	}
	if identifier.AssignedAt.IsZero() {
		identifier.AssignedAt = time.Now().UTC()
	}
	identifier.IsActive = true

	const query = `INSERT INTO location_identifiers
	(id, code, admin_code, sequence_number, survey_location_id, assigned_by, assigned_at, is_active)
	VALUES (:id, :code, :admin_code, :sequence_number, :survey_location_id, :assigned_by, :assigned_at, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, identifier); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.Wrap(err, appErrors.ErrDuplicateCode.Code, appErrors.ErrDuplicateCode.Status, appErrors.ErrDuplicateCode.Message)
		}
		return fmt.Errorf("insert location identifier: %w", err)
	}
	return nil
}

// GetByCode fetches an identifier by its full 12-digit code.
func (r *IdentifierRepository) GetByCode(ctx context.Context, code string) (*models.LocationIdentifier, error) {
	query := fmt.Sprintf(`SELECT %s FROM location_identifiers WHERE code = $1`, identifierColumns)
	var identifier models.LocationIdentifier
	if err := r.db.GetContext(ctx, &identifier, query, code); err != nil {
		return nil, err
	}
	return &identifier, nil
}

// GetByLocationID fetches the active identifier for a survey location.
func (r *IdentifierRepository) GetByLocationID(ctx context.Context, locationID string) (*models.LocationIdentifier, error) {
	query := fmt.Sprintf(`SELECT %s FROM location_identifiers WHERE survey_location_id = $1 AND is_active = TRUE`, identifierColumns)
	var identifier models.LocationIdentifier
	if err := r.db.GetContext(ctx, &identifier, query, locationID); err != nil {
		return nil, err
	}
	return &identifier, nil
}

// Delete removes an identifier row. Used only to compensate a failed
// issuance; issued identifiers are never deleted, only deactivated.
func (r *IdentifierRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM location_identifiers WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete identifier: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check identifier delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate retires an active identifier with a reason. Already inactive
// rows are left untouched and reported as sql.ErrNoRows.
func (r *IdentifierRepository) Deactivate(ctx context.Context, id, reason string) error {
	const query = `UPDATE location_identifiers
	SET is_active = FALSE, deactivation_reason = $1, deactivated_at = $2
	WHERE id = $3 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, reason, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate identifier: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check identifier deactivate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountActive returns the number of active identifiers, optionally scoped to
// one admin code.
func (r *IdentifierRepository) CountActive(ctx context.Context, adminCode string) (int64, error) {
	var count int64
	if adminCode != "" {
		const query = `SELECT COUNT(*) FROM location_identifiers WHERE is_active = TRUE AND admin_code = $1`
		if err := r.db.GetContext(ctx, &count, query, adminCode); err != nil {
			return 0, fmt.Errorf("count identifiers: %w", err)
		}
		return count, nil
	}
	const query = `SELECT COUNT(*) FROM location_identifiers WHERE is_active = TRUE`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count identifiers: %w", err)
	}
	return count, nil
}
