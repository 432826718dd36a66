package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/geoviet/surveyid-api/internal/models"
)

const surveyColumns = `id, latitude, longitude, accuracy, province_code, ward_code, province_id, ward_id,
       address, address_detail, status, location_identifier, created_by, created_at, updated_at`

// SurveyRepository persists survey location records.
type SurveyRepository struct {
	db *sqlx.DB
}

// NewSurveyRepository constructs the repository.
func NewSurveyRepository(db *sqlx.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

// GetByID fetches a survey location by identifier.
func (r *SurveyRepository) GetByID(ctx context.Context, id string) (*models.SurveyLocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM survey_locations WHERE id = $1`, surveyColumns)
	var location models.SurveyLocation
	if err := r.db.GetContext(ctx, &location, query, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// List returns survey locations matching the filter (newest first).
func (r *SurveyRepository) List(ctx context.Context, filter models.SurveyFilter) ([]models.SurveyLocation, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM survey_locations`, surveyColumns))

	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ProvinceCode != "" {
		args = append(args, filter.ProvinceCode)
		conditions = append(conditions, fmt.Sprintf("province_code = $%d", len(args)))
	}
	if filter.WardCode != "" {
		args = append(args, filter.WardCode)
		conditions = append(conditions, fmt.Sprintf("ward_code = $%d", len(args)))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var locations []models.SurveyLocation
	if err := r.db.SelectContext(ctx, &locations, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list survey locations: %w", err)
	}
	return locations, nil
}

// UpdateStatusIf transitions the record's status only while the current
// status still equals from. A zero-row update means another actor moved the
// record first; that stale state is reported as sql.ErrNoRows.
func (r *SurveyRepository) UpdateStatusIf(ctx context.Context, id string, from, to models.SurveyStatus) error {
	const query = `UPDATE survey_locations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update survey status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check survey status update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetLocationIdentifier attaches the issued code to the record.
func (r *SurveyRepository) SetLocationIdentifier(ctx context.Context, id, code string) error {
	const query = `UPDATE survey_locations SET location_identifier = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, code, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set location identifier: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check identifier update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByStatus aggregates record counts per status within an optional
// administrative scope.
func (r *SurveyRepository) CountByStatus(ctx context.Context, provinceCode, wardCode string) ([]models.StatusCount, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT status, COUNT(*) AS count FROM survey_locations`)

	conditions := make([]string, 0, 2)
	if provinceCode != "" {
		args = append(args, provinceCode)
		conditions = append(conditions, fmt.Sprintf("province_code = $%d", len(args)))
	}
	if wardCode != "" {
		args = append(args, wardCode)
		conditions = append(conditions, fmt.Sprintf("ward_code = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY status")

	var counts []models.StatusCount
	if err := r.db.SelectContext(ctx, &counts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("count survey locations: %w", err)
	}
	return counts, nil
}
