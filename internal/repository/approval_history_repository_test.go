package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/geoviet/surveyid-api/internal/models"
)

func TestApprovalHistoryRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalHistoryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	notes := "Chất lượng ảnh kém: chụp lại ảnh mặt tiền"
	entry := &models.ApprovalHistoryEntry{
		SurveyLocationID: "loc-1",
		Action:           models.HistoryRejected,
		ActorID:          "supervisor-1",
		ActorRole:        models.RoleCommuneSupervisor,
		PreviousStatus:   models.StatusReviewed,
		NewStatus:        models.StatusRejected,
		Notes:            &notes,
		Metadata:         []byte(`{"rejection_reason":"poor_photo_quality"}`),
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalHistoryRepositoryListByLocation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalHistoryRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "survey_location_id", "action", "actor_id", "actor_role",
		"previous_status", "new_status", "notes", "metadata", "created_at",
	}).
		AddRow("h-1", "loc-1", "submitted", "officer-1", "COMMUNE_OFFICER",
			"pending", "reviewed", nil, nil, time.Now().Add(-2*time.Hour)).
		AddRow("h-2", "loc-1", "approved", "supervisor-1", "COMMUNE_SUPERVISOR",
			"reviewed", "approved_commune", nil, nil, time.Now().Add(-time.Hour)).
		AddRow("h-3", "loc-1", "approved", "admin-1", "CENTRAL_ADMIN",
			"approved_commune", "approved_central", nil, []byte(`{"issued_code":"010042000042"}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, survey_location_id, action")).
		WithArgs("loc-1").
		WillReturnRows(rows)

	entries, err := repo.ListByLocation(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, models.HistorySubmitted, entries[0].Action)
	require.Equal(t, models.StatusApprovedCentral, entries[2].NewStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}
