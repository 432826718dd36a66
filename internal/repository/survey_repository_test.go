package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/geoviet/surveyid-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func surveyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "latitude", "longitude", "accuracy", "province_code", "ward_code", "province_id", "ward_id",
		"address", "address_detail", "status", "location_identifier", "created_by", "created_at", "updated_at",
	})
}

func TestSurveyRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSurveyRepository(db)
	rows := surveyRows().
		AddRow("loc-1", 21.0285, 105.8542, nil, "01", "00190", 1, 42,
			"12 Phố Huế", nil, "pending", nil, "officer-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, latitude, longitude")).
		WithArgs("loc-1").
		WillReturnRows(rows)

	location, err := repo.GetByID(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Equal(t, "loc-1", location.ID)
	require.Equal(t, models.StatusPending, location.Status)
	require.Equal(t, 42, location.WardID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSurveyRepository(db)
	rows := surveyRows().
		AddRow("loc-1", 21.0285, 105.8542, nil, "01", "00190", 1, 42,
			"12 Phố Huế", nil, "reviewed", nil, "officer-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, latitude, longitude")).
		WithArgs("reviewed", "01", "00190").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.SurveyFilter{
		Status:       []models.SurveyStatus{models.StatusReviewed},
		ProvinceCode: "01",
		WardCode:     "00190",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "loc-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositoryUpdateStatusIf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSurveyRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE survey_locations SET status")).
		WithArgs("reviewed", sqlmock.AnyArg(), "loc-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatusIf(context.Background(), "loc-1", models.StatusPending, models.StatusReviewed)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositoryUpdateStatusIfStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSurveyRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE survey_locations SET status")).
		WithArgs("approved_central", sqlmock.AnyArg(), "loc-1", "approved_commune").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatusIf(context.Background(), "loc-1", models.StatusApprovedCommune, models.StatusApprovedCentral)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositorySetLocationIdentifier(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSurveyRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE survey_locations SET location_identifier")).
		WithArgs("010042000042", sqlmock.AnyArg(), "loc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetLocationIdentifier(context.Background(), "loc-1", "010042000042")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSurveyRepository(db)
	rows := sqlmock.NewRows([]string{"status", "count"}).
		AddRow("pending", 7).
		AddRow("approved_central", 3)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS count FROM survey_locations")).
		WithArgs("01", "00190").
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background(), "01", "00190")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, models.StatusPending, counts[0].Status)
	require.Equal(t, int64(7), counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}
