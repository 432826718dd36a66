package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

func identifierRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "code", "admin_code", "sequence_number", "survey_location_id", "assigned_by",
		"assigned_at", "is_active", "deactivation_reason", "deactivated_at",
	})
}

func TestIdentifierRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO location_identifiers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	identifier := &models.LocationIdentifier{
		Code:             "010042000042",
		AdminCode:        "010042",
		SequenceNumber:   "000042",
		SurveyLocationID: "loc-1",
		AssignedBy:       "admin-1",
	}
	require.NoError(t, repo.Insert(context.Background(), identifier))
	require.NotEmpty(t, identifier.ID)
	require.False(t, identifier.AssignedAt.IsZero())
	require.True(t, identifier.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryInsertDuplicateCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO location_identifiers")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "location_identifiers_code_key"})

	identifier := &models.LocationIdentifier{
		Code:             "010042000042",
		AdminCode:        "010042",
		SequenceNumber:   "000042",
		SurveyLocationID: "loc-1",
		AssignedBy:       "admin-1",
	}
	err := repo.Insert(context.Background(), identifier)
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrDuplicateCode))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryInsertOtherErrorIsNotCollision(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO location_identifiers")).
		WillReturnError(&pq.Error{Code: "53300", Message: "too many connections"})

	err := repo.Insert(context.Background(), &models.LocationIdentifier{
		Code:             "010042000042",
		SurveyLocationID: "loc-1",
	})
	require.Error(t, err)
	require.False(t, appErrors.HasCode(err, appErrors.ErrDuplicateCode))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryGetByCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	rows := identifierRows().
		AddRow("ident-1", "010042000042", "010042", "000042", "loc-1", "admin-1",
			time.Now(), true, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, admin_code")).
		WithArgs("010042000042").
		WillReturnRows(rows)

	identifier, err := repo.GetByCode(context.Background(), "010042000042")
	require.NoError(t, err)
	require.Equal(t, "ident-1", identifier.ID)
	require.True(t, identifier.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryGetByLocationID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	rows := identifierRows().
		AddRow("ident-1", "010042000042", "010042", "000042", "loc-1", "admin-1",
			time.Now(), true, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, admin_code")).
		WithArgs("loc-1").
		WillReturnRows(rows)

	identifier, err := repo.GetByLocationID(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Equal(t, "010042000042", identifier.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM location_identifiers WHERE id")).
		WithArgs("ident-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "ident-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM location_identifiers WHERE id")).
		WithArgs("ident-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ident-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE location_identifiers")).
		WithArgs("cấp nhầm địa bàn", sqlmock.AnyArg(), "ident-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "ident-1", "cấp nhầm địa bàn"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryDeactivateAlreadyInactive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE location_identifiers")).
		WithArgs("lý do", sqlmock.AnyArg(), "ident-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), "ident-1", "lý do")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentifierRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewIdentifierRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM location_identifiers WHERE is_active = TRUE AND admin_code")).
		WithArgs("010042").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	count, err := repo.CountActive(context.Background(), "010042")
	require.NoError(t, err)
	require.Equal(t, int64(9), count)
	require.NoError(t, mock.ExpectationsWereMet())
}
