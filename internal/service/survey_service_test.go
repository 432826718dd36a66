package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geoviet/surveyid-api/internal/dto"
	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

type surveyListStub struct {
	locations  []models.SurveyLocation
	lastFilter models.SurveyFilter
}

func (s *surveyListStub) GetByID(ctx context.Context, id string) (*models.SurveyLocation, error) {
	for _, loc := range s.locations {
		if loc.ID == id {
			copy := loc
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *surveyListStub) List(ctx context.Context, filter models.SurveyFilter) ([]models.SurveyLocation, error) {
	s.lastFilter = filter
	return s.locations, nil
}

func TestSurveyServiceGetNotFound(t *testing.T) {
	svc := NewSurveyService(&surveyListStub{}, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrRecordNotFound))
}

func TestSurveyServiceListScopesOfficerToOwnWard(t *testing.T) {
	repo := &surveyListStub{}
	svc := NewSurveyService(repo, nil)

	_, _, err := svc.List(context.Background(), dto.SurveyQuery{WardCode: "00999"}, &models.JWTClaims{
		UserID:   "officer-1",
		Role:     models.RoleCommuneOfficer,
		WardCode: "00190",
	})
	require.NoError(t, err)
	require.Equal(t, "00190", repo.lastFilter.WardCode)
}

func TestSurveyServiceListParsesStatusCSV(t *testing.T) {
	repo := &surveyListStub{}
	svc := NewSurveyService(repo, nil)

	_, pagination, err := svc.List(context.Background(), dto.SurveyQuery{
		Status:   "pending, Reviewed ,,rejected",
		Page:     2,
		PageSize: 25,
	}, &models.JWTClaims{Role: models.RoleCentralAdmin})
	require.NoError(t, err)
	require.Equal(t, []models.SurveyStatus{
		models.StatusPending, models.StatusReviewed, models.StatusRejected,
	}, repo.lastFilter.Status)
	require.Equal(t, 25, repo.lastFilter.Limit)
	require.Equal(t, 25, repo.lastFilter.Offset)
	require.Equal(t, 2, pagination.Page)
}

func TestSurveyServiceListDefaultsPaging(t *testing.T) {
	repo := &surveyListStub{}
	svc := NewSurveyService(repo, nil)

	_, pagination, err := svc.List(context.Background(), dto.SurveyQuery{PageSize: 9999}, &models.JWTClaims{Role: models.RoleSystemAdmin})
	require.NoError(t, err)
	require.Equal(t, 50, repo.lastFilter.Limit)
	require.Equal(t, 0, repo.lastFilter.Offset)
	require.Equal(t, 1, pagination.Page)
}

func TestSurveyServiceListRequiresActor(t *testing.T) {
	svc := NewSurveyService(&surveyListStub{}, nil)

	_, _, err := svc.List(context.Background(), dto.SurveyQuery{}, nil)
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}
