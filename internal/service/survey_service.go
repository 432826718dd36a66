package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/geoviet/surveyid-api/internal/dto"
	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

type surveyListStore interface {
	GetByID(ctx context.Context, id string) (*models.SurveyLocation, error)
	List(ctx context.Context, filter models.SurveyFilter) ([]models.SurveyLocation, error)
}

// SurveyService serves the read surface over survey locations. Records are
// created by the external field-sync endpoint and mutated only through the
// workflow engine.
type SurveyService struct {
	repo   surveyListStore
	logger *zap.Logger
}

// NewSurveyService constructs the service.
func NewSurveyService(repo surveyListStore, logger *zap.Logger) *SurveyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SurveyService{repo: repo, logger: logger}
}

// Get loads a single survey location.
func (s *SurveyService) Get(ctx context.Context, id string) (*models.SurveyLocation, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey location")
	}
	return record, nil
}

// List returns survey locations matching the query. Commune officers are
// scoped to their assigned ward regardless of requested filters.
func (s *SurveyService) List(ctx context.Context, query dto.SurveyQuery, actor *models.JWTClaims) ([]models.SurveyLocation, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}

	filter := models.SurveyFilter{
		ProvinceCode: strings.TrimSpace(query.ProvinceCode),
		WardCode:     strings.TrimSpace(query.WardCode),
	}
	if actor.Role == models.RoleCommuneOfficer {
		filter.WardCode = actor.WardCode
	}

	if raw := strings.TrimSpace(query.Status); raw != "" {
		parts := strings.Split(raw, ",")
		statuses := make([]models.SurveyStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.SurveyStatus(part))
		}
		filter.Status = statuses
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	locations, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list survey locations")
	}

	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: len(locations)}
	return locations, pagination, nil
}
