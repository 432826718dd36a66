package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoviet/surveyid-api/internal/dto"
	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
	"github.com/geoviet/surveyid-api/pkg/response"
)

type surveyService interface {
	Get(ctx context.Context, id string) (*models.SurveyLocation, error)
	List(ctx context.Context, query dto.SurveyQuery, actor *models.JWTClaims) ([]models.SurveyLocation, *models.Pagination, error)
}

// SurveyHandler exposes the read surface over survey locations.
type SurveyHandler struct {
	service surveyService
}

// NewSurveyHandler constructs the handler.
func NewSurveyHandler(service surveyService) *SurveyHandler {
	return &SurveyHandler{service: service}
}

// List godoc
// @Summary List survey locations
// @Tags Surveys
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param province_code query string false "Province code"
// @Param ward_code query string false "Ward code"
// @Success 200 {object} response.Envelope
// @Router /survey-locations [get]
func (h *SurveyHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var query dto.SurveyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	locations, pagination, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, pagination)
}

// Get godoc
// @Summary Get one survey location
// @Tags Surveys
// @Produce json
// @Param id path string true "Survey location ID"
// @Success 200 {object} response.Envelope
// @Router /survey-locations/{id} [get]
func (h *SurveyHandler) Get(c *gin.Context) {
	location, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location, nil)
}
