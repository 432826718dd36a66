package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
	"github.com/geoviet/surveyid-api/pkg/response"
)

type statsService interface {
	Dashboard(ctx context.Context, provinceCode, wardCode string) (*models.DashboardStats, error)
}

// StatsHandler exposes dashboard statistics.
type StatsHandler struct {
	service statsService
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(service statsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Dashboard godoc
// @Summary Workflow progress counts for the dashboard
// @Tags Dashboard
// @Produce json
// @Param province_code query string false "Province code"
// @Param ward_code query string false "Ward code"
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	provinceCode := c.Query("province_code")
	wardCode := c.Query("ward_code")
	// Commune officers only ever see their own ward.
	if claims.Role == models.RoleCommuneOfficer {
		provinceCode = claims.ProvinceCode
		wardCode = claims.WardCode
	}
	stats, err := h.service.Dashboard(c.Request.Context(), provinceCode, wardCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
