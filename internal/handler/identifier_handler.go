package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoviet/surveyid-api/internal/dto"
	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
	"github.com/geoviet/surveyid-api/pkg/response"
)

type identifierService interface {
	Lookup(ctx context.Context, code string) (*models.LocationIdentifier, error)
	ForLocation(ctx context.Context, locationID string) (*models.LocationIdentifier, error)
	Deactivate(ctx context.Context, code, reason string) (*models.LocationIdentifier, error)
}

type certificateRenderer interface {
	Render(identifier *models.LocationIdentifier, location *models.SurveyLocation) ([]byte, error)
}

// IdentifierHandler exposes lookup and administration of issued identifiers.
type IdentifierHandler struct {
	service     identifierService
	surveys     surveyService
	certificate certificateRenderer
}

// NewIdentifierHandler constructs the handler.
func NewIdentifierHandler(service identifierService, surveys surveyService, certificate certificateRenderer) *IdentifierHandler {
	return &IdentifierHandler{service: service, surveys: surveys, certificate: certificate}
}

// Lookup godoc
// @Summary Resolve a location identifier by code
// @Tags Identifiers
// @Produce json
// @Param code path string true "12-digit identifier code"
// @Success 200 {object} response.Envelope
// @Router /identifiers/{code} [get]
func (h *IdentifierHandler) Lookup(c *gin.Context) {
	identifier, err := h.service.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identifier, nil)
}

// ForLocation godoc
// @Summary Get the active identifier of a survey location
// @Tags Identifiers
// @Produce json
// @Param id path string true "Survey location ID"
// @Success 200 {object} response.Envelope
// @Router /survey-locations/{id}/identifier [get]
func (h *IdentifierHandler) ForLocation(c *gin.Context) {
	identifier, err := h.service.ForLocation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identifier, nil)
}

// Deactivate godoc
// @Summary Deactivate an issued identifier
// @Tags Identifiers
// @Accept json
// @Produce json
// @Param code path string true "12-digit identifier code"
// @Param payload body dto.DeactivateIdentifierRequest true "Deactivation reason"
// @Success 200 {object} response.Envelope
// @Router /identifiers/{code}/deactivate [post]
func (h *IdentifierHandler) Deactivate(c *gin.Context) {
	var req dto.DeactivateIdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "lý do vô hiệu hóa là bắt buộc"))
		return
	}
	identifier, err := h.service.Deactivate(c.Request.Context(), c.Param("code"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identifier, nil)
}

// Certificate godoc
// @Summary Download the issuance certificate PDF
// @Tags Identifiers
// @Produce application/pdf
// @Param code path string true "12-digit identifier code"
// @Success 200 {file} binary
// @Router /identifiers/{code}/certificate [get]
func (h *IdentifierHandler) Certificate(c *gin.Context) {
	identifier, err := h.service.Lookup(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	location, err := h.surveys.Get(c.Request.Context(), identifier.SurveyLocationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.certificate.Render(identifier, location)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="certificate-%s.pdf"`, identifier.Code))
	c.Data(http.StatusOK, "application/pdf", payload)
}
