package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoviet/surveyid-api/internal/dto"
	"github.com/geoviet/surveyid-api/internal/models"
	"github.com/geoviet/surveyid-api/internal/service"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
	"github.com/geoviet/surveyid-api/pkg/response"
)

type workflowService interface {
	ExecuteWorkflowAction(ctx context.Context, in service.WorkflowActionInput) (*dto.WorkflowResult, error)
	CanPerformAction(record *models.SurveyLocation, action models.WorkflowAction, role models.UserRole, wardCode string) dto.PermissionCheckResponse
	BatchApprove(ctx context.Context, locationIDs []string, actorID string, actorRole models.UserRole, actorWardCode, notes string) *dto.BatchApproveResult
	History(ctx context.Context, locationID string) ([]models.ApprovalHistoryEntry, error)
}

type workflowSurveyReader interface {
	Get(ctx context.Context, id string) (*models.SurveyLocation, error)
}

// WorkflowHandler exposes REST endpoints for the approval workflow.
type WorkflowHandler struct {
	service workflowService
	surveys workflowSurveyReader
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(service workflowService, surveys workflowSurveyReader) *WorkflowHandler {
	return &WorkflowHandler{service: service, surveys: surveys}
}

// Execute godoc
// @Summary Execute a workflow action on a survey location
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Survey location ID"
// @Param payload body dto.WorkflowActionRequest true "Workflow action"
// @Success 200 {object} response.Envelope
// @Router /survey-locations/{id}/workflow [post]
func (h *WorkflowHandler) Execute(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.WorkflowActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid workflow payload"))
		return
	}
	result, err := h.service.ExecuteWorkflowAction(c.Request.Context(), service.WorkflowActionInput{
		LocationID:      c.Param("id"),
		Action:          req.Action,
		ActorID:         claims.UserID,
		ActorRole:       claims.Role,
		ActorWardCode:   claims.WardCode,
		Notes:           req.Notes,
		RejectionReason: req.RejectionReason,
		CustomReason:    req.CustomReason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Permissions godoc
// @Summary Pre-flight check whether the actor may perform an action
// @Tags Workflow
// @Produce json
// @Param id path string true "Survey location ID"
// @Param action query string true "Workflow action"
// @Success 200 {object} response.Envelope
// @Router /survey-locations/{id}/workflow/permissions [get]
func (h *WorkflowHandler) Permissions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	action := models.WorkflowAction(c.Query("action"))
	if action == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "action is required"))
		return
	}
	record, err := h.surveys.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	check := h.service.CanPerformAction(record, action, claims.Role, claims.WardCode)
	response.JSON(c, http.StatusOK, check, nil)
}

// BatchApprove godoc
// @Summary Approve a list of survey locations independently
// @Tags Workflow
// @Accept json
// @Produce json
// @Param payload body dto.BatchApproveRequest true "Batch approval payload"
// @Success 200 {object} response.Envelope
// @Router /survey-locations/batch-approve [post]
func (h *WorkflowHandler) BatchApprove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BatchApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid batch payload"))
		return
	}
	result := h.service.BatchApprove(c.Request.Context(), req.LocationIDs, claims.UserID, claims.Role, claims.WardCode, req.Notes)
	response.JSON(c, http.StatusOK, result, nil)
}

// History godoc
// @Summary Approval history for a survey location
// @Tags Workflow
// @Produce json
// @Param id path string true "Survey location ID"
// @Success 200 {object} response.Envelope
// @Router /survey-locations/{id}/history [get]
func (h *WorkflowHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
