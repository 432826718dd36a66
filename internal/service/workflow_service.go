package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/geoviet/surveyid-api/internal/dto"
	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

type workflowSurveyStore interface {
	GetByID(ctx context.Context, id string) (*models.SurveyLocation, error)
	UpdateStatusIf(ctx context.Context, id string, from, to models.SurveyStatus) error
}

type approvalHistoryStore interface {
	Append(ctx context.Context, entry *models.ApprovalHistoryEntry) error
	ListByLocation(ctx context.Context, locationID string) ([]models.ApprovalHistoryEntry, error)
}

type identifierIssuer interface {
	Issue(ctx context.Context, record *models.SurveyLocation, actorID string) (*models.LocationIdentifier, error)
}

// transitionTable maps (current status, action) to the target status.
// Anything absent is an invalid transition and fails without mutating state.
var transitionTable = map[models.SurveyStatus]map[models.WorkflowAction]models.SurveyStatus{
	models.StatusPending: {
		models.ActionSubmit:  models.StatusReviewed,
		models.ActionForward: models.StatusReviewed,
		models.ActionReject:  models.StatusRejected,
	},
	models.StatusReviewed: {
		models.ActionApprove: models.StatusApprovedCommune,
		models.ActionReject:  models.StatusRejected,
	},
	models.StatusApprovedCommune: {
		models.ActionApprove: models.StatusApprovedCentral,
		models.ActionReject:  models.StatusRejected,
	},
	models.StatusRejected: {
		models.ActionSubmit: models.StatusPending,
	},
}

// rolePermissions lists, per role, the (status, action) pairs the role may
// perform. Enforced independently of the transition table; both must pass.
var rolePermissions = map[models.UserRole]map[models.SurveyStatus][]models.WorkflowAction{
	models.RoleCommuneOfficer: {
		models.StatusPending:  {models.ActionSubmit, models.ActionForward},
		models.StatusRejected: {models.ActionSubmit, models.ActionForward},
	},
	models.RoleCommuneSupervisor: {
		models.StatusReviewed: {models.ActionApprove, models.ActionReject},
	},
	models.RoleCentralAdmin: {
		models.StatusApprovedCommune: {models.ActionApprove, models.ActionReject},
	},
	models.RoleSystemAdmin: {
		models.StatusApprovedCommune: {models.ActionApprove, models.ActionReject},
	},
}

// historyActions maps workflow actions to audit-trail labels.
var historyActions = map[models.WorkflowAction]models.HistoryAction{
	models.ActionSubmit:  models.HistorySubmitted,
	models.ActionReview:  models.HistoryReviewed,
	models.ActionApprove: models.HistoryApproved,
	models.ActionReject:  models.HistoryRejected,
	models.ActionForward: models.HistoryForwarded,
}

// WorkflowActionInput carries one transition request through the engine.
type WorkflowActionInput struct {
	LocationID      string
	Action          models.WorkflowAction
	ActorID         string
	ActorRole       models.UserRole
	ActorWardCode   string
	Notes           string
	RejectionReason models.RejectionReason
	CustomReason    string
}

// WorkflowService validates and executes survey workflow transitions,
// records the approval trail, and triggers identifier issuance on the
// central-approval edge.
type WorkflowService struct {
	surveys    workflowSurveyStore
	history    approvalHistoryStore
	issuer     identifierIssuer
	logger     *zap.Logger
	invalidate func(ctx context.Context)
}

// WorkflowServiceOption configures the service.
type WorkflowServiceOption func(*WorkflowService)

// WithStatsInvalidator registers a cache-invalidation hook fired after each
// successful transition.
func WithStatsInvalidator(invalidate func(ctx context.Context)) WorkflowServiceOption {
	return func(s *WorkflowService) {
		if invalidate != nil {
			s.invalidate = invalidate
		}
	}
}

// NewWorkflowService constructs the engine.
func NewWorkflowService(surveys workflowSurveyStore, history approvalHistoryStore, issuer identifierIssuer, logger *zap.Logger, opts ...WorkflowServiceOption) *WorkflowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &WorkflowService{
		surveys: surveys,
		history: history,
		issuer:  issuer,
		logger:  logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// CanPerformAction is the pure pre-flight check: transition table first,
// then role permission, then ward jurisdiction. No side effects.
func (s *WorkflowService) CanPerformAction(record *models.SurveyLocation, action models.WorkflowAction, role models.UserRole, wardCode string) dto.PermissionCheckResponse {
	if err := validateTransition(record, action, role, wardCode); err != nil {
		return dto.PermissionCheckResponse{Allowed: false, Reason: err.Message}
	}
	return dto.PermissionCheckResponse{Allowed: true}
}

// ExecuteWorkflowAction runs one transition end to end. The status write is
// a compare-and-swap on the previously read status, so a racing transition
// makes this one fail as stale instead of double-applying. When the target
// is central approval the identifier issuer runs synchronously; on issuance
// failure the status change is compensated back before returning, so the
// record is never left centrally approved without an identifier.
func (s *WorkflowService) ExecuteWorkflowAction(ctx context.Context, in WorkflowActionInput) (*dto.WorkflowResult, error) {
	record, err := s.surveys.GetByID(ctx, in.LocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRecordNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load survey location")
	}

	if vErr := validateTransition(record, in.Action, in.ActorRole, in.ActorWardCode); vErr != nil {
		return nil, vErr
	}
	if vErr := validateRejection(in); vErr != nil {
		return nil, vErr
	}

	previous := record.Status
	target := transitionTable[previous][in.Action]

	if err := s.surveys.UpdateStatusIf(ctx, record.ID, previous, target); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "trạng thái hồ sơ đã thay đổi, vui lòng tải lại trang")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update survey status")
	}

	var issued *models.LocationIdentifier
	if target == models.StatusApprovedCentral {
		issued, err = s.issuer.Issue(ctx, record, in.ActorID)
		if err != nil {
			if rbErr := s.surveys.UpdateStatusIf(ctx, record.ID, target, previous); rbErr != nil {
				s.logger.Error("failed to roll back status after issuance failure",
					zap.String("location_id", record.ID),
					zap.Error(rbErr))
			}
			return nil, err
		}
	}

	entry := &models.ApprovalHistoryEntry{
		SurveyLocationID: record.ID,
		Action:           historyActions[in.Action],
		ActorID:          in.ActorID,
		ActorRole:        in.ActorRole,
		PreviousStatus:   previous,
		NewStatus:        target,
	}
	if notes := composeNotes(in); notes != "" {
		entry.Notes = &notes
	}
	if metadata := composeMetadata(in, issued); metadata != nil {
		entry.Metadata = metadata
	}
	s.appendHistory(ctx, entry)

	if s.invalidate != nil {
		s.invalidate(ctx)
	}

	s.logger.Info("workflow transition applied",
		zap.String("location_id", record.ID),
		zap.String("action", string(in.Action)),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
		zap.String("actor_id", in.ActorID))

	result := &dto.WorkflowResult{
		Success:   true,
		Message:   successMessage(in.Action, target, issued),
		NewStatus: target,
	}
	if issued != nil {
		result.Code = issued.Code
	}
	return result, nil
}

// BatchApprove applies approve to each record independently, never aborting
// the batch on a single failure.
func (s *WorkflowService) BatchApprove(ctx context.Context, locationIDs []string, actorID string, actorRole models.UserRole, actorWardCode, notes string) *dto.BatchApproveResult {
	result := &dto.BatchApproveResult{}
	for _, id := range locationIDs {
		_, err := s.ExecuteWorkflowAction(ctx, WorkflowActionInput{
			LocationID:    id,
			Action:        models.ActionApprove,
			ActorID:       actorID,
			ActorRole:     actorRole,
			ActorWardCode: actorWardCode,
			Notes:         notes,
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, dto.BatchApproveError{
				LocationID: id,
				Message:    appErrors.FromError(err).Message,
			})
			continue
		}
		result.Successful++
	}
	return result
}

// History returns the transition chain for a record, oldest first.
func (s *WorkflowService) History(ctx context.Context, locationID string) ([]models.ApprovalHistoryEntry, error) {
	entries, err := s.history.ListByLocation(ctx, locationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval history")
	}
	return entries, nil
}

// appendHistory writes the audit row for a committed transition, retrying
// once on a transient failure. The transition itself already stands, so a
// persistent failure is logged for operator reconciliation rather than
// reported to the actor.
func (s *WorkflowService) appendHistory(ctx context.Context, entry *models.ApprovalHistoryEntry) {
	err := s.history.Append(ctx, entry)
	if err == nil {
		return
	}
	s.logger.Warn("approval history append failed, retrying",
		zap.String("location_id", entry.SurveyLocationID),
		zap.Error(err))
	if err := s.history.Append(ctx, entry); err != nil {
		s.logger.Error("failed to append approval history",
			zap.String("location_id", entry.SurveyLocationID),
			zap.Error(err))
	}
}

func validateTransition(record *models.SurveyLocation, action models.WorkflowAction, role models.UserRole, wardCode string) *appErrors.Error {
	actions, ok := transitionTable[record.Status]
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "")
	}
	if _, ok := actions[action]; !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "")
	}

	permitted, ok := rolePermissions[role]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
	allowedActions, ok := permitted[record.Status]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}
	found := false
	for _, a := range allowedActions {
		if a == action {
			found = true
			break
		}
	}
	if !found {
		return appErrors.Clone(appErrors.ErrForbidden, "")
	}

	// Commune officers act only inside their assigned ward.
	if role == models.RoleCommuneOfficer && record.WardCode != wardCode {
		return appErrors.Clone(appErrors.ErrOutsideWard, "")
	}

	return nil
}

func validateRejection(in WorkflowActionInput) *appErrors.Error {
	if in.Action != models.ActionReject {
		return nil
	}
	if in.RejectionReason == "" && strings.TrimSpace(in.Notes) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "lý do từ chối là bắt buộc")
	}
	if in.RejectionReason != "" && !in.RejectionReason.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "lý do từ chối không hợp lệ")
	}
	if in.RejectionReason == models.ReasonOther && strings.TrimSpace(in.CustomReason) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "vui lòng mô tả lý do từ chối khác")
	}
	return nil
}

func composeNotes(in WorkflowActionInput) string {
	parts := make([]string, 0, 3)
	if in.RejectionReason != "" {
		parts = append(parts, in.RejectionReason.Label())
	}
	if strings.TrimSpace(in.CustomReason) != "" {
		parts = append(parts, strings.TrimSpace(in.CustomReason))
	}
	if strings.TrimSpace(in.Notes) != "" {
		parts = append(parts, strings.TrimSpace(in.Notes))
	}
	return strings.Join(parts, ": ")
}

func composeMetadata(in WorkflowActionInput, issued *models.LocationIdentifier) []byte {
	meta := map[string]string{}
	if in.RejectionReason != "" {
		meta["rejection_reason"] = string(in.RejectionReason)
	}
	if strings.TrimSpace(in.CustomReason) != "" {
		meta["custom_reason"] = strings.TrimSpace(in.CustomReason)
	}
	if issued != nil {
		meta["issued_code"] = issued.Code
	}
	if len(meta) == 0 {
		return nil
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil
	}
	return payload
}

func successMessage(action models.WorkflowAction, target models.SurveyStatus, issued *models.LocationIdentifier) string {
	switch {
	case issued != nil:
		return fmt.Sprintf("Đã phê duyệt và cấp mã định danh vị trí: %s", issued.Code)
	case action == models.ActionReject:
		return "Đã từ chối hồ sơ khảo sát"
	case target == models.StatusApprovedCommune:
		return "Đã phê duyệt hồ sơ ở cấp tỉnh"
	case target == models.StatusReviewed:
		return "Đã chuyển hồ sơ để xem xét"
	case target == models.StatusPending:
		return "Đã gửi lại hồ sơ khảo sát"
	default:
		return "Đã cập nhật trạng thái hồ sơ"
	}
}
