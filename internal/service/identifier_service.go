package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

const (
	defaultMaxAttempts = 10
	maxSequence        = 999999
	codeLength         = 12
)

var codePattern = regexp.MustCompile(`^\d{12}$`)

type identifierStore interface {
	Insert(ctx context.Context, identifier *models.LocationIdentifier) error
	GetByCode(ctx context.Context, code string) (*models.LocationIdentifier, error)
	GetByLocationID(ctx context.Context, locationID string) (*models.LocationIdentifier, error)
	Deactivate(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
}

type identifierSurveyStore interface {
	SetLocationIdentifier(ctx context.Context, id, code string) error
}

type identifierMetrics interface {
	IncIdentifierIssued()
	IncIdentifierCollision()
}

// IdentifierService issues the unique location identifier attached to a
// centrally approved record. The admin-code prefix is derived once from the
// record's numeric administrative ids; the 6-digit suffix is drawn at random
// and the store's unique constraint arbitrates collisions.
type IdentifierService struct {
	identifiers identifierStore
	surveys     identifierSurveyStore
	metrics     identifierMetrics
	logger      *zap.Logger
	maxAttempts int
	randInt     func(n int) int
}

// IdentifierServiceOption configures the service.
type IdentifierServiceOption func(*IdentifierService)

// WithMaxAttempts overrides the issuance attempt bound.
func WithMaxAttempts(attempts int) IdentifierServiceOption {
	return func(s *IdentifierService) {
		if attempts > 0 {
			s.maxAttempts = attempts
		}
	}
}

// WithRandSource overrides the suffix generator, used by tests.
func WithRandSource(randInt func(n int) int) IdentifierServiceOption {
	return func(s *IdentifierService) {
		if randInt != nil {
			s.randInt = randInt
		}
	}
}

// WithIdentifierMetrics attaches issuance counters.
func WithIdentifierMetrics(metrics identifierMetrics) IdentifierServiceOption {
	return func(s *IdentifierService) {
		s.metrics = metrics
	}
}

// NewIdentifierService constructs the service with defaults.
func NewIdentifierService(identifiers identifierStore, surveys identifierSurveyStore, logger *zap.Logger, opts ...IdentifierServiceOption) *IdentifierService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &IdentifierService{
		identifiers: identifiers,
		surveys:     surveys,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		randInt:     rand.Intn,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// AdminCode derives the fixed identifier prefix from numeric administrative
// ids: 2-digit province + 4-digit ward, both zero-padded.
func AdminCode(provinceID, wardID int) string {
	return fmt.Sprintf("%02d%04d", provinceID, wardID)
}

// SplitCode decomposes a full 12-digit code into province, ward, and
// sequence segments. The format is part of the public contract: PPWWWWNNNNNN.
func SplitCode(code string) (province, ward, sequence string, err error) {
	if !codePattern.MatchString(code) {
		return "", "", "", appErrors.Clone(appErrors.ErrValidation, "mã định danh phải gồm đúng 12 chữ số")
	}
	return code[0:2], code[2:6], code[6:12], nil
}

// Issue allocates and persists a unique identifier for the record, retrying
// fresh random suffixes on collisions up to the attempt bound. Non-collision
// persistence failures abort immediately. When the inserted row cannot be
// attached to the record it is deleted again, so a failed issuance leaves no
// identifier behind and the approval stays retryable. The caller owns the surrounding
// workflow transition; Issue is invoked at most once per record by
// construction of the transition table.
func (s *IdentifierService) Issue(ctx context.Context, record *models.SurveyLocation, actorID string) (*models.LocationIdentifier, error) {
	adminCode := AdminCode(record.ProvinceID, record.WardID)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		sequence := fmt.Sprintf("%06d", s.randInt(maxSequence)+1)
		identifier := &models.LocationIdentifier{
			Code:             adminCode + sequence,
			AdminCode:        adminCode,
			SequenceNumber:   sequence,
			SurveyLocationID: record.ID,
			AssignedBy:       actorID,
			AssignedAt:       time.Now().UTC(),
		}

		err := s.identifiers.Insert(ctx, identifier)
		if err == nil {
			if err := s.surveys.SetLocationIdentifier(ctx, record.ID, identifier.Code); err != nil {
				// Remove the orphaned row, otherwise the per-location unique
				// constraint blocks every later retry of the approval.
				if delErr := s.identifiers.Delete(ctx, identifier.ID); delErr != nil {
					s.logger.Error("failed to remove identifier after attach failure",
						zap.String("location_id", record.ID),
						zap.String("code", identifier.Code),
						zap.Error(delErr))
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach identifier to record")
			}
			if s.metrics != nil {
				s.metrics.IncIdentifierIssued()
			}
			s.logger.Info("location identifier issued",
				zap.String("location_id", record.ID),
				zap.String("code", identifier.Code),
				zap.Int("attempt", attempt))
			return identifier, nil
		}

		if appErrors.HasCode(err, appErrors.ErrDuplicateCode) {
			if s.metrics != nil {
				s.metrics.IncIdentifierCollision()
			}
			s.logger.Warn("identifier code collision, retrying",
				zap.String("location_id", record.ID),
				zap.Int("attempt", attempt))
			continue
		}

		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist identifier")
	}

	return nil, appErrors.Clone(appErrors.ErrCollisionExhausted, "")
}

// Lookup resolves an identifier by its full code.
func (s *IdentifierService) Lookup(ctx context.Context, code string) (*models.LocationIdentifier, error) {
	if _, _, _, err := SplitCode(code); err != nil {
		return nil, err
	}
	identifier, err := s.identifiers.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrIdentifierNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load identifier")
	}
	return identifier, nil
}

// ForLocation resolves the active identifier for a survey location.
func (s *IdentifierService) ForLocation(ctx context.Context, locationID string) (*models.LocationIdentifier, error) {
	identifier, err := s.identifiers.GetByLocationID(ctx, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrIdentifierNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load identifier")
	}
	return identifier, nil
}

// Deactivate retires an identifier by code with an administrative reason.
// The record keeps its code string for traceability; only is_active flips.
func (s *IdentifierService) Deactivate(ctx context.Context, code, reason string) (*models.LocationIdentifier, error) {
	identifier, err := s.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if !identifier.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mã định danh đã bị vô hiệu hóa trước đó")
	}
	if err := s.identifiers.Deactivate(ctx, identifier.ID, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "mã định danh đã bị vô hiệu hóa trước đó")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate identifier")
	}
	identifier.IsActive = false
	identifier.DeactivationReason = &reason
	now := time.Now().UTC()
	identifier.DeactivatedAt = &now
	return identifier, nil
}
