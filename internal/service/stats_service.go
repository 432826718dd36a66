package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

const statsCachePrefix = "dashboard:stats"

type statsSurveyStore interface {
	CountByStatus(ctx context.Context, provinceCode, wardCode string) ([]models.StatusCount, error)
}

type statsIdentifierStore interface {
	CountActive(ctx context.Context, adminCode string) (int64, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type statsMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveDBQuery(label string, duration time.Duration)
}

// StatsService aggregates workflow progress for dashboard views, cache-aside
// over redis with a configurable TTL.
type StatsService struct {
	surveys     statsSurveyStore
	identifiers statsIdentifierStore
	cache       statsCache
	metrics     statsMetrics
	logger      *zap.Logger
	ttl         time.Duration
}

// NewStatsService constructs the service.
func NewStatsService(surveys statsSurveyStore, identifiers statsIdentifierStore, cache statsCache, metrics statsMetrics, logger *zap.Logger, ttl time.Duration) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsService{
		surveys:     surveys,
		identifiers: identifiers,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		ttl:         ttl,
	}
}

// Dashboard returns status counts and issued-identifier totals, scoped to an
// optional province/ward.
func (s *StatsService) Dashboard(ctx context.Context, provinceCode, wardCode string) (*models.DashboardStats, error) {
	key := fmt.Sprintf("%s:%s:%s", statsCachePrefix, provinceCode, wardCode)

	if s.cache != nil {
		start := time.Now()
		var cached models.DashboardStats
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true, time.Since(start))
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false, time.Since(start))
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) && !appErrors.HasCode(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	queryStart := time.Now()
	counts, err := s.surveys.CountByStatus(ctx, provinceCode, wardCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate survey counts")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("count_survey_locations", time.Since(queryStart))
	}

	stats := &models.DashboardStats{
		ProvinceCode: provinceCode,
		WardCode:     wardCode,
		ByStatus:     make(map[models.SurveyStatus]int64, len(counts)),
		GeneratedAt:  time.Now().UTC(),
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] = c.Count
		stats.TotalLocations += c.Count
	}

	issued, err := s.identifiers.CountActive(ctx, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count identifiers")
	}
	stats.IssuedIdentifiers = issued

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

// Invalidate drops all cached dashboard entries. Wired as the workflow
// engine's post-transition hook.
func (s *StatsService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCachePrefix+":*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
