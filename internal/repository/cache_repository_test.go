package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/geoviet/surveyid-api/internal/models"
	appErrors "github.com/geoviet/surveyid-api/pkg/errors"
)

// Without a redis client the repository runs in degraded mode: every read is
// a miss and writes are silently dropped. This is the mode the server boots
// into when redis is unreachable.
func TestCacheRepositoryDegradedWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)

	ctx := context.Background()

	var stats models.DashboardStats
	err := repo.Get(ctx, "dashboard:stats:01:00190", &stats)
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.Set(ctx, "dashboard:stats:01:00190", &models.DashboardStats{TotalLocations: 5}, time.Minute))

	err = repo.Get(ctx, "dashboard:stats:01:00190", &stats)
	require.True(t, appErrors.HasCode(err, appErrors.ErrCacheMiss))

	require.NoError(t, repo.DeleteByPattern(ctx, "dashboard:stats:*"))
	require.NoError(t, repo.Close())
}
