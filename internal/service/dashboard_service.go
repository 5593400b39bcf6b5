package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-records-api/internal/models"
	appErrors "github.com/noah-isme/sekolah-records-api/pkg/errors"
)

// DashboardSummaryKey is the cache key of the dashboard payload.
const DashboardSummaryKey = "dashboard:summary"

type dashboardRepository interface {
	Totals(ctx context.Context) (*models.DashboardTotals, error)
	StudentsPerTrack(ctx context.Context) ([]models.TrackCount, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string)
}

// DashboardService builds the aggregate counts shown on the landing page.
type DashboardService struct {
	repo    dashboardRepository
	cache   dashboardCache
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time
}

// NewDashboardService constructs a dashboard service. cache may be nil.
func NewDashboardService(repo dashboardRepository, cache dashboardCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, metrics: metrics, logger: logger, ttl: ttl, now: time.Now}
}

// Summary returns the dashboard payload and whether it came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached models.DashboardSummary
		if s.cache.Get(ctx, DashboardSummaryKey, &cached) {
			return &cached, true, nil
		}
	}

	start := time.Now()
	totals, err := s.repo.Totals(ctx)
	s.metrics.ObserveDBQuery("dashboard_totals", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load dashboard totals")
	}

	start = time.Now()
	perTrack, err := s.repo.StudentsPerTrack(ctx)
	s.metrics.ObserveDBQuery("dashboard_per_track", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load students per track")
	}

	summary := &models.DashboardSummary{
		Totals:      *totals,
		Chart:       buildTrackChart(perTrack),
		GeneratedAt: s.now().UTC(),
	}
	if s.cache != nil {
		s.cache.Set(ctx, DashboardSummaryKey, summary, s.ttl)
	}
	return summary, false, nil
}

// Invalidate drops the cached summary after a record write.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, DashboardSummaryKey)
}

func buildTrackChart(rows []models.TrackCount) models.DashboardChart {
	chart := models.DashboardChart{
		Labels: make([]string, 0, len(rows)),
		Values: make([]int, 0, len(rows)),
	}
	for _, row := range rows {
		label := row.Track
		if label == "" {
			label = models.UndefinedTrack
		}
		chart.Labels = append(chart.Labels, label)
		chart.Values = append(chart.Values, row.Total)
	}
	return chart
}
