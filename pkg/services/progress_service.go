package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/kotoba-lab/sensei/pkg/models"
	"github.com/kotoba-lab/sensei/pkg/store"
)

// forecastDays is the window of the due-count forecast.
const forecastDays = 7

// ProgressService computes the study statistics overview.
type ProgressService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewProgressService creates a new ProgressService
func NewProgressService(st *store.Store, logger *slog.Logger) *ProgressService {
	return &ProgressService{store: st, logger: logger.With("component", "progress_service")}
}

// Overview assembles the full progress report: streak, all-time accuracy,
// per-level stats, and the 7-day due forecast.
func (s *ProgressService) Overview(ctx context.Context) (*models.ProgressOverview, error) {
	today := models.Today()

	days, err := s.store.ReviewDays(ctx)
	if err != nil {
		return nil, err
	}

	correct, total, err := s.store.AccuracyCounts(ctx)
	if err != nil {
		return nil, err
	}

	levels, err := s.store.LevelStats(ctx, today)
	if err != nil {
		return nil, err
	}

	forecast, err := s.store.DueForecast(ctx, today, forecastDays)
	if err != nil {
		return nil, err
	}

	return &models.ProgressOverview{
		StreakDays:      streak(days, today),
		AllTimeAccuracy: accuracyPercent(correct, total),
		TotalReviews:    total,
		LevelStats:      levels,
		WeeklyForecast:  forecast,
	}, nil
}

// streak counts consecutive study days ending at the most recent one. A
// today with no reviews yet does not break a streak that ran through
// yesterday.
func streak(days []models.Date, today models.Date) int {
	if len(days) == 0 {
		return 0
	}

	expect := today
	if days[0] != today {
		expect = today.AddDays(-1)
	}

	count := 0
	for _, day := range days {
		if day != expect {
			break
		}
		count++
		expect = expect.AddDays(-1)
	}
	return count
}

// accuracyPercent returns the correct ratio as a percentage rounded to one
// decimal place. No reviews means 0, not NaN.
func accuracyPercent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}
