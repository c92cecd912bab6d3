package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// ReviewDays returns the distinct calendar dates with at least one logged
// review, newest first. Timestamps are bucketed into local days in Go
// because the civil-day boundary is the user's clock, not the database's.
func (s *Store) ReviewDays(ctx context.Context) ([]models.Date, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT reviewed_at FROM review_log ORDER BY reviewed_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to load review timestamps: %w", err)
	}
	defer rows.Close()

	seen := map[models.Date]struct{}{}
	var days []models.Date
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan review timestamp: %w", err)
		}
		day := models.DateOf(ts.Local())
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days, rows.Err()
}

// AccuracyCounts returns the all-time correct (grade >= 3) and total review
// counts from the append-only log.
func (s *Store) AccuracyCounts(ctx context.Context) (correct, total int, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FILTER (WHERE grade >= 3), COUNT(*) FROM review_log").
		Scan(&correct, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count review accuracy: %w", err)
	}
	return correct, total, nil
}

// LevelStats aggregates per-level progress across both dictionary tables:
// total items, items with a card, mature cards, and cards due today.
// Levels are returned in study order (N5 first); kanji without a level are
// excluded.
func (s *Store) LevelStats(ctx context.Context, today models.Date) ([]models.LevelStats, error) {
	byLevel := map[models.JLPTLevel]*models.LevelStats{}
	for _, level := range models.JLPTLevels() {
		byLevel[level] = &models.LevelStats{Level: level}
	}

	queries := []string{
		`SELECT v.jlpt_level,
		        COUNT(*),
		        COUNT(c.id),
		        COUNT(*) FILTER (WHERE c.interval_days >= 21),
		        COUNT(*) FILTER (WHERE c.due_date <= $1)
		 FROM vocab v
		 LEFT JOIN srs_cards c ON c.item_type = 'vocab' AND c.item_id = v.id
		 GROUP BY v.jlpt_level`,
		`SELECT k.jlpt_level,
		        COUNT(*),
		        COUNT(c.id),
		        COUNT(*) FILTER (WHERE c.interval_days >= 21),
		        COUNT(*) FILTER (WHERE c.due_date <= $1)
		 FROM kanji k
		 LEFT JOIN srs_cards c ON c.item_type = 'kanji' AND c.item_id = k.id
		 WHERE k.jlpt_level IS NOT NULL
		 GROUP BY k.jlpt_level`,
	}
	for _, query := range queries {
		if err := s.mergeLevelStats(ctx, query, today, byLevel); err != nil {
			return nil, err
		}
	}

	stats := make([]models.LevelStats, 0, len(models.JLPTLevels()))
	for _, level := range models.JLPTLevels() {
		stats = append(stats, *byLevel[level])
	}
	return stats, nil
}

func (s *Store) mergeLevelStats(ctx context.Context, query string, today models.Date, byLevel map[models.JLPTLevel]*models.LevelStats) error {
	rows, err := s.db.QueryContext(ctx, query, today)
	if err != nil {
		return fmt.Errorf("failed to aggregate level stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			level                         models.JLPTLevel
			total, seen, mastered, dueNow int
		)
		if err := rows.Scan(&level, &total, &seen, &mastered, &dueNow); err != nil {
			return fmt.Errorf("failed to scan level stats: %w", err)
		}
		st, ok := byLevel[level]
		if !ok {
			continue
		}
		st.Total += total
		st.Seen += seen
		st.Mastered += mastered
		st.DueToday += dueNow
	}
	return rows.Err()
}

// DueForecast returns per-day due counts for the window [start, start+days).
// Each entry counts cards whose due_date equals that exact date; overdue
// cards are not part of the forecast. Days with no due cards are zero-filled.
func (s *Store) DueForecast(ctx context.Context, start models.Date, days int) ([]models.ForecastDay, error) {
	end := start.AddDays(days)
	rows, err := s.db.QueryContext(ctx,
		"SELECT due_date, COUNT(*) FROM srs_cards WHERE due_date >= $1 AND due_date < $2 GROUP BY due_date",
		start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate due forecast: %w", err)
	}
	defer rows.Close()

	forecast := make([]models.ForecastDay, days)
	for i := range forecast {
		forecast[i].Date = start.AddDays(i)
	}
	for rows.Next() {
		var (
			due   models.Date
			count int
		)
		if err := rows.Scan(&due, &count); err != nil {
			return nil, fmt.Errorf("failed to scan forecast row: %w", err)
		}
		if idx := daysBetween(start, due); idx >= 0 && idx < days {
			forecast[idx].Count = count
		}
	}
	return forecast, rows.Err()
}

// RecentSurfaces returns the display forms (vocab word or kanji character)
// of the most recently reviewed items, most recent first.
func (s *Store) RecentSurfaces(ctx context.Context, limit int) ([]string, error) {
	return s.querySurfaces(ctx,
		`SELECT surface FROM (
		   SELECT COALESCE(v.word, k."character") AS surface, MAX(rl.reviewed_at) AS last_seen
		   FROM review_log rl
		   JOIN srs_cards c ON c.id = rl.card_id
		   LEFT JOIN vocab v ON c.item_type = 'vocab' AND v.id = c.item_id
		   LEFT JOIN kanji k ON c.item_type = 'kanji' AND k.id = c.item_id
		   GROUP BY surface
		   ORDER BY last_seen DESC
		   LIMIT $1
		 ) recent`,
		limit)
}

// WeakestSurfaces returns the display forms of the reviewed items with the
// lowest ease factors.
func (s *Store) WeakestSurfaces(ctx context.Context, limit int) ([]string, error) {
	return s.querySurfaces(ctx,
		`SELECT COALESCE(v.word, k."character")
		 FROM srs_cards c
		 LEFT JOIN vocab v ON c.item_type = 'vocab' AND v.id = c.item_id
		 LEFT JOIN kanji k ON c.item_type = 'kanji' AND k.id = c.item_id
		 WHERE c.last_reviewed IS NOT NULL
		 ORDER BY c.ease_factor ASC, c.id ASC
		 LIMIT $1`,
		limit)
}

func (s *Store) querySurfaces(ctx context.Context, query string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query item surfaces: %w", err)
	}
	defer rows.Close()

	surfaces := []string{}
	for rows.Next() {
		var surface string
		if err := rows.Scan(&surface); err != nil {
			return nil, fmt.Errorf("failed to scan item surface: %w", err)
		}
		surfaces = append(surfaces, surface)
	}
	return surfaces, rows.Err()
}

// daysBetween returns the whole-day distance from a to b (b after a).
func daysBetween(a, b models.Date) int {
	return int(b.Time().Sub(a.Time()).Hours() / 24)
}
