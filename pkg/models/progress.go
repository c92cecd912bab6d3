package models

// LevelStats summarizes study progress for one JLPT level.
type LevelStats struct {
	Level    JLPTLevel `json:"level"`
	Total    int       `json:"total"`
	Seen     int       `json:"seen"`
	Mastered int       `json:"mastered"`
	DueToday int       `json:"due_today"`
}

// ForecastDay is the count of cards coming due on one calendar date.
type ForecastDay struct {
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

// ProgressOverview is the combined statistics structure served by
// GET /api/progress.
type ProgressOverview struct {
	StreakDays      int           `json:"streak_days"`
	AllTimeAccuracy float64       `json:"all_time_accuracy"`
	TotalReviews    int           `json:"total_reviews"`
	LevelStats      []LevelStats  `json:"level_stats"`
	WeeklyForecast  []ForecastDay `json:"weekly_forecast"`
}
