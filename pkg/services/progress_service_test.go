package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kotoba-lab/sensei/pkg/models"
)

func TestStreak(t *testing.T) {
	today := mustParse(t, "2026-08-25")

	t.Run("no reviews", func(t *testing.T) {
		assert.Zero(t, streak(nil, today))
	})

	t.Run("reviewed today only", func(t *testing.T) {
		days := []models.Date{today}
		assert.Equal(t, 1, streak(days, today))
	})

	t.Run("consecutive run through today", func(t *testing.T) {
		days := []models.Date{today, today.AddDays(-1), today.AddDays(-2)}
		assert.Equal(t, 3, streak(days, today))
	})

	t.Run("today not studied yet does not break the streak", func(t *testing.T) {
		days := []models.Date{today.AddDays(-1), today.AddDays(-2)}
		assert.Equal(t, 2, streak(days, today))
	})

	t.Run("gap ends the streak", func(t *testing.T) {
		days := []models.Date{today, today.AddDays(-1), today.AddDays(-3)}
		assert.Equal(t, 2, streak(days, today))
	})

	t.Run("last review two days ago means no streak", func(t *testing.T) {
		days := []models.Date{today.AddDays(-2), today.AddDays(-3)}
		assert.Zero(t, streak(days, today))
	})
}

func TestAccuracyPercent(t *testing.T) {
	assert.Zero(t, accuracyPercent(0, 0))
	assert.Equal(t, 100.0, accuracyPercent(4, 4))
	assert.Equal(t, 50.0, accuracyPercent(2, 4))
	assert.Equal(t, 66.7, accuracyPercent(2, 3))
}

func mustParse(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}
