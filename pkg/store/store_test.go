package store_test

import (
	stdsql "database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kotoba-lab/sensei/pkg/models"
)

// seedVocab inserts a vocabulary row and returns its id.
func seedVocab(t *testing.T, db *stdsql.DB, word, reading, meaning string, level models.JLPTLevel) int {
	t.Helper()
	var id int
	err := db.QueryRow(
		`INSERT INTO vocab (word, reading, meaning, part_of_speech, jlpt_level)
		 VALUES ($1, $2, $3, 'noun', $4) RETURNING id`,
		word, reading, meaning, string(level)).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedKanji inserts a kanji row and returns its id. freqRank may be nil.
func seedKanji(t *testing.T, db *stdsql.DB, character string, level models.JLPTLevel, freqRank *int) int {
	t.Helper()
	var id int
	err := db.QueryRow(
		`INSERT INTO kanji ("character", on_yomi, kun_yomi, meaning, stroke_count, jlpt_level, freq_rank)
		 VALUES ($1, '["オン"]', '["くん"]', '["meaning"]', 5, $2, $3) RETURNING id`,
		character, string(level), freqRank).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedCard inserts a memory card directly and returns its id.
func seedCard(t *testing.T, db *stdsql.DB, itemType models.ItemType, itemID int, ease float64, interval, reps int, due models.Date, lastReviewed *time.Time) int {
	t.Helper()
	var id int
	err := db.QueryRow(
		`INSERT INTO srs_cards (item_type, item_id, ease_factor, interval_days, reps, due_date, last_reviewed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		string(itemType), itemID, ease, interval, reps, due, lastReviewed).Scan(&id)
	require.NoError(t, err)
	return id
}

// seedReview appends a review_log row.
func seedReview(t *testing.T, db *stdsql.DB, sessionID *int, cardID, grade int, at time.Time) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO review_log (session_id, card_id, grade, reviewed_at) VALUES ($1, $2, $3, $4)",
		sessionID, cardID, grade, at)
	require.NoError(t, err)
}

func intPtr(n int) *int { return &n }

func levelPtr(l models.JLPTLevel) *models.JLPTLevel { return &l }

func typePtr(tt models.ItemType) *models.ItemType { return &tt }

func timePtr(ts time.Time) *time.Time { return &ts }
