package models

import "time"

// ReviewEvent is one row of the append-only review log. Rows are never
// updated or deleted; replaying a card's events through the scheduler
// reconstructs its current state.
type ReviewEvent struct {
	ID         int       `json:"id"`
	SessionID  *int      `json:"session_id"`
	CardID     int       `json:"card_id"`
	Grade      int       `json:"grade"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// Session is one contiguous review sitting, opened and closed by the
// flashcards client. correct + incorrect always equals cards_reviewed.
type Session struct {
	ID            int        `json:"id"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at"`
	CardsReviewed int        `json:"cards_reviewed"`
	Correct       int        `json:"correct"`
	Incorrect     int        `json:"incorrect"`
}
