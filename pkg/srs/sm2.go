// Package srs implements the SM-2 spaced-repetition transition function.
//
// The transition is pure: given a memory state, a grade, and a calendar date
// it produces the next state with no I/O. Persistence and queue selection
// live in pkg/store; HTTP validation lives in pkg/api.
//
// Grade scale exposed by the UI (Again / Hard / Good / Easy):
//
//	0 = again — complete failure
//	2 = hard  — recalled with great effort
//	3 = good  — recalled normally
//	5 = easy  — recalled instantly
//
// The formula accepts the full SM-2 range 0..5; the HTTP boundary rejects
// grades outside {0, 2, 3, 5}.
package srs

import (
	"math"
	"time"

	"github.com/kotoba-lab/sensei/pkg/models"
)

const (
	// EaseFloor is the minimum ease factor any card can reach.
	EaseFloor = 1.3

	// InitialEase is the ease factor of a card that has never been reviewed.
	InitialEase = 2.5

	// MatureThreshold is the interval, in days, at which a card counts as
	// mature rather than learning.
	MatureThreshold = 21

	// MaxIntervalDays caps interval growth (~100 years) so repeated easy
	// grades cannot overflow the interval column.
	MaxIntervalDays = 36500
)

// State is the SM-2 memory state of one card.
type State struct {
	Ease     float64
	Interval int
	Reps     int
}

// Result is the outcome of one review transition.
type Result struct {
	State
	DueDate      models.Date
	LastReviewed time.Time
}

// InitialState is the state synthesized for an item reviewed for the first
// time, before the transition is applied.
func InitialState() State {
	return State{Ease: InitialEase, Interval: 1, Reps: 0}
}

// Review applies one SM-2 review cycle.
//
// The ease factor moves by 0.1 − (5−q)(0.08 + (5−q)·0.02) and is clamped to
// EaseFloor after the addition. A grade below 3 is a lapse: the interval
// resets to 1 and the repetition count to 0. The first and second successful
// reviews pin the interval to 1 and 6 days; from the third onward it grows by
// the ease factor, rounded half away from zero.
func Review(s State, grade int, today models.Date, now time.Time) Result {
	delta := 0.1 - float64(5-grade)*(0.08+float64(5-grade)*0.02)
	ease := math.Max(EaseFloor, s.Ease+delta)

	var interval, reps int
	switch {
	case grade < 3:
		interval, reps = 1, 0
	case s.Reps == 0:
		interval, reps = 1, 1
	case s.Reps == 1:
		interval, reps = 6, 2
	default:
		interval = int(math.Round(float64(s.Interval) * ease))
		if interval > MaxIntervalDays {
			interval = MaxIntervalDays
		}
		reps = s.Reps + 1
	}

	return Result{
		State:        State{Ease: ease, Interval: interval, Reps: reps},
		DueDate:      today.AddDays(interval),
		LastReviewed: now,
	}
}

// CardState classifies a persisted memory card for observability. The state
// is derived, never stored: a card without a review yet is "new", and a lapse
// drops a mature card back to "learning" because the lapse resets its
// interval to 1.
func CardState(card models.MemoryCard) models.CardState {
	if card.LastReviewed == nil {
		return models.CardStateNew
	}
	if card.IntervalDays >= MatureThreshold {
		return models.CardStateMature
	}
	return models.CardStateLearning
}

// Replay folds a card's review history through the transition function,
// starting from the initial state. The review log is append-only, so this
// reconstructs the exact stored state of any card.
func Replay(events []models.ReviewEvent) State {
	s := InitialState()
	for _, ev := range events {
		r := Review(s, ev.Grade, models.DateOf(ev.ReviewedAt), ev.ReviewedAt)
		s = r.State
	}
	return s
}
