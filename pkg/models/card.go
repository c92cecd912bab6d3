package models

import (
	"fmt"
	"time"
)

// ItemType discriminates which dictionary table a memory card points at.
type ItemType string

const (
	ItemTypeVocab ItemType = "vocab"
	ItemTypeKanji ItemType = "kanji"
)

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	return t == ItemTypeVocab || t == ItemTypeKanji
}

// ParseItemType validates an item type string from user input.
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid item type %q (expected vocab or kanji)", s)
	}
	return t, nil
}

// CardState is the observable learning state of a memory card. It is derived
// from interval and reps, never stored.
type CardState string

const (
	CardStateNew      CardState = "new"
	CardStateLearning CardState = "learning"
	CardStateMature   CardState = "mature"
)

// MemoryCard is the per-item SM-2 memory record. One row exists per
// (item_type, item_id) pair, created the first time an item is reviewed and
// never deleted.
type MemoryCard struct {
	ID           int        `json:"id"`
	ItemType     ItemType   `json:"item_type"`
	ItemID       int        `json:"item_id"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	Reps         int        `json:"reps"`
	DueDate      Date       `json:"due_date"`
	LastReviewed *time.Time `json:"last_reviewed"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DueCard is a memory card joined with its dictionary item, as served by the
// due/new review queue endpoints. Exactly one of Vocab or Kanji is set.
type DueCard struct {
	MemoryCard
	State CardState  `json:"state"`
	Vocab *VocabItem `json:"vocab,omitempty"`
	Kanji *KanjiItem `json:"kanji,omitempty"`
}

// NewItem is a dictionary item that has no memory card yet, offered for
// first-time study. Exactly one of Vocab or Kanji is set.
type NewItem struct {
	ItemType ItemType   `json:"item_type"`
	Vocab    *VocabItem `json:"vocab,omitempty"`
	Kanji    *KanjiItem `json:"kanji,omitempty"`
}

// ReviewResult is the response to a review submission: the persisted card
// plus the live counters of the session the review was part of.
type ReviewResult struct {
	Card             MemoryCard `json:"card"`
	State            CardState  `json:"state"`
	NextDue          Date       `json:"next_due"`
	SessionCorrect   int        `json:"session_correct"`
	SessionIncorrect int        `json:"session_incorrect"`
}
