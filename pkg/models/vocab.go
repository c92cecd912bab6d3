// Package models contains persisted entities, request/response records, and
// shared domain enums.
package models

import "fmt"

// JLPTLevel is a Japanese Language Proficiency Test level, N5 (elementary)
// through N1 (advanced).
type JLPTLevel string

const (
	LevelN5 JLPTLevel = "N5"
	LevelN4 JLPTLevel = "N4"
	LevelN3 JLPTLevel = "N3"
	LevelN2 JLPTLevel = "N2"
	LevelN1 JLPTLevel = "N1"
)

// JLPTLevels lists all levels in study order, easiest first.
func JLPTLevels() []JLPTLevel {
	return []JLPTLevel{LevelN5, LevelN4, LevelN3, LevelN2, LevelN1}
}

// Valid reports whether l is one of the five JLPT levels.
func (l JLPTLevel) Valid() bool {
	switch l {
	case LevelN5, LevelN4, LevelN3, LevelN2, LevelN1:
		return true
	}
	return false
}

// ParseJLPTLevel validates a level string from user input.
func ParseJLPTLevel(s string) (JLPTLevel, error) {
	l := JLPTLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("invalid JLPT level %q (expected N5..N1)", s)
	}
	return l, nil
}

// VocabItem is one Japanese vocabulary entry seeded from JMdict.
// Rows are inserted once by the ingestion pipeline and read-only afterwards.
type VocabItem struct {
	ID           int       `json:"id"`
	Word         string    `json:"word"`
	Reading      string    `json:"reading"`
	Meaning      string    `json:"meaning"`
	PartOfSpeech string    `json:"part_of_speech"`
	JLPTLevel    JLPTLevel `json:"jlpt_level"`
	ExampleJP    *string   `json:"example_jp"`
	ExampleEN    *string   `json:"example_en"`
}

// VocabPage is one page of a vocabulary listing.
type VocabPage struct {
	Items    []VocabItem `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
