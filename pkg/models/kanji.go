package models

// KanjiItem is one Jōyō kanji entry sourced from KANJIDIC2.
// The multi-value reading/meaning columns are stored as JSONB arrays.
type KanjiItem struct {
	ID              int        `json:"id"`
	Character       string     `json:"character"`
	OnYomi          []string   `json:"on_yomi"`
	KunYomi         []string   `json:"kun_yomi"`
	Meanings        []string   `json:"meaning"`
	StrokeCount     int        `json:"stroke_count"`
	JLPTLevel       *JLPTLevel `json:"jlpt_level"`
	FreqRank        *int       `json:"freq_rank"`
	ExampleWord     *string    `json:"example_word"`
	ExampleSentence *string    `json:"example_sentence"`
}

// KanjiPage is one page of a kanji listing.
type KanjiPage struct {
	Items    []KanjiItem `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
