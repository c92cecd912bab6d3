package models

// SubmitReviewRequest is the body of POST /api/cards/review. Score is the
// recall grade on the 0/2/3/5 scale.
type SubmitReviewRequest struct {
	SessionID int    `json:"session_id"`
	ItemType  string `json:"item_type"`
	ItemID    int    `json:"item_id"`
	Score     int    `json:"score"`
}

// TutorRequest is the body of POST /api/tutor/chat. Mode selects the
// teaching behaviour (TEACH, QUIZ, EXPLAIN, CORRECT, CHAT); an empty mode
// means CHAT. Level, when set, overrides the stored jlpt_focus setting.
type TutorRequest struct {
	Message string  `json:"message"`
	Mode    string  `json:"mode"`
	Level   *string `json:"level,omitempty"`
}

// SpeakRequest is the body of POST /api/tts.
type SpeakRequest struct {
	Text string `json:"text"`
}
