package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

// Question is a single quiz question as served to a participant. Options
// keep the server-provided order and stay stable for the whole attempt.
// Correct answers never reach this process; scoring is upstream.
type Question struct {
	ID           int      `json:"id"`
	QuestionText string   `json:"question_text"`
	QuestionType string   `json:"question_type"`
	Options      []string `json:"options"`
}

// AnswerPair is one entry of the ordered answer sequence submitted for
// scoring, ascending by question id.
type AnswerPair struct {
	QuestionID int    `json:"question_id"`
	Selected   string `json:"selected"`
}

// SetAnswerRequest records or overwrites the selected option for one
// question of an active attempt.
type SetAnswerRequest struct {
	QuestionID int    `json:"question_id" binding:"required,min=1"`
	Selected   string `json:"selected" binding:"required,min=1,max=500"`
}
