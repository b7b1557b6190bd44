package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptState enumerates the lifecycle states of a quiz attempt.
// Window checking and question loading resolve synchronously while the
// attempt begins, so only the durable states are represented here.
type AttemptState string

const (
	AttemptStateActive     AttemptState = "active"
	AttemptStateSubmitting AttemptState = "submitting"
	AttemptStateScored     AttemptState = "scored"  // terminal
	AttemptStateExpired    AttemptState = "expired" // terminal, reached without a question fetch
)

// AttemptResult is the terminal outcome received from the scoring endpoint.
type AttemptResult struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

// AttemptView is the attempt as rendered to the participant: everything a
// reloaded client needs to resume, and never more (no correct answers, no
// submission payload internals).
type AttemptView struct {
	ID               uuid.UUID      `json:"id"`
	QuizID           int            `json:"quiz_id"`
	QuizTitle        string         `json:"quiz_title"`
	State            AttemptState   `json:"state"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Questions        []Question     `json:"questions,omitempty"`
	Answers          map[int]string `json:"answers"`
	Result           *AttemptResult `json:"result,omitempty"`
	StartedAt        time.Time      `json:"started_at"`
}

// SubmissionPayload is the attempt package posted to the upstream scoring
// endpoint. Field names follow the scoring API's contract.
type SubmissionPayload struct {
	QuizID           int          `json:"quiz_id"`
	ParticipantID    string       `json:"participant_id"`
	TrainerID        string       `json:"trainer_id"`
	QuizTitle        string       `json:"quiz_title"`
	NumOfQuestions   int          `json:"num_of_questions"`
	TimeTakenSeconds int          `json:"time_taken_seconds"`
	AttemptedAt      string       `json:"attempted_at"`
	OptionsQnA       []AnswerPair `json:"options_qna"`
}
