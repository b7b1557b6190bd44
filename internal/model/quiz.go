package model

import "time"

// QuizStatus enumerates the possible states of a quiz.
type QuizStatus string

const (
	QuizStatusScheduled QuizStatus = "scheduled"
	QuizStatusStarted   QuizStatus = "started"
	QuizStatusCompleted QuizStatus = "completed"
)

// QuizSummary is a quiz as listed on a dashboard and as held in the
// participant's quiz context. The `[start_time, end_time)` interval is the
// window during which an attempt may begin.
type QuizSummary struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	NumQuestions    int        `json:"num_questions"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          QuizStatus `json:"status"`
	TrainerID       string     `json:"trainer_id"`
}

// QuizAction is the single role-appropriate action a dashboard renders for
// a quiz. Derived from status and the current time relative to the window.
type QuizAction string

const (
	ActionTake      QuizAction = "take"      // participant: window open, quiz started
	ActionUpcoming  QuizAction = "upcoming"  // participant: window not open yet
	ActionClosed    QuizAction = "closed"    // participant: window over
	ActionStart     QuizAction = "start"     // trainer: scheduled, may be started
	ActionEnd       QuizAction = "end"       // trainer: running, may be ended
	ActionResults   QuizAction = "results"   // trainer: completed, analysis available
	ActionScheduled QuizAction = "scheduled" // trainer: start time not reached
)

// DashboardQuiz is a quiz summary annotated with its derived action.
type DashboardQuiz struct {
	QuizSummary
	AvailableAction QuizAction `json:"available_action"`
}

// ActionFor derives the dashboard action for a quiz given the viewer's role
// and the current time. Pure function; re-evaluated on every listing.
func ActionFor(q QuizSummary, role Role, now time.Time) QuizAction {
	if role == RoleTrainer {
		switch q.Status {
		case QuizStatusStarted:
			return ActionEnd
		case QuizStatusCompleted:
			return ActionResults
		default:
			if now.Before(q.StartTime) {
				return ActionScheduled
			}
			return ActionStart
		}
	}

	// Participant view.
	if q.Status == QuizStatusCompleted || !now.Before(q.EndTime) {
		return ActionClosed
	}
	if q.Status == QuizStatusStarted && !now.Before(q.StartTime) {
		return ActionTake
	}
	return ActionUpcoming
}

// SelectQuizRequest carries the quiz summary a participant picked on the
// dashboard into the quiz context.
type SelectQuizRequest struct {
	Title           string     `json:"title" binding:"required,min=1,max=255"`
	StartTime       time.Time  `json:"start_time" binding:"required"`
	EndTime         time.Time  `json:"end_time" binding:"required,gtfield=StartTime"`
	NumQuestions    int        `json:"num_questions" binding:"required,min=1"`
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	Status          QuizStatus `json:"status" binding:"required,oneof=scheduled started completed"`
	TrainerID       string     `json:"trainer_id" binding:"required"`
}

// CreateQuizRequest is the multipart form payload for creating a new quiz.
// The question source file rides along as the "file" form part.
type CreateQuizRequest struct {
	Title           string    `form:"title" binding:"required,min=1,max=255"`
	StartTime       time.Time `form:"start_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndTime         time.Time `form:"end_time" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	NumQuestions    int       `form:"num_questions" binding:"required,min=1"`
	DurationMinutes int       `form:"duration_minutes" binding:"required,min=1,max=480"`
}
