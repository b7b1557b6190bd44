package upstream

// loginRequest is the wire payload for /auth/login.
type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserInfo is the identity block returned by the upstream auth endpoints.
type UserInfo struct {
	UserID        string `json:"user_id"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	IsTrainer     bool   `json:"is_trainer"`
	IsParticipant bool   `json:"is_participant"`
}

// LoginResult is the successful response of Authenticate.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// RegisterRequest is the wire payload for /auth/register. The upstream
// models roles as a pair of flags rather than a single enum.
type RegisterRequest struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	UserID        string `json:"user_id"`
	Password      string `json:"password"`
	IsTrainer     bool   `json:"is_trainer"`
	IsParticipant bool   `json:"is_participant"`
}

// CreateQuizForm holds the multipart form fields for /quiz/create. Times
// are preformatted strings because they travel as form values.
type CreateQuizForm struct {
	Title           string
	StartTime       string
	EndTime         string
	NumQuestions    int
	DurationMinutes int
	TrainerID       string
}

// CreateQuizResult is the successful response of CreateQuiz.
type CreateQuizResult struct {
	QuizID int `json:"quiz_id"`
}

// SubmitResult is the scoring endpoint's response to a submitted attempt.
type SubmitResult struct {
	Score int `json:"score"`
}
