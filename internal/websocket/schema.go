package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionPing   Action = "ping"
)

// RequestPayload carries any client action; unused fields stay zero.
type RequestPayload struct {
	Action     Action `json:"action"`
	QuestionID int    `json:"question_id,omitempty"`
	Selected   string `json:"selected,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSaved  Event = "saved"
	EventTick   Event = "tick"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

// TickEvent is pushed once per second while the attempt is active.
type TickEvent struct {
	Event            Event  `json:"event"`
	RemainingSeconds int    `json:"remaining_seconds"`
	State            string `json:"state"`
}

// SavedEvent acknowledges an answer action.
type SavedEvent struct {
	Event      Event `json:"event"`
	QuestionID int   `json:"question_id"`
}

// GradedEvent reports the terminal score after submission.
type GradedEvent struct {
	Event Event `json:"event"`
	Score int   `json:"score"`
	Total int   `json:"total"`
}

// ErrorResponse reports a rejected action.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

// PongResponse answers a ping.
type PongResponse struct {
	Event Event `json:"event"`
}
