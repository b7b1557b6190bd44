package model

// ScoreVsTime is one participant's score plotted against time taken.
type ScoreVsTime struct {
	ParticipantID string  `json:"participant_id"`
	Score         float64 `json:"score"`
	TimeTaken     int     `json:"time_taken"`
}

// QuizAnalysis is the aggregated statistics payload for a completed quiz,
// computed upstream and rendered by the trainer results view.
type QuizAnalysis struct {
	QuizID                 int            `json:"quiz_id"`
	QuizTitle              string         `json:"quiz_title"`
	NumParticipants        int            `json:"num_participants"`
	NumQuestions           int            `json:"num_questions"`
	AverageScore           float64        `json:"average_score"`
	AverageTimeSeconds     float64        `json:"average_time_seconds"`
	FastestTimeSeconds     int            `json:"fastest_time_seconds"`
	SlowestTimeSeconds     int            `json:"slowest_time_seconds"`
	ScoreDistribution      map[string]int `json:"score_distribution"`
	PercentageDistribution map[string]int `json:"percentage_distribution"`
	ScoreVsTime            []ScoreVsTime  `json:"score_vs_time"`
}
