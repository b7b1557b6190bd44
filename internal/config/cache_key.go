package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session (JTI).
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// QuizContextKey returns the cache key for a participant's selected quiz.
func (r *CacheKeyStruct) QuizContextKey(participantID string) string {
	return fmt.Sprintf("participant:%s:quiz_context", participantID)
}

// AttemptAnswersKey returns the cache key for an attempt's answer mirror.
func (r *CacheKeyStruct) AttemptAnswersKey(participantID string, quizID int) string {
	return fmt.Sprintf("participant:%s:quiz:%d:answers", participantID, quizID)
}

// QuizAnalysisKey returns the cache key for a quiz's cached analysis payload.
func (r *CacheKeyStruct) QuizAnalysisKey(quizID int) string {
	return fmt.Sprintf("quiz:%d:analysis", quizID)
}

var CacheKey = NewCacheKeyStruct()
