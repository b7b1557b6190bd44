package model

import (
	"testing"
	"time"
)

func TestActionFor(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	quiz := func(status QuizStatus) QuizSummary {
		return QuizSummary{ID: 1, StartTime: start, EndTime: end, Status: status}
	}

	cases := []struct {
		name string
		quiz QuizSummary
		role Role
		now  time.Time
		want QuizAction
	}{
		// Trainer.
		{"trainer scheduled before start", quiz(QuizStatusScheduled), RoleTrainer, start.Add(-time.Hour), ActionScheduled},
		{"trainer scheduled after start", quiz(QuizStatusScheduled), RoleTrainer, start.Add(time.Minute), ActionStart},
		{"trainer scheduled at start", quiz(QuizStatusScheduled), RoleTrainer, start, ActionStart},
		{"trainer started", quiz(QuizStatusStarted), RoleTrainer, start.Add(time.Minute), ActionEnd},
		{"trainer completed", quiz(QuizStatusCompleted), RoleTrainer, end.Add(time.Hour), ActionResults},

		// Participant.
		{"participant before window", quiz(QuizStatusStarted), RoleParticipant, start.Add(-time.Minute), ActionUpcoming},
		{"participant not started yet", quiz(QuizStatusScheduled), RoleParticipant, start.Add(time.Minute), ActionUpcoming},
		{"participant window open", quiz(QuizStatusStarted), RoleParticipant, start.Add(time.Minute), ActionTake},
		{"participant at start", quiz(QuizStatusStarted), RoleParticipant, start, ActionTake},
		{"participant at end", quiz(QuizStatusStarted), RoleParticipant, end, ActionClosed},
		{"participant after end", quiz(QuizStatusStarted), RoleParticipant, end.Add(time.Minute), ActionClosed},
		{"participant completed early", quiz(QuizStatusCompleted), RoleParticipant, start.Add(time.Minute), ActionClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ActionFor(tc.quiz, tc.role, tc.now); got != tc.want {
				t.Fatalf("ActionFor = %s, want %s", got, tc.want)
			}
		})
	}
}
