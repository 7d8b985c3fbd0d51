package app

import (
	"time"

	"certprep/internal/domain"
)

// Summarize aggregates a completed answer log. IncorrectIDs keep submission order.
func Summarize(answers []domain.UserAnswer) domain.Summary {
	sum := domain.Summary{Total: len(answers), IncorrectIDs: []string{}}
	for _, a := range answers {
		if a.IsCorrect {
			sum.Correct++
			continue
		}
		sum.IncorrectIDs = append(sum.IncorrectIDs, a.QuestionID)
	}
	sum.Accuracy = Accuracy(sum.Correct, sum.Total)
	return sum
}

// Accuracy is correct/total as a percentage rounded half up. Zero total yields 0.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

// NewEntry builds the leaderboard record for a finished session.
func NewEntry(runID string, at time.Time, sum domain.Summary) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		RunID:         runID,
		Date:          at.UTC().Truncate(time.Millisecond),
		TotalAnswered: sum.Total,
		Correct:       sum.Correct,
		Accuracy:      sum.Accuracy,
	}
}
