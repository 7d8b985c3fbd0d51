package domain

import "time"

// QuestionType tells the session engine how option selection behaves.
type QuestionType string

const (
	// Single questions accept at most one selected key.
	Single QuestionType = "SINGLE"
	// Multi questions toggle keys in and out of the selection.
	Multi QuestionType = "MULTI"
)

// DefaultTopic is used when a source record carries no topic.
const DefaultTopic = "General"

// Option is one selectable answer of a question.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question is a normalized question. Values are never mutated after normalization.
type Question struct {
	ID             string       `json:"id"`
	Index          int          `json:"index"`
	Topic          string       `json:"topic"`
	Body           string       `json:"body"`
	Type           QuestionType `json:"type"`
	Options        []Option     `json:"options"`
	CorrectAnswers []string     `json:"correctAnswers"`
	Explanation    string       `json:"explanation,omitempty"`
}

// HasOption reports whether key is one of the question's option keys.
func (q Question) HasOption(key string) bool {
	for _, opt := range q.Options {
		if opt.Key == key {
			return true
		}
	}
	return false
}

// IsCorrectKey reports whether key belongs to the correct answer set.
func (q Question) IsCorrectKey(key string) bool {
	for _, k := range q.CorrectAnswers {
		if k == key {
			return true
		}
	}
	return false
}

// UserAnswer records one submission within a session.
type UserAnswer struct {
	QuestionID      string   `json:"questionId"`
	SelectedOptions []string `json:"selectedOptions"`
	IsCorrect       bool     `json:"isCorrect"`
	Timestamp       int64    `json:"timestamp"` // epoch milliseconds
}

// Summary aggregates a completed session.
type Summary struct {
	Total        int      `json:"total"`
	Correct      int      `json:"correct"`
	Accuracy     int      `json:"accuracy"`
	IncorrectIDs []string `json:"incorrectIds"`
}

// LeaderboardEntry is a persisted, write-once record of one finished session.
type LeaderboardEntry struct {
	RunID         string    `json:"runId"`
	Date          time.Time `json:"date"`
	TotalAnswered int       `json:"totalAnswered"`
	Correct       int       `json:"correct"`
	Accuracy      int       `json:"accuracy"`
}
