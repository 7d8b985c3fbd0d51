package http

import (
	"certprep/internal/app"
	"certprep/internal/domain"
)

// StateView is the JSON snapshot sent to clients after every intent.
type StateView struct {
	Screen      app.Screen                `json:"screen"`
	LoadError   string                    `json:"loadError,omitempty"`
	Quiz        *QuizView                 `json:"quiz,omitempty"`
	Summary     *domain.Summary           `json:"summary,omitempty"`
	CanRetry    bool                      `json:"canRetry"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// QuizView describes the question under the cursor.
type QuizView struct {
	Position int                `json:"position"` // 1-based
	Total    int                `json:"total"`
	Retry    bool               `json:"retry"`
	Phase    string             `json:"phase"`
	Question QuestionView       `json:"question"`
	Selected []string           `json:"selected"`
	Answer   *domain.UserAnswer `json:"answer,omitempty"`
	// Explanation is set only once revealed.
	Explanation string `json:"explanation,omitempty"`
}

// QuestionView hides the correct answers until the question is submitted.
type QuestionView struct {
	ID             string          `json:"id"`
	Index          int             `json:"index"`
	Topic          string          `json:"topic"`
	Body           string          `json:"body"`
	Type           string          `json:"type"`
	Options        []domain.Option `json:"options"`
	CorrectAnswers []string        `json:"correctAnswers,omitempty"`
}

// NewStateView projects flow state for the wire.
func NewStateView(st app.State) StateView {
	view := StateView{
		Screen:    st.Screen,
		LoadError: st.LoadErr,
		Summary:   st.Summary,
		CanRetry:  st.Screen == app.ScreenSummary && st.Summary != nil && len(st.Summary.IncorrectIDs) > 0,
	}
	if st.Screen == app.ScreenLeaderboard {
		view.Leaderboard = st.Entries
		if view.Leaderboard == nil {
			view.Leaderboard = []domain.LeaderboardEntry{}
		}
	}
	if st.Screen != app.ScreenQuiz || st.Session == nil {
		return view
	}

	s := st.Session
	q, ok := s.Current()
	if !ok {
		return view
	}
	quiz := &QuizView{
		Position: s.Position() + 1,
		Total:    s.Total(),
		Retry:    s.IsRetry(),
		Phase:    s.Phase().String(),
		Selected: s.Selected(),
		Question: QuestionView{
			ID:      q.ID,
			Index:   q.Index,
			Topic:   q.Topic,
			Body:    q.Body,
			Type:    string(q.Type),
			Options: q.Options,
		},
	}
	if answer, ok := s.LastAnswer(); ok {
		quiz.Answer = &answer
		quiz.Selected = answer.SelectedOptions
		quiz.Question.CorrectAnswers = q.CorrectAnswers
	}
	if s.ExplanationVisible() {
		quiz.Explanation = q.Explanation
		if quiz.Explanation == "" {
			quiz.Explanation = app.MissingExplanation
		}
	}
	view.Quiz = quiz
	return view
}
