package app

import (
	"time"

	"certprep/internal/domain"
	"certprep/internal/scoring"
)

// Phase is the per-question state of a session.
type Phase int

const (
	// AwaitingSelection accepts option toggles and a submit.
	AwaitingSelection Phase = iota
	// Submitted has scored the current question; only reveal and advance apply.
	Submitted
	// Completed means every active question was answered.
	Completed
)

func (p Phase) String() string {
	switch p {
	case AwaitingSelection:
		return "awaiting_selection"
	case Submitted:
		return "submitted"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Session drives one attempt over an immutable active question list.
// It is owned by a single caller and is not safe for concurrent use.
type Session struct {
	active  []domain.Question
	retry   bool
	now     func() time.Time
	cursor  int
	phase   Phase
	answers []domain.UserAnswer

	selected           map[string]bool
	explanationVisible bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock sets the time source used to stamp answers.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession starts a session. With a non-empty retryIDs the active list is
// the subsequence of all whose ids are in retryIDs, in the order of all.
// An empty active list yields a session that is already complete.
func NewSession(all []domain.Question, retryIDs []string, opts ...SessionOption) *Session {
	s := &Session{
		active:   ActiveList(all, retryIDs),
		retry:    len(retryIDs) > 0,
		now:      time.Now,
		selected: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.answers = make([]domain.UserAnswer, 0, len(s.active))
	if len(s.active) == 0 {
		s.phase = Completed
	}
	return s
}

// ActiveList derives the questions a session will ask.
func ActiveList(all []domain.Question, retryIDs []string) []domain.Question {
	if len(retryIDs) == 0 {
		return append([]domain.Question(nil), all...)
	}
	wanted := make(map[string]struct{}, len(retryIDs))
	for _, id := range retryIDs {
		wanted[id] = struct{}{}
	}
	out := make([]domain.Question, 0, len(retryIDs))
	for _, q := range all {
		if _, ok := wanted[q.ID]; ok {
			out = append(out, q)
		}
	}
	return out
}

// IsRetry reports whether the session was scoped to a retry id set.
func (s *Session) IsRetry() bool { return s.retry }

// Total is the length of the active list.
func (s *Session) Total() int { return len(s.active) }

// Position is the zero-based cursor into the active list.
func (s *Session) Position() int { return s.cursor }

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Completed() bool { return s.phase == Completed }

// Questions returns a copy of the active list.
func (s *Session) Questions() []domain.Question {
	return append([]domain.Question(nil), s.active...)
}

// Current returns the question under the cursor. It reports false once the
// session is complete.
func (s *Session) Current() (domain.Question, bool) {
	if s.phase == Completed || s.cursor >= len(s.active) {
		return domain.Question{}, false
	}
	return s.active[s.cursor], true
}

// Selected returns the selected keys of the current question in option order.
func (s *Session) Selected() []string {
	q, ok := s.Current()
	if !ok {
		return []string{}
	}
	keys := make([]string, 0, len(s.selected))
	for _, opt := range q.Options {
		if s.selected[opt.Key] {
			keys = append(keys, opt.Key)
		}
	}
	return keys
}

// Toggle applies a selection to the current question. Single questions
// replace the prior selection; multi questions flip membership. It reports
// false when the request was ignored.
func (s *Session) Toggle(key string) bool {
	q, ok := s.Current()
	if !ok || s.phase != AwaitingSelection || !q.HasOption(key) {
		return false
	}
	if q.Type == domain.Single {
		if s.selected[key] {
			return true
		}
		clear(s.selected)
		s.selected[key] = true
		return true
	}
	if s.selected[key] {
		delete(s.selected, key)
	} else {
		s.selected[key] = true
	}
	return true
}

// Submit scores the current selection and appends the answer. An empty
// selection or a repeated submit is ignored.
func (s *Session) Submit() (domain.UserAnswer, bool) {
	q, ok := s.Current()
	if !ok || s.phase != AwaitingSelection || len(s.selected) == 0 {
		return domain.UserAnswer{}, false
	}
	selected := s.Selected()
	answer := domain.UserAnswer{
		QuestionID:      q.ID,
		SelectedOptions: selected,
		IsCorrect:       scoring.IsCorrect(selected, q.CorrectAnswers),
		Timestamp:       s.now().UnixMilli(),
	}
	s.answers = append(s.answers, answer)
	s.phase = Submitted
	return answer, true
}

// LastAnswer returns the answer recorded for the current question, if any.
func (s *Session) LastAnswer() (domain.UserAnswer, bool) {
	if s.phase != Submitted || len(s.answers) == 0 {
		return domain.UserAnswer{}, false
	}
	return s.answers[len(s.answers)-1], true
}

// RevealExplanation is only honored after submission.
func (s *Session) RevealExplanation() bool {
	if s.phase != Submitted {
		return false
	}
	s.explanationVisible = true
	return true
}

func (s *Session) ExplanationVisible() bool { return s.explanationVisible }

// Advance moves past a submitted question, completing the session after the
// last one. Transient selection and visibility state is reset.
func (s *Session) Advance() bool {
	if s.phase != Submitted {
		return false
	}
	clear(s.selected)
	s.explanationVisible = false
	if s.cursor >= len(s.active)-1 {
		s.phase = Completed
		return true
	}
	s.cursor++
	s.phase = AwaitingSelection
	return true
}

// Answers returns a copy of the answer log in submission order.
func (s *Session) Answers() []domain.UserAnswer {
	return append([]domain.UserAnswer(nil), s.answers...)
}
