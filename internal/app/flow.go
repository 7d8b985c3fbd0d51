package app

import (
	"context"
	"fmt"
	"time"

	"certprep/internal/domain"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
	"github.com/google/uuid"
)

// Screen enumerates the user-facing views of a quiz flow.
type Screen string

const (
	ScreenHome        Screen = "home"
	ScreenQuiz        Screen = "quiz"
	ScreenSummary     Screen = "summary"
	ScreenLeaderboard Screen = "leaderboard"
)

// MissingExplanation is shown when a revealed question has no explanation.
const MissingExplanation = "No explanation provided for this question."

// State is the complete application state. Questions, Session and Summary
// exist only while a question set is loaded.
type State struct {
	Screen    Screen
	Questions []domain.Question
	Session   *Session
	Summary   *domain.Summary
	Entries   []domain.LeaderboardEntry
	LoadErr   string
}

// Event is a user intent or collaborator callback applied by Flow.Dispatch.
type Event interface {
	isEvent()
}

type (
	// Loaded carries a normalized, selected question list.
	Loaded struct{ Questions []domain.Question }

	// LoadFailed carries a load or read failure to show on the home screen.
	LoadFailed struct{ Err error }

	// SelectOption toggles an option key on the current question.
	SelectOption struct{ Key string }

	// Submit scores the current selection.
	Submit struct{}

	// RevealExplanation shows the explanation of a submitted question.
	RevealExplanation struct{}

	// Next advances past a submitted question.
	Next struct{}

	// RetryIncorrect starts a session over the last summary's incorrect ids.
	RetryIncorrect struct{}

	// GoHome discards the loaded question set.
	GoHome struct{}

	OpenLeaderboard  struct{}
	CloseLeaderboard struct{}
	ClearLeaderboard struct{}
)

func (Loaded) isEvent()            {}
func (LoadFailed) isEvent()        {}
func (SelectOption) isEvent()      {}
func (Submit) isEvent()            {}
func (RevealExplanation) isEvent() {}
func (Next) isEvent()              {}
func (RetryIncorrect) isEvent()    {}
func (GoHome) isEvent()            {}
func (OpenLeaderboard) isEvent()   {}
func (CloseLeaderboard) isEvent()  {}
func (ClearLeaderboard) isEvent()  {}

// Flow owns the screen state machine. Clock and run ids are injected so the
// same event log always replays to the same state.
type Flow struct {
	state   State
	board   *Leaderboard
	now     func() time.Time
	runID   func() string
	log     logger.Logger
	metrics *metrics.Recorder
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

func WithFlowClock(now func() time.Time) FlowOption {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithRunIDs sets the generator for leaderboard run ids.
func WithRunIDs(next func() string) FlowOption {
	return func(f *Flow) {
		if next != nil {
			f.runID = next
		}
	}
}

func WithFlowLogger(log logger.Logger) FlowOption {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

func WithFlowMetrics(rec *metrics.Recorder) FlowOption {
	return func(f *Flow) { f.metrics = rec }
}

// NewFlow starts on the home screen.
func NewFlow(board *Leaderboard, opts ...FlowOption) *Flow {
	f := &Flow{
		state: State{Screen: ScreenHome},
		board: board,
		now:   time.Now,
		runID: uuid.NewString,
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current state. The Session pointer must be treated as read-only.
func (f *Flow) State() State {
	return f.state
}

// Dispatch applies ev and reports whether it changed anything. Events that
// do not apply to the current screen are ignored.
func (f *Flow) Dispatch(ctx context.Context, ev Event) bool {
	s := &f.state
	switch e := ev.(type) {
	case Loaded:
		if s.Screen != ScreenHome {
			return false
		}
		if len(e.Questions) == 0 {
			s.LoadErr = fmt.Errorf("%w: %w", domain.ErrLoad, domain.ErrNoValidQuestions).Error()
			return true
		}
		s.Questions = e.Questions
		s.LoadErr = ""
		f.startSession(ctx, nil)
		return true

	case LoadFailed:
		if s.Screen != ScreenHome || e.Err == nil {
			return false
		}
		s.LoadErr = e.Err.Error()
		f.log.Warn(ctx, "question file rejected", logger.Error(e.Err))
		return true

	case SelectOption:
		if s.Screen != ScreenQuiz {
			return false
		}
		return s.Session.Toggle(e.Key)

	case Submit:
		if s.Screen != ScreenQuiz {
			return false
		}
		answer, ok := s.Session.Submit()
		if ok {
			f.metrics.AnswerSubmitted(answer.IsCorrect)
		}
		return ok

	case RevealExplanation:
		if s.Screen != ScreenQuiz {
			return false
		}
		return s.Session.RevealExplanation()

	case Next:
		if s.Screen != ScreenQuiz || !s.Session.Advance() {
			return false
		}
		if s.Session.Completed() {
			f.complete(ctx)
		}
		return true

	case RetryIncorrect:
		if s.Screen != ScreenSummary || s.Summary == nil || len(s.Summary.IncorrectIDs) == 0 {
			return false
		}
		f.startSession(ctx, s.Summary.IncorrectIDs)
		return true

	case GoHome:
		if s.Screen == ScreenHome {
			return false
		}
		*s = State{Screen: ScreenHome}
		return true

	case OpenLeaderboard:
		if s.Screen != ScreenHome && s.Screen != ScreenSummary {
			return false
		}
		s.Entries = f.board.List(ctx)
		s.Screen = ScreenLeaderboard
		return true

	case CloseLeaderboard:
		if s.Screen != ScreenLeaderboard {
			return false
		}
		s.Entries = nil
		if len(s.Questions) > 0 && s.Summary != nil {
			s.Screen = ScreenSummary
		} else {
			s.Screen = ScreenHome
		}
		return true

	case ClearLeaderboard:
		if s.Screen != ScreenLeaderboard {
			return false
		}
		if err := f.board.Clear(ctx); err != nil {
			f.log.Error(ctx, "leaderboard clear failed", logger.Error(err))
		}
		s.Entries = f.board.List(ctx)
		return true
	}
	return false
}

func (f *Flow) startSession(ctx context.Context, retryIDs []string) {
	s := &f.state
	s.Session = NewSession(s.Questions, retryIDs, WithClock(f.now))
	s.Summary = nil
	s.Screen = ScreenQuiz

	mode := metrics.ModeFull
	if len(retryIDs) > 0 {
		mode = metrics.ModeRetry
	}
	f.metrics.SessionStarted(mode)
	f.log.Info(ctx, "session started", logger.String("mode", mode), logger.Int("questions", s.Session.Total()))

	if s.Session.Completed() {
		f.complete(ctx)
	}
}

func (f *Flow) complete(ctx context.Context) {
	s := &f.state
	sum := Summarize(s.Session.Answers())
	s.Summary = &sum
	s.Screen = ScreenSummary
	f.metrics.SessionCompleted()

	if sum.Total == 0 {
		return
	}
	entry := NewEntry(f.runID(), f.now(), sum)
	if err := f.board.Append(ctx, entry); err != nil {
		f.metrics.LeaderboardWriteFailed()
		f.log.Error(ctx, "leaderboard write failed; run not recorded",
			logger.String("run_id", entry.RunID), logger.Error(err))
		return
	}
	f.log.Info(ctx, "session recorded",
		logger.String("run_id", entry.RunID),
		logger.Int("correct", entry.Correct),
		logger.Int("total", entry.TotalAnswered),
		logger.Int("accuracy", entry.Accuracy))
}
