package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"certprep/internal/app"
	"certprep/internal/domain"
	"certprep/internal/infra/memory"
)

func TestSelectionDefaultsKeepFullList(t *testing.T) {
	all := fiveQuestions()
	got := app.Selection{}.Apply(all)
	if !reflect.DeepEqual(ids(got), []string{"q1", "q2", "q3", "q4", "q5"}) {
		t.Fatalf("expected unmodified list, got %v", ids(got))
	}
}

func TestSelectionLimitAndSeededShuffle(t *testing.T) {
	all := fiveQuestions()
	sel := app.Selection{Limit: 3, Shuffle: true, Seed: 42}

	first := sel.Apply(all)
	second := sel.Apply(all)
	if len(first) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(first))
	}
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Fatalf("expected seeded shuffle to repeat, got %v and %v", ids(first), ids(second))
	}
	if ids(all)[0] != "q1" {
		t.Fatalf("input must not be reordered")
	}

	seen := map[string]bool{}
	for _, q := range first {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s", q.ID)
		}
		seen[q.ID] = true
	}

	if got := (app.Selection{Limit: 10}).Apply(all); len(got) != 5 {
		t.Fatalf("limit above bank size should keep all, got %d", len(got))
	}
}

func TestLoaderParse(t *testing.T) {
	loader := app.NewLoader(nil, app.Selection{Limit: 1})

	questions, err := loader.Parse(context.Background(), []byte(`{"exam":"x","items":[{"body":"a","options":["x","y"]},{"body":"b","options":["x"]}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 1 || questions[0].Body != "a" {
		t.Fatalf("unexpected questions %+v", questions)
	}

	_, err = loader.Parse(context.Background(), []byte(`{"exam":"x"}`))
	if !errors.Is(err, domain.ErrLoad) || !errors.Is(err, domain.ErrNoQuestionList) {
		t.Fatalf("expected no question list error, got %v", err)
	}
}

func TestLoaderLoadNamedBank(t *testing.T) {
	banks := memory.NewStaticBankLoader(map[string][]domain.Question{"five.json": fiveQuestions()})
	loader := app.NewLoader(banks, app.Selection{Limit: 2})

	questions, err := loader.Load(context.Background(), "five.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(ids(questions), []string{"q1", "q2"}) {
		t.Fatalf("unexpected selection %v", ids(questions))
	}

	if _, err := loader.Load(context.Background(), "missing.json"); !errors.Is(err, domain.ErrLoad) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, err := app.NewLoader(nil, app.Selection{}).Load(context.Background(), "five.json"); !errors.Is(err, domain.ErrRead) {
		t.Fatalf("expected read error without a bank source, got %v", err)
	}
}

func TestLoaderSkipsQuestionsWithoutOptions(t *testing.T) {
	loader := app.NewLoader(nil, app.Selection{})

	questions, err := loader.Parse(context.Background(), []byte(`[{"body":"open"},{"body":"pick","options":["x","y"],"answer":"B"}]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(questions) != 1 || questions[0].Body != "pick" {
		t.Fatalf("expected only the question with options, got %+v", questions)
	}

	_, err = loader.Parse(context.Background(), []byte(`[{"body":"open"},{"body":"essay"}]`))
	if !errors.Is(err, domain.ErrLoad) || !errors.Is(err, domain.ErrNoValidQuestions) {
		t.Fatalf("expected no valid questions error, got %v", err)
	}

	banks := memory.NewStaticBankLoader(map[string][]domain.Question{
		"mixed.json": append([]domain.Question{{ID: "bare", Body: "no options"}}, fiveQuestions()[:1]...),
	})
	questions, err = app.NewLoader(banks, app.Selection{}).Load(context.Background(), "mixed.json")
	if err != nil || len(questions) != 1 || questions[0].ID != "q1" {
		t.Fatalf("expected only q1 from the named bank, got %+v (%v)", questions, err)
	}
}
