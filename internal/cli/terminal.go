package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode"

	"certprep/internal/app"
	"certprep/internal/domain"
)

// terminal renders a Flow as text and turns input lines into flow events.
type terminal struct {
	in     *bufio.Scanner
	out    io.Writer
	flow   *app.Flow
	loader *app.Loader
	source string
}

func newTerminal(in io.Reader, out io.Writer, flow *app.Flow, loader *app.Loader, source string) *terminal {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &terminal{in: sc, out: out, flow: flow, loader: loader, source: source}
}

// Run loads the source file and processes input until the user quits or
// input ends.
func (t *terminal) Run(ctx context.Context) error {
	t.load(ctx)
	for {
		t.render()
		if !t.in.Scan() {
			fmt.Fprintln(t.out)
			return t.in.Err()
		}
		if t.handle(ctx, t.in.Text()) {
			return nil
		}
	}
}

func (t *terminal) load(ctx context.Context) {
	questions, err := t.loader.Load(ctx, t.source)
	if err != nil {
		t.flow.Dispatch(ctx, app.LoadFailed{Err: err})
		return
	}
	t.flow.Dispatch(ctx, app.Loaded{Questions: questions})
}

// handle applies one input line and reports whether the user asked to quit.
func (t *terminal) handle(ctx context.Context, line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	st := t.flow.State()
	switch st.Screen {
	case app.ScreenHome:
		switch cmd {
		case "", "p":
			t.load(ctx)
		case "l":
			t.flow.Dispatch(ctx, app.OpenLeaderboard{})
		case "q":
			return true
		default:
			t.unknown(line)
		}
	case app.ScreenQuiz:
		t.handleQuiz(ctx, st.Session, line)
	case app.ScreenSummary:
		switch cmd {
		case "r":
			if !t.flow.Dispatch(ctx, app.RetryIncorrect{}) {
				fmt.Fprintln(t.out, "Nothing to retry.")
			}
		case "l":
			t.flow.Dispatch(ctx, app.OpenLeaderboard{})
		case "h":
			t.flow.Dispatch(ctx, app.GoHome{})
		case "q":
			return true
		default:
			t.unknown(line)
		}
	case app.ScreenLeaderboard:
		switch cmd {
		case "", "b":
			t.flow.Dispatch(ctx, app.CloseLeaderboard{})
		case "c":
			t.flow.Dispatch(ctx, app.ClearLeaderboard{})
		case "q":
			return true
		default:
			t.unknown(line)
		}
	}
	return false
}

func (t *terminal) handleQuiz(ctx context.Context, s *app.Session, line string) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if s.Phase() == app.Submitted {
		switch cmd {
		case "", "n":
			t.flow.Dispatch(ctx, app.Next{})
		case "e":
			t.flow.Dispatch(ctx, app.RevealExplanation{})
		case "q":
			t.flow.Dispatch(ctx, app.GoHome{})
		default:
			t.unknown(line)
		}
		return
	}

	switch cmd {
	case "", "s":
		if !t.flow.Dispatch(ctx, app.Submit{}) {
			fmt.Fprintln(t.out, "Select at least one option first.")
		}
		return
	case "q":
		t.flow.Dispatch(ctx, app.GoHome{})
		return
	}
	q, _ := s.Current()
	tokens := strings.FieldsFunc(line, func(r rune) bool { return unicode.IsSpace(r) || r == ',' })
	for _, tok := range tokens {
		if !t.flow.Dispatch(ctx, app.SelectOption{Key: optionKey(q, tok)}) {
			fmt.Fprintf(t.out, "No option %q.\n", tok)
		}
	}
}

// optionKey matches typed keys case-insensitively against the question's keys.
func optionKey(q domain.Question, typed string) string {
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Key, typed) {
			return opt.Key
		}
	}
	return typed
}

func (t *terminal) unknown(line string) {
	fmt.Fprintf(t.out, "Unknown command %q.\n", strings.TrimSpace(line))
}

func (t *terminal) render() {
	st := t.flow.State()
	switch st.Screen {
	case app.ScreenHome:
		fmt.Fprintf(t.out, "\ncertprep: %s\n", t.source)
		if st.LoadErr != "" {
			fmt.Fprintf(t.out, "Error: %s\n", st.LoadErr)
		}
		fmt.Fprintln(t.out, "[enter] start  [l] leaderboard  [q] quit")
	case app.ScreenQuiz:
		t.renderQuestion(st.Session)
	case app.ScreenSummary:
		sum := st.Summary
		fmt.Fprintf(t.out, "\nScore: %d/%d (%d%%)\n", sum.Correct, sum.Total, sum.Accuracy)
		if len(sum.IncorrectIDs) > 0 {
			fmt.Fprintf(t.out, "Incorrect: %d\n", len(sum.IncorrectIDs))
			fmt.Fprintln(t.out, "[r] retry incorrect  [l] leaderboard  [h] home  [q] quit")
		} else {
			fmt.Fprintln(t.out, "[l] leaderboard  [h] home  [q] quit")
		}
	case app.ScreenLeaderboard:
		fmt.Fprintln(t.out, "\nLeaderboard")
		printEntries(t.out, st.Entries)
		fmt.Fprintln(t.out, "[enter] back  [c] clear  [q] quit")
	}
	fmt.Fprint(t.out, "> ")
}

func (t *terminal) renderQuestion(s *app.Session) {
	q, ok := s.Current()
	if !ok {
		return
	}
	mode := ""
	if s.IsRetry() {
		mode = " retry"
	}
	fmt.Fprintf(t.out, "\nQuestion %d/%d%s [%s]\n%s\n", s.Position()+1, s.Total(), mode, q.Topic, q.Body)
	if q.Type == domain.Multi {
		fmt.Fprintln(t.out, "(select all that apply)")
	}

	answer, submitted := s.LastAnswer()
	selected := make(map[string]bool)
	for _, k := range s.Selected() {
		selected[k] = true
	}
	for _, k := range answer.SelectedOptions {
		selected[k] = true
	}
	for _, opt := range q.Options {
		box := "[ ]"
		if selected[opt.Key] {
			box = "[x]"
		}
		mark := ""
		if submitted && q.IsCorrectKey(opt.Key) {
			mark = "  *"
		}
		fmt.Fprintf(t.out, " %s %s. %s%s\n", box, opt.Key, opt.Text, mark)
	}

	if !submitted {
		fmt.Fprintln(t.out, "[keys] toggle  [enter] submit  [q] home")
		return
	}
	if answer.IsCorrect {
		fmt.Fprintln(t.out, "Correct!")
	} else {
		fmt.Fprintf(t.out, "Incorrect. Answer: %s\n", strings.Join(q.CorrectAnswers, ", "))
	}
	if s.ExplanationVisible() {
		explanation := q.Explanation
		if explanation == "" {
			explanation = app.MissingExplanation
		}
		fmt.Fprintf(t.out, "Explanation: %s\n", explanation)
	}
	fmt.Fprintln(t.out, "[enter] next  [e] explanation  [q] home")
}

// printEntries writes ranked leaderboard entries as a table.
func printEntries(w io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tSCORE\tACCURACY")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%d%%\n", i+1, e.Date.Local().Format("2006-01-02 15:04"), e.Correct, e.TotalAnswered, e.Accuracy)
	}
	_ = tw.Flush()
}
