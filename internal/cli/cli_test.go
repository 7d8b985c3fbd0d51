package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const bank = `{"questions": [
  {"id": "q1", "topic": "Math", "question": "What is 2 + 2?", "options": ["3", "4"], "answer": "B", "explanation": "basic arithmetic"},
  {"id": "q2", "topic": "Math", "question": "Which are prime?", "options": ["2", "4", "5"], "answer": ["A", "C"]}
]}`

func TestPlayRecordsRunsAndRetries(t *testing.T) {
	dataDir := isolate(t)
	bankPath := filepath.Join(t.TempDir(), "bank.json")
	if err := os.WriteFile(bankPath, []byte(bank), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	textfile := filepath.Join(dataDir, "certprep.prom")
	t.Setenv("CERTPREP_METRICS__TEXTFILE", textfile)

	// q1 correct with explanation, q2 half selected, then a correct retry of q2.
	input := strings.Join([]string{
		"b", "", "e", "",
		"a", "", "",
		"r",
		"a c", "", "",
		"l", "q",
	}, "\n") + "\n"

	out := run(t, input, "play", bankPath)
	for _, want := range []string{
		"Question 1/2 [Math]",
		"Explanation: basic arithmetic",
		"(select all that apply)",
		"Incorrect. Answer: A, C",
		"Score: 1/2 (50%)",
		"Question 1/1 retry [Math]",
		"Score: 1/1 (100%)",
		"Leaderboard",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	if _, err := os.Stat(textfile); err != nil {
		t.Fatalf("expected metrics textfile: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "certprep_leaderboard_v1.json")); err != nil {
		t.Fatalf("expected leaderboard slot in data dir: %v", err)
	}

	out = run(t, "", "leaderboard")
	if !strings.Contains(out, "1/1") || !strings.Contains(out, "1/2") {
		t.Fatalf("expected both runs listed:\n%s", out)
	}
	if strings.Index(out, "1/1") > strings.Index(out, "1/2") {
		t.Fatalf("expected the perfect run ranked first:\n%s", out)
	}

	run(t, "", "leaderboard", "clear")
	if out = run(t, "", "leaderboard"); !strings.Contains(out, "No runs recorded yet.") {
		t.Fatalf("expected empty leaderboard:\n%s", out)
	}
}

func TestPlayShowsLoadErrors(t *testing.T) {
	isolate(t)
	bankPath := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(bankPath, []byte(`{"title": "nothing here"}`), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}

	out := run(t, "q\n", "play", bankPath)
	if !strings.Contains(out, "Error: load failed: could not find question list in JSON") {
		t.Fatalf("expected load error on home screen:\n%s", out)
	}

	out = run(t, "q\n", "play", filepath.Join(t.TempDir(), "missing.json"))
	if !strings.Contains(out, "error reading file") {
		t.Fatalf("expected read error on home screen:\n%s", out)
	}
}

func TestPlayIgnoresUnknownKeys(t *testing.T) {
	isolate(t)
	bankPath := filepath.Join(t.TempDir(), "bank.json")
	if err := os.WriteFile(bankPath, []byte(bank), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}

	out := run(t, "z\n\nq\nq\n", "play", bankPath)
	if !strings.Contains(out, `No option "z".`) || !strings.Contains(out, "Select at least one option first.") {
		t.Fatalf("expected selection hints:\n%s", out)
	}
}

func TestConfigCommandPrintsEffectiveConfig(t *testing.T) {
	isolate(t)
	t.Setenv("CERTPREP_QUIZ__LIMIT", "65")

	out := run(t, "", "config")
	if !strings.Contains(out, "driver: file") || !strings.Contains(out, "limit: 65") || !strings.Contains(out, "key: certprep_leaderboard_v1") {
		t.Fatalf("unexpected config dump:\n%s", out)
	}
}

func TestConfigCommandRedactsSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("CERTPREP_STORAGE__REDIS__PASSWORD", "hunter2")

	out := run(t, "", "config")
	if strings.Contains(out, "hunter2") || !strings.Contains(out, "password: REDACTED") {
		t.Fatalf("expected redacted password:\n%s", out)
	}
}

func TestInvalidConfigFailsCommand(t *testing.T) {
	isolate(t)
	t.Setenv("CERTPREP_STORAGE__DRIVER", "floppy")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"leaderboard"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "floppy") {
		t.Fatalf("expected invalid driver error, got %v", err)
	}
}

// isolate points storage at a temp dir and clears inherited config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CERTPREP_CONFIG", "")
	t.Setenv("CERTPREP_STORAGE__DRIVER", "file")
	t.Setenv("CERTPREP_STORAGE__PATH", dir)
	return dir
}

func run(t *testing.T, input string, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v: %v\nstderr:\n%s", args, err, errOut.String())
	}
	return out.String()
}
