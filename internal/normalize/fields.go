package normalize

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Accepted key names per logical field, most specific first.
var (
	idKeys          = []string{"id", "_id", "questionId", "question_id", "uuid"}
	indexKeys       = []string{"index", "number", "questionNumber", "question_number", "no"}
	topicKeys       = []string{"topic", "category", "domain", "section", "subject"}
	bodyKeys        = []string{"body", "question", "prompt", "text", "stem", "questionText"}
	optionListKeys  = []string{"options", "choices", "answerOptions", "answer_options"}
	correctKeys     = []string{"correctAnswers", "correct_answers", "correctAnswer", "correct_answer", "answer", "answers", "correct", "solution", "key"}
	explanationKeys = []string{"explanation", "rationale", "explain", "reason", "feedback"}

	optionKeyKeys  = []string{"key", "letter", "id", "label"}
	optionTextKeys = []string{"text", "value", "content", "body", "option", "answer"}
	optionFlagKeys = []string{"correct", "isCorrect", "is_correct", "isAnswer"}
)

// firstText returns the first non-blank string or number found under keys.
func firstText(obj gjson.Result, keys ...string) string {
	for _, key := range keys {
		if s, ok := scalarText(obj.Get(key)); ok {
			return s
		}
	}
	return ""
}

// firstInt returns the first integer found under keys, accepting numeric strings.
func firstInt(obj gjson.Result, keys ...string) (int, bool) {
	for _, key := range keys {
		v := obj.Get(key)
		switch v.Type {
		case gjson.Number:
			return int(v.Int()), true
		case gjson.String:
			if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// firstFlag reports whether any of keys holds boolean true.
func firstFlag(obj gjson.Result, keys ...string) bool {
	for _, key := range keys {
		if v := obj.Get(key); v.Type == gjson.True {
			return true
		}
	}
	return false
}

// firstPresent returns the first member under keys that is neither missing nor null.
func firstPresent(obj gjson.Result, keys ...string) (gjson.Result, bool) {
	for _, key := range keys {
		if v := obj.Get(key); v.Exists() && v.Type != gjson.Null {
			return v, true
		}
	}
	return gjson.Result{}, false
}

func scalarText(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		return s, s != ""
	case gjson.Number:
		return v.Raw, true
	}
	return "", false
}

// positionalKey labels the i-th option of a list that carries no keys.
func positionalKey(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}
