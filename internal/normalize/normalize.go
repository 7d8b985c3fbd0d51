package normalize

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"html"
	"strconv"
	"strings"
	"unicode"

	"certprep/internal/domain"
	"github.com/tidwall/gjson"
)

// Per-item rejection reasons.
var (
	errNotObject       = errors.New("not an object")
	errMissingBody     = errors.New("missing body")
	errInvalidOption   = errors.New("invalid option")
	errDuplicateKey    = errors.New("duplicate option key")
	errDanglingAnswers = errors.New("correct answers reference no option")
)

// Stats describes what happened to a batch.
type Stats struct {
	Total    int
	Kept     int
	Rejected map[string]int // reason -> count
}

// Dropped is the number of records that did not survive normalization.
func (s Stats) Dropped() int {
	return s.Total - s.Kept
}

// Normalize converts raw records into questions, preserving source order and
// silently dropping records that cannot be repaired.
func Normalize(items []gjson.Result) []domain.Question {
	questions, _ := NormalizeWithStats(items)
	return questions
}

// NormalizeWithStats is Normalize plus a per-reason rejection count.
func NormalizeWithStats(items []gjson.Result) ([]domain.Question, Stats) {
	stats := Stats{Total: len(items), Rejected: make(map[string]int)}
	questions := make([]domain.Question, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for pos, item := range items {
		q, err := normalizeItem(pos, item)
		if err != nil {
			stats.Rejected[err.Error()]++
			continue
		}
		if _, dup := seen[q.ID]; q.ID == "" || dup {
			q.ID = derivedID(pos, q)
		}
		for n := 2; ; n++ {
			if _, dup := seen[q.ID]; !dup {
				break
			}
			q.ID = derivedID(pos, q) + "-" + strconv.Itoa(n)
		}
		seen[q.ID] = struct{}{}
		questions = append(questions, q)
	}
	stats.Kept = len(questions)
	return questions, stats
}

func normalizeItem(pos int, item gjson.Result) (domain.Question, error) {
	if !item.IsObject() {
		return domain.Question{}, errNotObject
	}
	body := firstText(item, bodyKeys...)
	if body == "" {
		return domain.Question{}, errMissingBody
	}
	if isOpenTDB(item) {
		body = html.UnescapeString(body)
	}

	options, flagged, err := extractOptions(item, body)
	if err != nil {
		return domain.Question{}, err
	}
	declared := flagged
	if !isOpenTDB(item) {
		declared = append(declared, extractCorrect(item, options)...)
	}
	correct := keepKnownKeys(declared, options)
	if len(options) > 0 && len(declared) > 0 && len(correct) == 0 {
		return domain.Question{}, errDanglingAnswers
	}

	q := domain.Question{
		ID:             firstText(item, idKeys...),
		Index:          pos + 1,
		Topic:          firstText(item, topicKeys...),
		Body:           body,
		Type:           domain.Multi,
		Options:        options,
		CorrectAnswers: correct,
		Explanation:    firstText(item, explanationKeys...),
	}
	if n, ok := firstInt(item, indexKeys...); ok {
		q.Index = n
	}
	if q.Topic == "" {
		q.Topic = domain.DefaultTopic
	}
	if len(correct) == 1 {
		q.Type = domain.Single
	}
	return q, nil
}

// extractOptions returns the ordered option list and the keys flagged correct
// on the options themselves.
func extractOptions(item gjson.Result, body string) ([]domain.Option, []string, error) {
	list, ok := firstPresent(item, optionListKeys...)
	if !ok {
		if isOpenTDB(item) {
			return openTDBOptions(item, item.Get("incorrect_answers"), body)
		}
		return []domain.Option{}, nil, nil
	}

	var (
		options []domain.Option
		flagged []string
		bad     bool
	)
	add := func(fallbackKey string, v gjson.Result) {
		opt, isCorrect, ok := parseOption(fallbackKey, v)
		if !ok {
			bad = true
			return
		}
		options = append(options, opt)
		if isCorrect {
			flagged = append(flagged, opt.Key)
		}
	}

	switch {
	case list.IsArray():
		for i, v := range list.Array() {
			add(positionalKey(i), v)
		}
	case list.IsObject():
		list.ForEach(func(key, v gjson.Result) bool {
			add(strings.TrimSpace(key.String()), v)
			return true
		})
	default:
		return nil, nil, errInvalidOption
	}
	if bad {
		return nil, nil, errInvalidOption
	}

	keys := make(map[string]struct{}, len(options))
	for _, opt := range options {
		if _, dup := keys[opt.Key]; dup {
			return nil, nil, errDuplicateKey
		}
		keys[opt.Key] = struct{}{}
	}
	if options == nil {
		options = []domain.Option{}
	}
	return options, flagged, nil
}

func parseOption(fallbackKey string, v gjson.Result) (domain.Option, bool, bool) {
	if text, ok := scalarText(v); ok {
		return domain.Option{Key: fallbackKey, Text: text}, false, fallbackKey != ""
	}
	if !v.IsObject() {
		return domain.Option{}, false, false
	}
	key := firstText(v, optionKeyKeys...)
	if key == "" {
		key = fallbackKey
	}
	opt := domain.Option{Key: key, Text: firstText(v, optionTextKeys...)}
	return opt, firstFlag(v, optionFlagKeys...), key != ""
}

func isOpenTDB(item gjson.Result) bool {
	_, hasList := firstPresent(item, optionListKeys...)
	return !hasList && item.Get("incorrect_answers").IsArray()
}

// openTDBOptions handles the {correct_answer, incorrect_answers} shape. The
// correct answer is inserted at a hash-derived slot so it is not always last.
func openTDBOptions(item, incorrect gjson.Result, body string) ([]domain.Option, []string, error) {
	texts := make([]string, 0, len(incorrect.Array())+1)
	for _, v := range incorrect.Array() {
		text, ok := scalarText(v)
		if !ok {
			return nil, nil, errInvalidOption
		}
		texts = append(texts, html.UnescapeString(text))
	}
	right, ok := scalarText(item.Get("correct_answer"))
	if !ok {
		return nil, nil, errInvalidOption
	}
	slot := int(hashUint(body) % uint64(len(texts)+1))
	texts = append(texts[:slot], append([]string{html.UnescapeString(right)}, texts[slot:]...)...)

	options := make([]domain.Option, len(texts))
	for i, text := range texts {
		options[i] = domain.Option{Key: positionalKey(i), Text: text}
	}
	return options, []string{options[slot].Key}, nil
}

// extractCorrect reads the first usable correctness annotation. Tokens that
// cannot be matched to an option are returned as-is so the caller can tell a
// dangling reference from a missing one.
func extractCorrect(item gjson.Result, options []domain.Option) []string {
	for _, key := range correctKeys {
		v := item.Get(key)
		switch {
		case v.Type == gjson.String:
			if tokens := resolveString(v.Str, options); len(tokens) > 0 {
				return tokens
			}
		case v.Type == gjson.Number:
			return []string{resolveIndex(int(v.Int()), options)}
		case v.IsArray():
			var tokens []string
			usable := true
			for _, el := range v.Array() {
				switch el.Type {
				case gjson.String:
					tokens = append(tokens, resolveString(el.Str, options)...)
				case gjson.Number:
					tokens = append(tokens, resolveIndex(int(el.Int()), options))
				default:
					usable = false
				}
			}
			if usable && len(tokens) > 0 {
				return tokens
			}
		}
	}
	return nil
}

func resolveString(raw string, options []domain.Option) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if key, ok := matchKey(s, options); ok {
		return []string{key}
	}
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.Text), s) {
			return []string{opt.Key}
		}
	}

	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '/' || unicode.IsSpace(r)
	})
	if len(parts) > 1 {
		return allKeys(s, parts, options)
	}

	// "AC" style: every character is a key.
	if runes := []rune(s); len(runes) > 1 {
		chars := make([]string, len(runes))
		for i, r := range runes {
			chars[i] = string(r)
		}
		return allKeys(s, chars, options)
	}
	return []string{s}
}

// allKeys maps every token to a key, or returns raw unchanged when any token
// is not a key; "a dog" must not resolve to option A.
func allKeys(raw string, tokens []string, options []domain.Option) []string {
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		key, ok := matchKey(t, options)
		if !ok {
			return []string{raw}
		}
		keys = append(keys, key)
	}
	return keys
}

// resolveIndex prefers an option whose key is the number itself and only
// then reads n as a 0-based position.
func resolveIndex(n int, options []domain.Option) string {
	if key, ok := matchKey(strconv.Itoa(n), options); ok {
		return key
	}
	if n >= 0 && n < len(options) {
		return options[n].Key
	}
	return strconv.Itoa(n)
}

func matchKey(token string, options []domain.Option) (string, bool) {
	for _, opt := range options {
		if strings.EqualFold(opt.Key, token) {
			return opt.Key, true
		}
	}
	return "", false
}

// keepKnownKeys drops keys missing from options and returns the rest in option order.
func keepKnownKeys(declared []string, options []domain.Option) []string {
	want := make(map[string]struct{}, len(declared))
	for _, k := range declared {
		want[k] = struct{}{}
	}
	correct := make([]string, 0, len(declared))
	for _, opt := range options {
		if _, ok := want[opt.Key]; ok {
			correct = append(correct, opt.Key)
		}
	}
	return correct
}

func derivedID(pos int, q domain.Question) string {
	var b strings.Builder
	b.WriteString(q.Topic)
	b.WriteString("|")
	b.WriteString(q.Body)
	for _, opt := range q.Options {
		b.WriteString("|")
		b.WriteString(opt.Key)
		b.WriteString("=")
		b.WriteString(opt.Text)
	}
	sum := sha1.Sum([]byte(b.String()))
	return "q" + strconv.Itoa(pos+1) + "-" + hex.EncodeToString(sum[:6])
}

func hashUint(s string) uint64 {
	sum := sha1.Sum([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}
