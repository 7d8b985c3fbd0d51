// Package normalize turns loosely structured question exports into domain questions.
//
// Input is untrusted: every logical field is looked up under several accepted
// key names, each record is normalized on its own, and a record that cannot be
// repaired is dropped without affecting the rest of the batch.
package normalize

import (
	"bytes"
	"fmt"

	"certprep/internal/domain"
	"github.com/tidwall/gjson"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Extract locates the question list inside a JSON document. A top-level array
// is the list itself; for an object the first array-valued member, in document
// order, is used. A leading UTF-8 byte order mark is ignored.
func Extract(data []byte) ([]gjson.Result, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %w", domain.ErrLoad, domain.ErrInvalidDocument)
	}
	doc := gjson.ParseBytes(data)
	if doc.IsArray() {
		return doc.Array(), nil
	}
	if doc.IsObject() {
		var items []gjson.Result
		found := false
		doc.ForEach(func(_, value gjson.Result) bool {
			if value.IsArray() {
				items = value.Array()
				found = true
				return false
			}
			return true
		})
		if found {
			return items, nil
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrLoad, domain.ErrNoQuestionList)
}

// Load extracts and normalizes a document in one step. Zero surviving
// questions is reported as domain.ErrNoValidQuestions.
func Load(data []byte) ([]domain.Question, Stats, error) {
	items, err := Extract(data)
	if err != nil {
		return nil, Stats{}, err
	}
	questions, stats := NormalizeWithStats(items)
	if len(questions) == 0 {
		return nil, stats, fmt.Errorf("%w: %w", domain.ErrLoad, domain.ErrNoValidQuestions)
	}
	return questions, stats, nil
}
