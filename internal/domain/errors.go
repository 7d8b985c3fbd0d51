package domain

import "errors"

var (
	// ErrLoad is the umbrella kind for every reason a question file cannot start a quiz.
	ErrLoad = errors.New("load failed")
	// ErrInvalidDocument is returned when the file is not parseable JSON.
	ErrInvalidDocument = errors.New("invalid JSON document")
	// ErrNoQuestionList is returned when no array of questions can be located in the document.
	ErrNoQuestionList = errors.New("could not find question list in JSON")
	// ErrNoValidQuestions is returned when normalization keeps zero questions.
	ErrNoValidQuestions = errors.New("no valid questions found")
	// ErrRead indicates the underlying file read failed.
	ErrRead = errors.New("error reading file")
	// ErrPersistence indicates the durable key-value storage failed.
	ErrPersistence = errors.New("persistence failed")
	// ErrKeyNotFound is returned by key-value stores for a slot that was never written.
	ErrKeyNotFound = errors.New("key not found")
)
