package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFormNotFound indicates the requested form does not exist.
	ErrFormNotFound = errors.New("form not found")
	// ErrSessionNotFound is returned when a fill session has expired or never existed.
	ErrSessionNotFound = errors.New("fill session not found")
	// ErrQuestionNotFound indicates a question ID that is not part of the form.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNotCurrentQuestion is returned when answering a question other than the one on screen.
	ErrNotCurrentQuestion = errors.New("question is not the current question")
	// ErrInvalidAnswer indicates an answer whose shape does not fit its question.
	ErrInvalidAnswer = errors.New("invalid answer")
	// ErrCannotAdvance is returned when the current question has not been answered.
	ErrCannotAdvance = errors.New("current question is not answered")
	// ErrCannotGoBack is returned at the start of the navigation history.
	ErrCannotGoBack = errors.New("already at the first question")
	// ErrFormComplete is returned when advancing past the last reachable question.
	ErrFormComplete = errors.New("no further questions, submit the form")
	// ErrHasNext is returned when submitting while questions remain.
	ErrHasNext = errors.New("form has remaining questions")
	// ErrSessionClosed is returned for any change to an already submitted session.
	ErrSessionClosed = errors.New("fill session already submitted")
	// ErrFormChanged indicates the form was edited after the session started.
	ErrFormChanged = errors.New("form changed since the session started")
	// ErrMalformedForm indicates a stored definition that fails structural checks.
	ErrMalformedForm = errors.New("malformed form definition")
	// ErrEmptyResponse is returned when a response carries no answers.
	ErrEmptyResponse = errors.New("response has no answers")
)

// IsNotFound reports whether err means a form, session or question is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFormNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound)
}

// Problem is one authoring mistake, addressed by a path such as "questions[2].choices[0].label".
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError lists every authoring problem found in a form.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Path+": "+p.Message)
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// NavigationError reports a broken engine invariant, such as a position outside the form.
type NavigationError struct {
	Op     string
	Index  int
	Reason string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation %s at index %d: %s", e.Op, e.Index, e.Reason)
}

// PersistenceError wraps a failed load or save against a backing store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapPersistence turns a store failure into a PersistenceError. Domain errors pass through unchanged.
func WrapPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	var ve *ValidationError
	if IsNotFound(err) || errors.As(err, &pe) || errors.As(err, &ve) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
