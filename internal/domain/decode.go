package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeQuestions parses a stored component list and rejects malformed shapes
// (missing or duplicate ids, rules that reference unknown ids) instead of
// handing them to the engine.
func DecodeQuestions(raw []byte) ([]Question, error) {
	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("%w: decode questions: %v", ErrMalformedForm, err)
	}
	if err := CheckStructure(questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedForm, err)
	}
	return questions, nil
}

// DecodeAnswers parses a stored answer buffer.
func DecodeAnswers(raw []byte) (Answers, error) {
	answers := Answers{}
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}
