package domain

import (
	"fmt"
	"strconv"
)

// CheckAnswer verifies that an answer fits the shape of its question: selected
// choices exist, single-answer questions hold at most one choice, and table
// answers carry a single row of known columns. It does not require the answer
// to be complete; that is the engine's job when advancing.
func CheckAnswer(q Question, a Answer) error {
	switch q.Kind {
	case KindTextInput:
		if len(a.Choices) > 0 || len(a.Rows) > 0 {
			return fmt.Errorf("%w: question %d takes text", ErrInvalidAnswer, q.ID)
		}
	case KindMultipleChoice:
		if a.Text != "" || len(a.Rows) > 0 {
			return fmt.Errorf("%w: question %d takes choices", ErrInvalidAnswer, q.ID)
		}
		if q.SingleAnswerOnly && len(a.Choices) > 1 {
			return fmt.Errorf("%w: question %d accepts one choice", ErrInvalidAnswer, q.ID)
		}
		seen := make(map[int64]struct{}, len(a.Choices))
		for _, id := range a.Choices {
			if _, ok := q.Choice(id); !ok {
				return fmt.Errorf("%w: choice %d is not offered by question %d", ErrInvalidAnswer, id, q.ID)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("%w: choice %d selected twice", ErrInvalidAnswer, id)
			}
			seen[id] = struct{}{}
		}
	case KindTable:
		if a.Text != "" || len(a.Choices) > 0 {
			return fmt.Errorf("%w: question %d takes table rows", ErrInvalidAnswer, q.ID)
		}
		if len(a.Rows) > 1 {
			return fmt.Errorf("%w: question %d collects a single row", ErrInvalidAnswer, q.ID)
		}
		for _, row := range a.Rows {
			if err := checkRow(q, row); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkRow(q Question, row TableRow) error {
	seen := make(map[int64]struct{}, len(row))
	for _, cell := range row {
		col, ok := q.Column(cell.ColumnID)
		if !ok {
			return fmt.Errorf("%w: column %d is not part of question %d", ErrInvalidAnswer, cell.ColumnID, q.ID)
		}
		if _, dup := seen[cell.ColumnID]; dup {
			return fmt.Errorf("%w: column %d answered twice", ErrInvalidAnswer, cell.ColumnID)
		}
		seen[cell.ColumnID] = struct{}{}
		if col.Kind != ColumnDropdown || cell.Value == "" {
			continue
		}
		id, err := strconv.ParseInt(cell.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: column %d expects a choice id", ErrInvalidAnswer, col.ID)
		}
		found := false
		for _, c := range col.Choices {
			if c.ID == id {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: choice %d is not offered by column %d", ErrInvalidAnswer, id, col.ID)
		}
	}
	return nil
}

// CheckResponse verifies that every answer in a submitted buffer belongs to the form and fits its question.
func CheckResponse(form Form, answers Answers) error {
	if len(answers) == 0 {
		return ErrEmptyResponse
	}
	for id, a := range answers {
		i := form.IndexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %d", ErrQuestionNotFound, id)
		}
		if err := CheckAnswer(form.Questions[i], a); err != nil {
			return err
		}
	}
	return nil
}
