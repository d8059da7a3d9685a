// Package engine decides which question a respondent sees next.
//
// A Plan is built once per loaded form definition and answers pure questions
// about navigation. A Traversal wraps a Plan with the mutable state of one
// fill session: the answer buffer, the navigation history and the lifecycle
// state.
package engine

import "formflow/internal/domain"

// Outcome is the result of computing the step after a question.
type Outcome struct {
	// Index is the next question position. Only meaningful when End is false.
	Index int
	// End is set when no question follows and the form is ready to submit.
	End bool
	// RuleDriven is set when a branching rule chose the step.
	RuleDriven bool
}

// Plan is the navigation view of an immutable form definition.
type Plan struct {
	form      domain.Form
	positions map[int64]int
	targets   map[int]struct{}
}

// NewPlan indexes a form for navigation. The set of conditional targets is
// computed here once rather than on every step.
func NewPlan(form domain.Form) (*Plan, error) {
	if len(form.Questions) == 0 {
		return nil, &domain.NavigationError{Op: "plan", Index: 0, Reason: "form has no questions"}
	}
	p := &Plan{
		form:      form,
		positions: make(map[int64]int, len(form.Questions)),
		targets:   make(map[int]struct{}),
	}
	for i, q := range form.Questions {
		if _, dup := p.positions[q.ID]; !dup {
			p.positions[q.ID] = i
		}
	}
	for _, q := range form.Questions {
		for _, r := range q.Rules {
			if i, ok := p.positions[r.TargetQuestionID]; ok {
				p.targets[i] = struct{}{}
			}
		}
	}
	return p, nil
}

// Form returns the definition the plan was built from.
func (p *Plan) Form() domain.Form {
	return p.form
}

// Len returns the number of questions.
func (p *Plan) Len() int {
	return len(p.form.Questions)
}

// Question returns the question at index i.
func (p *Plan) Question(i int) (domain.Question, error) {
	if i < 0 || i >= len(p.form.Questions) {
		return domain.Question{}, &domain.NavigationError{Op: "question", Index: i, Reason: "index out of range"}
	}
	return p.form.Questions[i], nil
}

// Position returns the index of the question with the given id.
func (p *Plan) Position(questionID int64) (int, bool) {
	i, ok := p.positions[questionID]
	return i, ok
}

// IsConditionalTarget reports whether the question at index i is the target of any rule.
// Such questions are only shown when a rule sends the respondent there.
func (p *Plan) IsConditionalTarget(i int) bool {
	_, ok := p.targets[i]
	return ok
}

// Next computes where the respondent goes after the question at current.
func (p *Plan) Next(answers domain.Answers, current int) (Outcome, error) {
	q, err := p.Question(current)
	if err != nil {
		return Outcome{}, err
	}

	candidate := current + 1
	ruleDriven := false
	if q.Branches() {
		if a, ok := answers[q.ID]; ok && len(a.Choices) == 1 {
			if rule, ok := q.RuleFor(a.Choices[0]); ok {
				ruleDriven = true
				if target, ok := p.positions[rule.TargetQuestionID]; ok {
					candidate = target
				} else {
					candidate = len(p.form.Questions)
				}
			}
		}
	}

	if candidate >= len(p.form.Questions) {
		return Outcome{End: true, RuleDriven: ruleDriven}, nil
	}
	if ruleDriven {
		return Outcome{Index: candidate, RuleDriven: true}, nil
	}
	for i := candidate; i < len(p.form.Questions); i++ {
		if !p.IsConditionalTarget(i) {
			return Outcome{Index: i}, nil
		}
	}
	return Outcome{End: true}, nil
}

// HasNext reports whether Next would land on a question.
func (p *Plan) HasNext(answers domain.Answers, current int) bool {
	out, err := p.Next(answers, current)
	return err == nil && !out.End
}

// CanAdvance reports whether the answer buffer holds a usable answer for q.
func CanAdvance(q domain.Question, answers domain.Answers) bool {
	a, ok := answers[q.ID]
	switch q.Kind {
	case domain.KindTextInput:
		return ok && a.Text != ""
	case domain.KindMultipleChoice:
		return ok && len(a.Choices) > 0
	case domain.KindTable:
		if !ok || len(a.Rows) == 0 {
			return false
		}
		for _, row := range a.Rows {
			if len(row) == 0 {
				return false
			}
			for _, cell := range row {
				if cell.Value == "" {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}
