package domain

import (
	"fmt"
	"strings"
)

type problems struct {
	list []Problem
}

func (p *problems) add(path, format string, args ...any) {
	p.list = append(p.list, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (p *problems) err() error {
	if len(p.list) == 0 {
		return nil
	}
	return &ValidationError{Problems: p.list}
}

// ValidateForm runs every authoring check a form must pass before it is saved.
func ValidateForm(title string, questions []Question) error {
	var p problems
	if strings.TrimSpace(title) == "" {
		p.add("title", "title is required")
	}
	if len(questions) == 0 {
		p.add("questions", "at least one question is required")
	}
	checkStructure(&p, questions)
	for i, q := range questions {
		checkContent(&p, fmt.Sprintf("questions[%d]", i), q)
	}
	return p.err()
}

// CheckStructure verifies the shape of a question list: ids present and unique,
// kinds known, and branching rules pointing forward at ids that exist.
func CheckStructure(questions []Question) error {
	var p problems
	checkStructure(&p, questions)
	return p.err()
}

func checkStructure(p *problems, questions []Question) {
	positions := make(map[int64]int, len(questions))
	for i, q := range questions {
		path := fmt.Sprintf("questions[%d]", i)
		if q.ID == 0 {
			p.add(path+".id", "id is required")
		} else if first, dup := positions[q.ID]; dup {
			p.add(path+".id", "id %d duplicates questions[%d]", q.ID, first)
		} else {
			positions[q.ID] = i
		}
		if !q.Kind.Known() {
			p.add(path+".kind", "unknown kind %q", q.Kind)
		}
		checkChoiceIDs(p, path+".choices", q.Choices)
		columns := make(map[int64]struct{}, len(q.Columns))
		for j, c := range q.Columns {
			cpath := fmt.Sprintf("%s.columns[%d]", path, j)
			if c.ID == 0 {
				p.add(cpath+".id", "id is required")
			} else if _, dup := columns[c.ID]; dup {
				p.add(cpath+".id", "duplicate column id %d", c.ID)
			}
			columns[c.ID] = struct{}{}
			if c.Kind != ColumnTextInput && c.Kind != ColumnDropdown {
				p.add(cpath+".kind", "unknown column kind %q", c.Kind)
			}
			checkChoiceIDs(p, cpath+".choices", c.Choices)
		}
	}

	for i, q := range questions {
		triggers := make(map[int64]struct{}, len(q.Rules))
		for j, r := range q.Rules {
			rpath := fmt.Sprintf("questions[%d].branchingRules[%d]", i, j)
			if _, ok := q.Choice(r.TriggerChoiceID); !ok {
				p.add(rpath+".triggerChoiceId", "choice %d does not belong to the question", r.TriggerChoiceID)
			} else if _, dup := triggers[r.TriggerChoiceID]; dup {
				p.add(rpath+".triggerChoiceId", "choice %d already has a rule", r.TriggerChoiceID)
			}
			triggers[r.TriggerChoiceID] = struct{}{}

			target, ok := positions[r.TargetQuestionID]
			switch {
			case !ok:
				p.add(rpath+".targetQuestionId", "question %d does not exist", r.TargetQuestionID)
			case target <= i:
				p.add(rpath+".targetQuestionId", "question %d is not after this question", r.TargetQuestionID)
			}
		}
	}
}

func checkChoiceIDs(p *problems, path string, choices []Choice) {
	seen := make(map[int64]struct{}, len(choices))
	for i, c := range choices {
		if c.ID == 0 {
			p.add(fmt.Sprintf("%s[%d].id", path, i), "id is required")
			continue
		}
		if _, dup := seen[c.ID]; dup {
			p.add(fmt.Sprintf("%s[%d].id", path, i), "duplicate choice id %d", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
}

func checkContent(p *problems, path string, q Question) {
	if strings.TrimSpace(q.Question) == "" {
		p.add(path+".question", "question text is required")
	}
	if q.Kind != KindMultipleChoice && len(q.Rules) > 0 {
		p.add(path+".branchingRules", "only multiple-choice questions can branch")
	}

	switch q.Kind {
	case KindTextInput:
		if q.MinLength != nil && *q.MinLength < 0 {
			p.add(path+".minLength", "must not be negative")
		}
		if q.MaxLength != nil && *q.MaxLength < 0 {
			p.add(path+".maxLength", "must not be negative")
		}
		if q.MinLength != nil && q.MaxLength != nil && *q.MinLength >= *q.MaxLength {
			p.add(path+".maxLength", "must be greater than minLength")
		}
	case KindMultipleChoice:
		if len(q.Choices) < 2 {
			p.add(path+".choices", "at least two choices are required")
		}
		for i, c := range q.Choices {
			if strings.TrimSpace(c.Label) == "" {
				p.add(fmt.Sprintf("%s.choices[%d].label", path, i), "label is required")
			}
		}
		if len(q.Rules) > 0 && !q.SingleAnswerOnly {
			p.add(path+".branchingRules", "branching requires singleAnswerOnly")
		}
	case KindTable:
		if len(q.Columns) == 0 {
			p.add(path+".columns", "at least one column is required")
		}
		for i, c := range q.Columns {
			cpath := fmt.Sprintf("%s.columns[%d]", path, i)
			if strings.TrimSpace(c.HeaderTitle) == "" {
				p.add(cpath+".headerTitle", "header title is required")
			}
			if c.Kind != ColumnDropdown {
				continue
			}
			if len(c.Choices) == 0 {
				p.add(cpath+".choices", "dropdown columns need at least one choice")
			}
			for j, choice := range c.Choices {
				if strings.TrimSpace(choice.Label) == "" {
					p.add(fmt.Sprintf("%s.choices[%d].label", cpath, j), "label is required")
				}
			}
		}
	}
}
