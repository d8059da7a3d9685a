package domain

import "time"

// QuestionKind selects how a question is rendered and answered.
type QuestionKind string

const (
	KindTextInput      QuestionKind = "textInput"
	KindMultipleChoice QuestionKind = "multipleChoice"
	KindTable          QuestionKind = "table"
)

// Known reports whether k is one of the supported question kinds.
func (k QuestionKind) Known() bool {
	switch k {
	case KindTextInput, KindMultipleChoice, KindTable:
		return true
	}
	return false
}

// ColumnKind selects the input used for a table cell.
type ColumnKind string

const (
	ColumnTextInput ColumnKind = "textInput"
	ColumnDropdown  ColumnKind = "dropdown"
)

// Choice is one selectable option of a multiple-choice question or dropdown column.
type Choice struct {
	ID    int64  `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Rule sends the respondent to TargetQuestionID when TriggerChoiceID is the single selected choice.
type Rule struct {
	TriggerChoiceID  int64 `json:"triggerChoiceId" yaml:"triggerChoiceId"`
	TargetQuestionID int64 `json:"targetQuestionId" yaml:"targetQuestionId"`
}

// Column describes one column of a table question.
type Column struct {
	ID          int64      `json:"id" yaml:"id"`
	HeaderTitle string     `json:"headerTitle" yaml:"headerTitle"`
	Kind        ColumnKind `json:"kind" yaml:"kind"`
	Choices     []Choice   `json:"choices,omitempty" yaml:"choices,omitempty"`
}

// Question is a single form component. Which fields apply depends on Kind.
type Question struct {
	ID       int64        `json:"id" yaml:"id"`
	Kind     QuestionKind `json:"kind" yaml:"kind"`
	Question string       `json:"question" yaml:"question"`

	// textInput
	MinLength *int `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`

	// multipleChoice
	Choices          []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`
	SingleAnswerOnly bool     `json:"singleAnswerOnly,omitempty" yaml:"singleAnswerOnly,omitempty"`
	Rules            []Rule   `json:"branchingRules,omitempty" yaml:"branchingRules,omitempty"`

	// table
	Columns []Column `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// Choice returns the choice with the given id.
func (q Question) Choice(id int64) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Column returns the column with the given id.
func (q Question) Column(id int64) (Column, bool) {
	for _, c := range q.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}

// RuleFor returns the branching rule triggered by choiceID, if any.
func (q Question) RuleFor(choiceID int64) (Rule, bool) {
	for _, r := range q.Rules {
		if r.TriggerChoiceID == choiceID {
			return r, true
		}
	}
	return Rule{}, false
}

// Branches reports whether the question's rules take part in navigation.
func (q Question) Branches() bool {
	return q.Kind == KindMultipleChoice && q.SingleAnswerOnly && len(q.Rules) > 0
}

// Form is a titled, ordered list of questions. Question order is the default traversal order.
type Form struct {
	ID        int64      `json:"id" yaml:"id,omitempty"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
	CreatedAt time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time  `json:"updatedAt" yaml:"-"`
}

// IndexOf returns the position of the question with the given id, or -1.
func (f Form) IndexOf(questionID int64) int {
	for i, q := range f.Questions {
		if q.ID == questionID {
			return i
		}
	}
	return -1
}

// Summary builds the listing view of the form.
func (f Form) Summary() FormSummary {
	return FormSummary{
		ID:            f.ID,
		Title:         f.Title,
		QuestionCount: len(f.Questions),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// FormSummary is the listing view of a stored form.
type FormSummary struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Cell is one column value of a table answer. Dropdown cells hold the chosen choice id in decimal.
type Cell struct {
	ColumnID int64  `json:"columnId"`
	Value    string `json:"value"`
}

// TableRow is one row of a table answer.
type TableRow []Cell

// Answer holds a respondent's answer to one question; the populated field follows the question kind.
type Answer struct {
	Text    string     `json:"text,omitempty"`
	Choices []int64    `json:"choices,omitempty"`
	Rows    []TableRow `json:"rows,omitempty"`
}

// Clone returns a deep copy of the answer.
func (a Answer) Clone() Answer {
	out := Answer{Text: a.Text}
	if a.Choices != nil {
		out.Choices = append([]int64(nil), a.Choices...)
	}
	if a.Rows != nil {
		out.Rows = make([]TableRow, len(a.Rows))
		for i, row := range a.Rows {
			out.Rows[i] = append(TableRow(nil), row...)
		}
	}
	return out
}

// Answers maps question ids to answers.
type Answers map[int64]Answer

// Clone returns a deep copy of the buffer.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, answer := range a {
		out[id] = answer.Clone()
	}
	return out
}

// Response is a submitted answer buffer.
type Response struct {
	ID        int64     `json:"id"`
	FormID    int64     `json:"formId"`
	Answers   Answers   `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
}
