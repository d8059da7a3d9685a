package engine

import (
	"context"
	"fmt"

	"formflow/internal/domain"
)

// State is the lifecycle position of a traversal.
type State int

const (
	// Active means a question is on screen and more may follow.
	Active State = iota
	// Terminal means the last reachable question was answered and the form awaits submission.
	Terminal
	// Submitted means the answers were handed to the persister. No further changes are accepted.
	Submitted
)

var stateNames = [...]string{"active", "terminal", "submitted"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown traversal state %q", text)
}

// Persister stores a completed answer buffer and returns the response id.
type Persister interface {
	SaveResponse(ctx context.Context, formID int64, answers domain.Answers) (int64, error)
}

// Snapshot is the serializable state of a traversal.
type Snapshot struct {
	History []int          `json:"history"`
	Answers domain.Answers `json:"answers"`
	State   State          `json:"state"`
}

// Traversal is one respondent's walk through a form. It is not safe for
// concurrent use; each fill session owns exactly one.
type Traversal struct {
	plan    *Plan
	history []int
	answers domain.Answers
	state   State
}

// New starts a traversal at the first question with an empty answer buffer.
func New(plan *Plan) *Traversal {
	return &Traversal{
		plan:    plan,
		history: []int{0},
		answers: domain.Answers{},
		state:   Active,
	}
}

// Restore rebuilds a traversal from a snapshot taken against the same plan.
func Restore(plan *Plan, snap Snapshot) (*Traversal, error) {
	if len(snap.History) == 0 {
		return nil, &domain.NavigationError{Op: "restore", Index: -1, Reason: "empty history"}
	}
	for _, i := range snap.History {
		if i < 0 || i >= plan.Len() {
			return nil, &domain.NavigationError{Op: "restore", Index: i, Reason: "index out of range"}
		}
	}
	if snap.State < Active || snap.State > Submitted {
		return nil, &domain.NavigationError{Op: "restore", Index: snap.History[len(snap.History)-1], Reason: "unknown state " + snap.State.String()}
	}
	answers := snap.Answers.Clone()
	return &Traversal{
		plan:    plan,
		history: append([]int(nil), snap.History...),
		answers: answers,
		state:   snap.State,
	}, nil
}

// Snapshot copies the traversal state.
func (t *Traversal) Snapshot() Snapshot {
	return Snapshot{
		History: t.History(),
		Answers: t.answers.Clone(),
		State:   t.state,
	}
}

// Plan returns the plan the traversal navigates.
func (t *Traversal) Plan() *Plan {
	return t.plan
}

// Current returns the index of the question on screen.
func (t *Traversal) Current() int {
	return t.history[len(t.history)-1]
}

// CurrentQuestion returns the question on screen.
func (t *Traversal) CurrentQuestion() domain.Question {
	return t.plan.form.Questions[t.Current()]
}

// History returns a copy of the visited indices.
func (t *Traversal) History() []int {
	return append([]int(nil), t.history...)
}

// Answers returns a copy of the answer buffer.
func (t *Traversal) Answers() domain.Answers {
	return t.answers.Clone()
}

// State returns the lifecycle state.
func (t *Traversal) State() State {
	return t.state
}

// SetAnswer records the answer to the current question. Answering while
// Terminal reopens the current question, since the answer may change where
// the form goes next.
func (t *Traversal) SetAnswer(questionID int64, answer domain.Answer) error {
	if t.state == Submitted {
		return domain.ErrSessionClosed
	}
	i, ok := t.plan.Position(questionID)
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrQuestionNotFound, questionID)
	}
	if i != t.Current() {
		return fmt.Errorf("%w: %d", domain.ErrNotCurrentQuestion, questionID)
	}
	if err := domain.CheckAnswer(t.plan.form.Questions[i], answer); err != nil {
		return err
	}
	t.answers[questionID] = answer.Clone()
	t.state = Active
	return nil
}

// CanAdvance reports whether the current question is answered.
func (t *Traversal) CanAdvance() bool {
	return CanAdvance(t.CurrentQuestion(), t.answers)
}

// HasNext reports whether another question follows the current one.
func (t *Traversal) HasNext() bool {
	return t.plan.HasNext(t.answers, t.Current())
}

// Advance moves to the next question. When none follows, the traversal
// becomes Terminal and the current index stays where it is.
func (t *Traversal) Advance() (Outcome, error) {
	switch t.state {
	case Submitted:
		return Outcome{}, domain.ErrSessionClosed
	case Terminal:
		return Outcome{}, domain.ErrFormComplete
	}
	if !t.CanAdvance() {
		return Outcome{}, domain.ErrCannotAdvance
	}
	out, err := t.plan.Next(t.answers, t.Current())
	if err != nil {
		return Outcome{}, err
	}
	if out.End {
		t.state = Terminal
		return out, nil
	}
	t.history = append(t.history, out.Index)
	return out, nil
}

// GoBack returns to the previously shown question. It reports false and
// changes nothing at the start of the history or after submission.
func (t *Traversal) GoBack() bool {
	if t.state == Submitted || len(t.history) <= 1 {
		return false
	}
	t.history = t.history[:len(t.history)-1]
	t.state = Active
	return true
}

// Submit hands the answer buffer to p. It is only allowed once no question
// follows and the current one is answered. A failed save leaves the
// traversal untouched so the caller may retry.
func (t *Traversal) Submit(ctx context.Context, p Persister) (int64, error) {
	if t.state == Submitted {
		return 0, domain.ErrSessionClosed
	}
	if t.HasNext() {
		return 0, domain.ErrHasNext
	}
	if !t.CanAdvance() {
		return 0, domain.ErrCannotAdvance
	}
	id, err := p.SaveResponse(ctx, t.plan.form.ID, t.answers.Clone())
	if err != nil {
		return 0, domain.WrapPersistence("save response", err)
	}
	t.state = Submitted
	return id, nil
}
