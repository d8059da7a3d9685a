package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"formflow/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	err     error
	calls   int
	formID  int64
	answers domain.Answers
}

func (p *recordingPersister) SaveResponse(_ context.Context, formID int64, answers domain.Answers) (int64, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	p.formID = formID
	p.answers = answers
	return 42, nil
}

// branchingForm is Q0: MC(single, A=1, B=2, rule A→Q2), Q1: text, Q2: text.
func branchingForm(t *testing.T) *Plan {
	return mustPlan(t,
		choice(100, true, []int64{1, 2}, rule(1, 300)),
		text(200),
		text(300),
	)
}

func answerText(t *testing.T, tr *Traversal, value string) {
	t.Helper()
	require.NoError(t, tr.SetAnswer(tr.CurrentQuestion().ID, domain.Answer{Text: value}))
}

func TestTraversalInitialState(t *testing.T) {
	tr := New(mustPlan(t, text(1), text(2)))

	assert.Equal(t, 0, tr.Current())
	assert.Equal(t, []int{0}, tr.History())
	assert.Empty(t, tr.Answers())
	assert.Equal(t, Active, tr.State())
	assert.False(t, tr.CanAdvance())
	assert.True(t, tr.HasNext())
}

func TestTraversalLinearIndicesStrictlyIncrease(t *testing.T) {
	tr := New(mustPlan(t, text(1), text(2), text(3), text(4)))

	last := tr.Current()
	for tr.State() == Active {
		answerText(t, tr, "x")
		out, err := tr.Advance()
		require.NoError(t, err)
		if out.End {
			break
		}
		assert.Greater(t, tr.Current(), last)
		last = tr.Current()
	}
	assert.Equal(t, Terminal, tr.State())
	assert.Equal(t, 3, tr.Current())
	assert.Equal(t, []int{0, 1, 2, 3}, tr.History())
}

func TestTraversalAdvanceRequiresAnswer(t *testing.T) {
	tr := New(mustPlan(t, text(1), text(2)))

	_, err := tr.Advance()
	require.ErrorIs(t, err, domain.ErrCannotAdvance)
	assert.Equal(t, 0, tr.Current())
	assert.Equal(t, []int{0}, tr.History())
}

func TestTraversalBranchSelectingTriggerSkipsToTarget(t *testing.T) {
	tr := New(branchingForm(t))

	require.NoError(t, tr.SetAnswer(100, picked(1)))
	out, err := tr.Advance()
	require.NoError(t, err)
	assert.True(t, out.RuleDriven)
	assert.Equal(t, 2, tr.Current())
	assert.Equal(t, []int{0, 2}, tr.History())

	answerText(t, tr, "done")
	assert.False(t, tr.HasNext())
	out, err = tr.Advance()
	require.NoError(t, err)
	assert.True(t, out.End)
	assert.Equal(t, Terminal, tr.State())
	assert.NotContains(t, tr.History(), 1)
}

func TestTraversalBranchOtherChoiceVisitsDefaultPath(t *testing.T) {
	tr := New(branchingForm(t))

	require.NoError(t, tr.SetAnswer(100, picked(2)))
	_, err := tr.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Current())

	// Q2 is only reachable through the rule, so Q1 is the last question on this path.
	answerText(t, tr, "b path")
	assert.False(t, tr.HasNext())
	out, err := tr.Advance()
	require.NoError(t, err)
	assert.True(t, out.End)
	assert.Equal(t, []int{0, 1}, tr.History())
}

func TestTraversalRuleBeyondFormEndsImmediately(t *testing.T) {
	tr := New(mustPlan(t,
		choice(100, true, []int64{1, 2}, rule(1, 999)),
		text(200),
		text(300),
	))

	require.NoError(t, tr.SetAnswer(100, picked(1)))
	assert.False(t, tr.HasNext())
	out, err := tr.Advance()
	require.NoError(t, err)
	assert.True(t, out.End)
	assert.Equal(t, Terminal, tr.State())
	assert.Equal(t, 0, tr.Current())
}

func TestTraversalGoBackUndoesAdvance(t *testing.T) {
	tr := New(mustPlan(t,
		choice(100, true, []int64{1, 2}, rule(1, 400)),
		text(200),
		text(300),
		text(400),
		text(500),
	))

	assert.False(t, tr.GoBack(), "no-op at start")
	assert.Equal(t, []int{0}, tr.History())

	var seen []int
	require.NoError(t, tr.SetAnswer(100, picked(1)))
	for tr.State() == Active {
		seen = append(seen, tr.Current())
		if tr.Current() != 0 {
			answerText(t, tr, "x")
		}
		_, err := tr.Advance()
		require.NoError(t, err)
	}
	assert.Equal(t, []int{0, 3, 4}, seen)

	// Terminal is not sticky against back-navigation.
	require.True(t, tr.GoBack())
	assert.Equal(t, Active, tr.State())
	assert.Equal(t, 3, tr.Current())
	require.True(t, tr.GoBack())
	assert.Equal(t, 0, tr.Current())
	assert.False(t, tr.GoBack())
	assert.Equal(t, 0, tr.Current())
}

func TestTraversalSetAnswerOnlyForCurrentQuestion(t *testing.T) {
	tr := New(branchingForm(t))

	err := tr.SetAnswer(200, domain.Answer{Text: "early"})
	require.ErrorIs(t, err, domain.ErrNotCurrentQuestion)

	err = tr.SetAnswer(999, domain.Answer{Text: "nope"})
	require.ErrorIs(t, err, domain.ErrQuestionNotFound)

	err = tr.SetAnswer(100, picked(1, 2))
	require.ErrorIs(t, err, domain.ErrInvalidAnswer)
}

func TestTraversalAnsweringInTerminalReopens(t *testing.T) {
	tr := New(branchingForm(t))

	require.NoError(t, tr.SetAnswer(100, picked(1)))
	_, err := tr.Advance()
	require.NoError(t, err)
	require.True(t, tr.GoBack())

	// Now at Q0 again; choosing B reroutes through Q1.
	require.NoError(t, tr.SetAnswer(100, picked(2)))
	_, err = tr.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Current())

	answerText(t, tr, "x")
	_, err = tr.Advance()
	require.NoError(t, err)
	require.Equal(t, Terminal, tr.State())

	_, err = tr.Advance()
	require.ErrorIs(t, err, domain.ErrFormComplete)

	answerText(t, tr, "y")
	assert.Equal(t, Active, tr.State())
}

func TestTraversalSubmit(t *testing.T) {
	tr := New(branchingForm(t))
	p := &recordingPersister{}

	_, err := tr.Submit(context.Background(), p)
	require.ErrorIs(t, err, domain.ErrHasNext)

	require.NoError(t, tr.SetAnswer(100, picked(1)))
	_, err = tr.Advance()
	require.NoError(t, err)

	_, err = tr.Submit(context.Background(), p)
	require.ErrorIs(t, err, domain.ErrCannotAdvance)
	assert.Zero(t, p.calls)

	answerText(t, tr, "final")
	id, err := tr.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(7), p.formID)
	assert.Equal(t, domain.Answers{100: picked(1), 300: {Text: "final"}}, p.answers)
	assert.Equal(t, Submitted, tr.State())

	_, err = tr.Submit(context.Background(), p)
	require.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.False(t, tr.GoBack())
	require.ErrorIs(t, tr.SetAnswer(300, domain.Answer{Text: "late"}), domain.ErrSessionClosed)
}

func TestTraversalSubmitFailureLeavesStateUnchanged(t *testing.T) {
	tr := New(mustPlan(t, text(1)))
	answerText(t, tr, "only")
	before := tr.Snapshot()

	p := &recordingPersister{err: errors.New("connection refused")}
	_, err := tr.Submit(context.Background(), p)
	var pe *domain.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, before, tr.Snapshot())

	p.err = nil
	id, err := tr.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 2, p.calls)
}

func TestTraversalSnapshotRoundTrip(t *testing.T) {
	plan := branchingForm(t)
	tr := New(plan)
	require.NoError(t, tr.SetAnswer(100, picked(1)))
	_, err := tr.Advance()
	require.NoError(t, err)

	raw, err := json.Marshal(tr.Snapshot())
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := Restore(plan, snap)
	require.NoError(t, err)
	assert.Equal(t, tr.History(), restored.History())
	assert.Equal(t, tr.Answers(), restored.Answers())
	assert.Equal(t, tr.State(), restored.State())
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	plan := branchingForm(t)
	var navErr *domain.NavigationError

	_, err := Restore(plan, Snapshot{})
	require.ErrorAs(t, err, &navErr)

	_, err = Restore(plan, Snapshot{History: []int{0, 3}})
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, 3, navErr.Index)
}

func TestStateText(t *testing.T) {
	for _, s := range []State{Active, Terminal, Submitted} {
		raw, err := s.MarshalText()
		require.NoError(t, err)
		var back State
		require.NoError(t, back.UnmarshalText(raw))
		assert.Equal(t, s, back)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
}
