package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"formflow/internal/app"
	"formflow/internal/domain"
	"formflow/internal/infra/memory"
)

type fixture struct {
	store    *memory.FormStore
	repo     *memory.FormRepository
	sessions *memory.SessionStore
	forms    *app.FormService
	fill     *app.FillService
	formID   int64
}

// newFixture seeds one branching form: "Do you have a pet?" (Yes=1, No=2 jumps to the last question),
// "What is its name?", then "Anything else?".
func newFixture(opts ...app.Option) *fixture {
	store := memory.NewFormStore()
	form := store.Seed(domain.Form{
		Title: "Onboarding",
		Questions: []domain.Question{
			{
				ID:               10,
				Kind:             domain.KindMultipleChoice,
				Question:         "Do you have a pet?",
				SingleAnswerOnly: true,
				Choices: []domain.Choice{
					{ID: 1, Label: "Yes"},
					{ID: 2, Label: "No"},
				},
				Rules: []domain.Rule{{TriggerChoiceID: 2, TargetQuestionID: 30}},
			},
			{ID: 20, Kind: domain.KindTextInput, Question: "What is its name?"},
			{ID: 30, Kind: domain.KindTextInput, Question: "Anything else?"},
		},
	})
	repo := memory.NewFormRepository(store, 5*time.Minute)
	sessions := memory.NewSessionStore()

	var seq int
	var mu sync.Mutex
	opts = append([]app.Option{app.WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("session-%d", seq)
	})}, opts...)

	return &fixture{
		store:    store,
		repo:     repo,
		sessions: sessions,
		forms:    app.NewFormService(store, repo, opts...),
		fill:     app.NewFillService(repo, store, sessions, opts...),
		formID:   form.ID,
	}
}

// failingResponses rejects every save.
type failingResponses struct {
	app.ResponseStore
}

func (failingResponses) SaveResponse(context.Context, int64, domain.Answers) (int64, error) {
	return 0, errors.New("connection refused")
}
