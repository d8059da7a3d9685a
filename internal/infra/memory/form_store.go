package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"formflow/internal/domain"
)

// FormStore keeps forms and responses in process memory. It backs the
// service when no Postgres URL is configured, and the tests.
type FormStore struct {
	clock func() time.Time

	mu        sync.RWMutex
	forms     map[int64]domain.Form
	responses map[int64][]domain.Response
	nextForm  int64
	nextResp  int64
}

func NewFormStore() *FormStore {
	return &FormStore{
		clock:     time.Now,
		forms:     make(map[int64]domain.Form),
		responses: make(map[int64][]domain.Response),
	}
}

// WithClock replaces the timestamp source.
func (s *FormStore) WithClock(now func() time.Time) *FormStore {
	s.clock = now
	return s
}

// Seed stores a prepared form under its own id. Later ids continue after the highest seeded one.
func (s *FormStore) Seed(form domain.Form) domain.Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	if form.ID == 0 {
		s.nextForm++
		form.ID = s.nextForm
	} else if form.ID > s.nextForm {
		s.nextForm = form.ID
	}
	now := s.clock().UTC()
	if form.CreatedAt.IsZero() {
		form.CreatedAt = now
	}
	if form.UpdatedAt.IsZero() {
		form.UpdatedAt = form.CreatedAt
	}
	s.forms[form.ID] = copyForm(form)
	return copyForm(form)
}

func (s *FormStore) CreateForm(_ context.Context, title string, questions []domain.Question) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextForm++
	now := s.clock().UTC()
	s.forms[s.nextForm] = copyForm(domain.Form{
		ID:        s.nextForm,
		Title:     title,
		Questions: questions,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return s.nextForm, nil
}

func (s *FormStore) UpdateForm(_ context.Context, id int64, title string, questions []domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	form, ok := s.forms[id]
	if !ok {
		return domain.ErrFormNotFound
	}
	form.Title = title
	form.Questions = questions
	form.UpdatedAt = s.clock().UTC()
	if !form.UpdatedAt.After(form.CreatedAt) {
		form.UpdatedAt = form.CreatedAt.Add(time.Nanosecond)
	}
	s.forms[id] = copyForm(form)
	return nil
}

func (s *FormStore) DeleteForm(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[id]; !ok {
		return domain.ErrFormNotFound
	}
	delete(s.forms, id)
	delete(s.responses, id)
	return nil
}

func (s *FormStore) ListForms(_ context.Context) ([]domain.FormSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FormSummary, 0, len(s.forms))
	for _, form := range s.forms {
		out = append(out, form.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FormStore) LoadForm(_ context.Context, id int64) (domain.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[id]
	if !ok {
		return domain.Form{}, domain.ErrFormNotFound
	}
	return copyForm(form), nil
}

func (s *FormStore) SaveResponse(_ context.Context, formID int64, answers domain.Answers) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[formID]; !ok {
		return 0, domain.ErrFormNotFound
	}
	s.nextResp++
	s.responses[formID] = append(s.responses[formID], domain.Response{
		ID:        s.nextResp,
		FormID:    formID,
		Answers:   answers.Clone(),
		CreatedAt: s.clock().UTC(),
	})
	return s.nextResp, nil
}

func (s *FormStore) ListResponses(_ context.Context, formID int64) ([]domain.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.forms[formID]; !ok {
		return nil, domain.ErrFormNotFound
	}
	stored := s.responses[formID]
	out := make([]domain.Response, len(stored))
	for i, r := range stored {
		r.Answers = r.Answers.Clone()
		out[i] = r
	}
	return out, nil
}

// copyForm detaches the question slices so callers cannot mutate stored state.
func copyForm(form domain.Form) domain.Form {
	qs := make([]domain.Question, len(form.Questions))
	for i, q := range form.Questions {
		q.Choices = append([]domain.Choice(nil), q.Choices...)
		q.Rules = append([]domain.Rule(nil), q.Rules...)
		cols := make([]domain.Column, len(q.Columns))
		for j, c := range q.Columns {
			c.Choices = append([]domain.Choice(nil), c.Choices...)
			cols[j] = c
		}
		if q.Columns == nil {
			cols = nil
		}
		q.MinLength = copyInt(q.MinLength)
		q.MaxLength = copyInt(q.MaxLength)
		qs[i] = q
		qs[i].Columns = cols
	}
	form.Questions = qs
	return form
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
