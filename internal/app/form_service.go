package app

import (
	"context"
	"strings"

	"formflow/internal/domain"
)

// FormService contains the authoring use cases.
type FormService struct {
	store FormStore
	forms FormRepository
	opts  options
}

func NewFormService(store FormStore, forms FormRepository, opts ...Option) *FormService {
	return &FormService{store: store, forms: forms, opts: buildOptions(opts)}
}

// SaveForm validates and stores a new form, returning its id.
func (s *FormService) SaveForm(ctx context.Context, title string, questions []domain.Question) (int64, error) {
	title = strings.TrimSpace(title)
	if err := domain.ValidateForm(title, questions); err != nil {
		return 0, err
	}
	id, err := s.store.CreateForm(ctx, title, questions)
	if err != nil {
		return 0, s.opts.storeFailed("create form", err)
	}
	s.opts.metrics.FormSaved("create")
	s.opts.logger.Info("form created", "form_id", id, "questions", len(questions))
	return id, nil
}

// UpdateForm replaces the title and questions of an existing form.
func (s *FormService) UpdateForm(ctx context.Context, id int64, title string, questions []domain.Question) error {
	title = strings.TrimSpace(title)
	if err := domain.ValidateForm(title, questions); err != nil {
		return err
	}
	if err := s.store.UpdateForm(ctx, id, title, questions); err != nil {
		return s.opts.storeFailed("update form", err)
	}
	s.invalidate(ctx, id)
	s.opts.metrics.FormSaved("update")
	s.opts.logger.Info("form updated", "form_id", id, "questions", len(questions))
	return nil
}

// DeleteForm removes a form together with its responses.
func (s *FormService) DeleteForm(ctx context.Context, id int64) error {
	if err := s.store.DeleteForm(ctx, id); err != nil {
		return s.opts.storeFailed("delete form", err)
	}
	s.invalidate(ctx, id)
	s.opts.metrics.FormSaved("delete")
	s.opts.logger.Info("form deleted", "form_id", id)
	return nil
}

// ListForms returns a summary of every stored form.
func (s *FormService) ListForms(ctx context.Context) ([]domain.FormSummary, error) {
	forms, err := s.store.ListForms(ctx)
	if err != nil {
		return nil, s.opts.storeFailed("list forms", err)
	}
	return forms, nil
}

// GetForm fetches a form definition through the cache.
func (s *FormService) GetForm(ctx context.Context, id int64) (domain.Form, error) {
	form, err := s.forms.GetForm(ctx, id)
	if err != nil {
		return domain.Form{}, s.opts.storeFailed("load form", err)
	}
	return form, nil
}

func (s *FormService) invalidate(ctx context.Context, id int64) {
	if err := s.forms.Invalidate(ctx, id); err != nil {
		s.opts.logger.Warn("form cache invalidation failed", "form_id", id, "error", err)
	}
}
