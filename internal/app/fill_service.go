package app

import (
	"context"
	"errors"
	"sync"

	"formflow/internal/domain"
	"formflow/internal/engine"
)

// View is what a respondent's client needs to render the current step.
type View struct {
	SessionID  string          `json:"sessionId"`
	FormID     int64           `json:"formId"`
	Title      string          `json:"title"`
	Index      int             `json:"index"`
	Total      int             `json:"total"`
	Question   domain.Question `json:"question"`
	History    []int           `json:"history"`
	State      engine.State    `json:"state"`
	CanAdvance bool            `json:"canAdvance"`
	HasNext    bool            `json:"hasNext"`
	CanGoBack  bool            `json:"canGoBack"`
	Answers    domain.Answers  `json:"answers"`
}

// FillService runs respondent sessions. Each session hosts one engine
// traversal whose snapshot is stored between calls.
type FillService struct {
	forms     FormRepository
	responses ResponseStore
	sessions  SessionStore
	opts      options

	mu    sync.Mutex
	plans map[int64]*engine.Plan
}

func NewFillService(forms FormRepository, responses ResponseStore, sessions SessionStore, opts ...Option) *FillService {
	return &FillService{
		forms:     forms,
		responses: responses,
		sessions:  sessions,
		opts:      buildOptions(opts),
		plans:     make(map[int64]*engine.Plan),
	}
}

// Start opens a fill session on the first question of a form.
func (s *FillService) Start(ctx context.Context, formID int64) (View, error) {
	form, err := s.form(ctx, formID)
	if err != nil {
		return View{}, err
	}
	plan, err := s.plan(form)
	if err != nil {
		return View{}, err
	}

	now := s.opts.now()
	session := Session{
		ID:          s.opts.newID(),
		FormID:      form.ID,
		FormVersion: form.UpdatedAt,
		CreatedAt:   now,
	}
	tr := engine.New(plan)
	if err := s.save(ctx, &session, tr); err != nil {
		return View{}, err
	}
	s.opts.logger.Debug("fill session started", "session_id", session.ID, "form_id", form.ID)
	return buildView(session, tr), nil
}

// Get returns the current view of a session.
func (s *FillService) Get(ctx context.Context, sessionID string) (View, error) {
	session, tr, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return buildView(session, tr), nil
}

// Answer records the answer to the question on screen.
func (s *FillService) Answer(ctx context.Context, sessionID string, questionID int64, answer domain.Answer) (View, error) {
	session, tr, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if err := tr.SetAnswer(questionID, answer); err != nil {
		return View{}, err
	}
	if err := s.save(ctx, &session, tr); err != nil {
		return View{}, err
	}
	return buildView(session, tr), nil
}

// Next advances past the current question.
func (s *FillService) Next(ctx context.Context, sessionID string) (View, error) {
	session, tr, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	out, err := tr.Advance()
	if err != nil {
		s.opts.metrics.Navigated("next", "blocked")
		return View{}, err
	}
	if err := s.save(ctx, &session, tr); err != nil {
		return View{}, err
	}
	outcome := "moved"
	switch {
	case out.End:
		outcome = "end"
	case out.RuleDriven:
		outcome = "branched"
	}
	s.opts.metrics.Navigated("next", outcome)
	s.opts.logger.Debug("fill session advanced", "session_id", sessionID, "index", tr.Current(), "outcome", outcome)
	return buildView(session, tr), nil
}

// Back returns to the previously shown question.
func (s *FillService) Back(ctx context.Context, sessionID string) (View, error) {
	session, tr, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if !tr.GoBack() {
		s.opts.metrics.Navigated("back", "blocked")
		if tr.State() == engine.Submitted {
			return View{}, domain.ErrSessionClosed
		}
		return View{}, domain.ErrCannotGoBack
	}
	if err := s.save(ctx, &session, tr); err != nil {
		return View{}, err
	}
	s.opts.metrics.Navigated("back", "moved")
	return buildView(session, tr), nil
}

// Submit stores the session's answers as a response and closes the session.
func (s *FillService) Submit(ctx context.Context, sessionID string) (int64, error) {
	session, tr, err := s.load(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	responseID, err := tr.Submit(ctx, s.responses)
	if err != nil {
		var pe *domain.PersistenceError
		if errors.As(err, &pe) {
			s.opts.metrics.PersistenceFailed("save response")
			s.opts.logger.Warn("response submission failed", "session_id", sessionID, "error", err)
		}
		return 0, err
	}
	s.opts.metrics.Submitted()
	if err := s.save(ctx, &session, tr); err != nil {
		// The response is stored; only the closed marker was lost.
		s.opts.logger.Warn("submitted session not saved", "session_id", sessionID, "response_id", responseID, "error", err)
	}
	s.opts.logger.Info("response submitted", "session_id", sessionID, "form_id", session.FormID, "response_id", responseID)
	return responseID, nil
}

// SaveResponse stores an answer buffer sent in one piece, bypassing a session.
func (s *FillService) SaveResponse(ctx context.Context, formID int64, answers domain.Answers) (int64, error) {
	form, err := s.form(ctx, formID)
	if err != nil {
		return 0, err
	}
	if err := domain.CheckResponse(form, answers); err != nil {
		return 0, err
	}
	id, err := s.responses.SaveResponse(ctx, formID, answers)
	if err != nil {
		return 0, s.opts.storeFailed("save response", err)
	}
	s.opts.metrics.Submitted()
	return id, nil
}

// ListResponses returns the stored responses of a form.
func (s *FillService) ListResponses(ctx context.Context, formID int64) ([]domain.Response, error) {
	if _, err := s.form(ctx, formID); err != nil {
		return nil, err
	}
	responses, err := s.responses.ListResponses(ctx, formID)
	if err != nil {
		return nil, s.opts.storeFailed("list responses", err)
	}
	return responses, nil
}

// form loads a definition and drops its cached plan once the form is gone.
func (s *FillService) form(ctx context.Context, id int64) (domain.Form, error) {
	form, err := s.forms.GetForm(ctx, id)
	if errors.Is(err, domain.ErrFormNotFound) {
		s.mu.Lock()
		delete(s.plans, id)
		s.mu.Unlock()
	}
	if err != nil {
		return domain.Form{}, s.opts.storeFailed("load form", err)
	}
	return form, nil
}

// forgetOlder drops the cached plan of form when it predates the current definition.
func (s *FillService) forgetOlder(form domain.Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[form.ID]; ok && p.Form().UpdatedAt.Before(form.UpdatedAt) {
		delete(s.plans, form.ID)
	}
}

// cachedPlans reports how many plans are held.
func (s *FillService) cachedPlans() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}

// plan returns the navigation plan of a form, reusing it while the definition is unchanged.
func (s *FillService) plan(form domain.Form) (*engine.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plans[form.ID]; ok && p.Form().UpdatedAt.Equal(form.UpdatedAt) {
		return p, nil
	}
	p, err := engine.NewPlan(form)
	if err != nil {
		return nil, err
	}
	s.plans[form.ID] = p
	return p, nil
}

func (s *FillService) load(ctx context.Context, sessionID string) (Session, *engine.Traversal, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return Session{}, nil, s.opts.storeFailed("load session", err)
	}
	form, err := s.form(ctx, session.FormID)
	if err != nil {
		return Session{}, nil, err
	}
	if !form.UpdatedAt.Equal(session.FormVersion) {
		s.forgetOlder(form)
		return Session{}, nil, domain.ErrFormChanged
	}
	plan, err := s.plan(form)
	if err != nil {
		return Session{}, nil, err
	}
	tr, err := engine.Restore(plan, session.Snapshot)
	if err != nil {
		return Session{}, nil, err
	}
	return session, tr, nil
}

func (s *FillService) save(ctx context.Context, session *Session, tr *engine.Traversal) error {
	session.Snapshot = tr.Snapshot()
	session.UpdatedAt = s.opts.now()
	if err := s.sessions.Save(ctx, *session); err != nil {
		return s.opts.storeFailed("save session", err)
	}
	return nil
}

func buildView(session Session, tr *engine.Traversal) View {
	form := tr.Plan().Form()
	history := tr.History()
	return View{
		SessionID:  session.ID,
		FormID:     form.ID,
		Title:      form.Title,
		Index:      tr.Current(),
		Total:      len(form.Questions),
		Question:   tr.CurrentQuestion(),
		History:    history,
		State:      tr.State(),
		CanAdvance: tr.CanAdvance(),
		HasNext:    tr.HasNext(),
		CanGoBack:  tr.State() != engine.Submitted && len(history) > 1,
		Answers:    tr.Answers(),
	}
}
