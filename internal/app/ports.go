package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"formflow/internal/domain"
	"formflow/internal/engine"
	"formflow/internal/logging"
	"formflow/internal/metrics"
	"github.com/google/uuid"
)

// FormStore is the authoring write path and the source of truth for definitions.
type FormStore interface {
	CreateForm(ctx context.Context, title string, questions []domain.Question) (int64, error)
	UpdateForm(ctx context.Context, id int64, title string, questions []domain.Question) error
	DeleteForm(ctx context.Context, id int64) error
	ListForms(ctx context.Context) ([]domain.FormSummary, error)
	LoadForm(ctx context.Context, id int64) (domain.Form, error)
}

// ResponseStore persists submitted answer buffers.
type ResponseStore interface {
	SaveResponse(ctx context.Context, formID int64, answers domain.Answers) (int64, error)
	ListResponses(ctx context.Context, formID int64) ([]domain.Response, error)
}

// FormRepository loads form definitions through a cache (in-memory, Redis, etc).
type FormRepository interface {
	GetForm(ctx context.Context, id int64) (domain.Form, error)
	Invalidate(ctx context.Context, id int64) error
}

// SessionStore abstracts where fill sessions live between requests.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

// Session is the stored state of one respondent filling one form.
type Session struct {
	ID     string `json:"id"`
	FormID int64  `json:"formId"`
	// FormVersion is the form's UpdatedAt when the session started.
	FormVersion time.Time       `json:"formVersion"`
	Snapshot    engine.Snapshot `json:"snapshot"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Option configures the services.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
	now     func() time.Time
	newID   func() string
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// WithClock allows deterministic timestamps in tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// storeFailed wraps a store error and records it when it is a real persistence failure.
func (o options) storeFailed(op string, err error) error {
	err = domain.WrapPersistence(op, err)
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		o.metrics.PersistenceFailed(op)
		o.logger.Warn("store call failed", "op", op, "error", err)
	}
	return err
}
