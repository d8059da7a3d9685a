package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formflow/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const foreignKeyViolation = "23503"

// Store keeps forms and responses in Postgres. Question lists and answer
// buffers are JSONB documents.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) CreateForm(ctx context.Context, title string, questions []domain.Question) (int64, error) {
	components, err := encodeQuestions(questions)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO forms (title, components) VALUES ($1, $2::jsonb) RETURNING id`,
		title, components,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert form: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateForm(ctx context.Context, id int64, title string, questions []domain.Question) error {
	components, err := encodeQuestions(questions)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE forms SET title = $2, components = $3::jsonb, updated_at = now() WHERE id = $1`,
		id, title, components,
	)
	if err != nil {
		return fmt.Errorf("update form %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFormNotFound
	}
	return nil
}

func (s *Store) DeleteForm(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete form %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFormNotFound
	}
	return nil
}

func (s *Store) ListForms(ctx context.Context) ([]domain.FormSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, jsonb_array_length(components), created_at, updated_at FROM forms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	defer rows.Close()

	out := []domain.FormSummary{}
	for rows.Next() {
		var f domain.FormSummary
		if err := rows.Scan(&f.ID, &f.Title, &f.QuestionCount, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return out, nil
}

// LoadForm reads one form and checks the stored components before returning them.
func (s *Store) LoadForm(ctx context.Context, id int64) (domain.Form, error) {
	var (
		form domain.Form
		raw  []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, components, created_at, updated_at FROM forms WHERE id = $1`, id,
	).Scan(&form.ID, &form.Title, &raw, &form.CreatedAt, &form.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Form{}, domain.ErrFormNotFound
	}
	if err != nil {
		return domain.Form{}, fmt.Errorf("load form %d: %w", id, err)
	}
	form.Questions, err = domain.DecodeQuestions(raw)
	if err != nil {
		return domain.Form{}, fmt.Errorf("form %d: %w", id, err)
	}
	return form, nil
}

func (s *Store) SaveResponse(ctx context.Context, formID int64, answers domain.Answers) (int64, error) {
	payload, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("encode answers: %w", err)
	}
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO responses (form_id, answers) VALUES ($1, $2::jsonb) RETURNING id`,
		formID, string(payload),
	).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return 0, domain.ErrFormNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("insert response: %w", err)
	}
	return id, nil
}

func (s *Store) ListResponses(ctx context.Context, formID int64) ([]domain.Response, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM forms WHERE id = $1)`, formID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check form %d: %w", formID, err)
	}
	if !exists {
		return nil, domain.ErrFormNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, form_id, answers, created_at FROM responses WHERE form_id = $1 ORDER BY id`, formID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	out := []domain.Response{}
	for rows.Next() {
		var (
			r   domain.Response
			raw []byte
		)
		if err := rows.Scan(&r.ID, &r.FormID, &raw, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if r.Answers, err = domain.DecodeAnswers(raw); err != nil {
			return nil, fmt.Errorf("response %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return out, nil
}

func encodeQuestions(questions []domain.Question) (string, error) {
	if questions == nil {
		questions = []domain.Question{}
	}
	payload, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("encode questions: %w", err)
	}
	return string(payload), nil
}
