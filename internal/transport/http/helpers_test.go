package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formflow/internal/app"
	"formflow/internal/domain"
	"formflow/internal/infra/memory"
)

type testServer struct {
	*httptest.Server
	formID int64
}

// newTestServer serves a store seeded with "Do you have a pet?" (Yes=1, No=2 jumps to question 30),
// "What is its name?" (20), "Anything else?" (30).
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewFormStore()
	form := store.Seed(sampleForm())
	repo := memory.NewFormRepository(store, time.Minute)
	forms := app.NewFormService(store, repo)
	fill := app.NewFillService(repo, store, memory.NewSessionStore())

	srv := httptest.NewServer(NewRouter(forms, fill))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, formID: form.ID}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func sampleForm() domain.Form {
	return domain.Form{
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
	}
}
