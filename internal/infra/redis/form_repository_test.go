package redis

import (
	"context"
	"testing"
	"time"

	"formflow/internal/domain"
	"formflow/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestFormRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	store := memory.NewFormStore()
	form := store.Seed(sampleForm())
	loader := &countingLoader{FormLoader: store}
	repo := NewFormRepository(client, loader, time.Minute)

	got, err := repo.GetForm(context.Background(), form.ID)
	if err != nil {
		t.Fatalf("get form: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("formflow:form:1") {
		t.Fatalf("expected form cached under formflow:form:1")
	}
	if ttl := mr.TTL("formflow:form:1"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl within jitter window, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetForm(context.Background(), form.ID)
	if err != nil {
		t.Fatalf("get cached form: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Title != got.Title || len(cached.Questions) != len(got.Questions) {
		t.Fatalf("cached form differs: %+v", cached)
	}
	if rule := cached.Questions[0].Rules[0]; rule.TargetQuestionID != 30 {
		t.Fatalf("branching rules lost in cache: %+v", rule)
	}
}

func TestFormRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := memory.NewFormStore()
	form := store.Seed(sampleForm())
	loader := &countingLoader{FormLoader: store}
	repo := NewFormRepository(newClient(mr), loader, time.Minute)

	ctx := context.Background()
	_, _ = repo.GetForm(ctx, form.ID)
	if err := repo.Invalidate(ctx, form.ID); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists("formflow:form:1") {
		t.Fatalf("expected cache key removed")
	}
	_, _ = repo.GetForm(ctx, form.ID)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestFormRepositoryZeroTTLDisablesCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := memory.NewFormStore()
	form := store.Seed(sampleForm())
	loader := &countingLoader{FormLoader: store}
	repo := NewFormRepository(newClient(mr), loader, 0)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := repo.GetForm(ctx, form.ID); err != nil {
			t.Fatalf("get form %d: %v", i, err)
		}
	}
	if mr.Exists("formflow:form:1") {
		t.Fatalf("expected no cache entry with zero ttl")
	}
	if loader.calls != 2 {
		t.Fatalf("expected every read to hit the loader, calls=%d", loader.calls)
	}
}

type countingLoader struct {
	FormLoader
	calls int
}

func (l *countingLoader) LoadForm(ctx context.Context, id int64) (domain.Form, error) {
	l.calls++
	return l.FormLoader.LoadForm(ctx, id)
}

func sampleForm() domain.Form {
	return domain.Form{
		ID:    1,
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

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
