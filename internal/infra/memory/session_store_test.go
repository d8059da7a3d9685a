package memory

import (
	"context"
	"errors"
	"testing"

	"formflow/internal/app"
	"formflow/internal/domain"
	"formflow/internal/engine"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	session := app.Session{
		ID:     "s-1",
		FormID: 1,
		Snapshot: engine.Snapshot{
			History: []int{0},
			Answers: domain.Answers{10: {Choices: []int64{1}}},
			State:   engine.Active,
		},
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}
	session.Snapshot.History[0] = 2

	loaded, err := store.Load(ctx, "s-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Snapshot.History[0] != 0 {
		t.Fatalf("stored session shares history with caller")
	}

	if err := store.Delete(ctx, "s-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "s-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
