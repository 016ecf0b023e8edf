package memory

import (
	"testing"

	"civicquiz-service/internal/app"
	"civicquiz-service/internal/mode"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	create := func() *app.Session {
		return app.NewSession("quiz-1", mode.NewClassic(), sampleQuiz())
	}

	session := store.GetOrCreate("quiz-1", create)
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := store.GetOrCreate("quiz-1", create); again != session {
		t.Fatalf("expected existing session to be reused")
	}
	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session present")
	}

	store.DeleteIfEmpty("quiz-1")
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected session removed when empty")
	}
}
