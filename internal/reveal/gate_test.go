package reveal

import (
	"context"
	"errors"
	"testing"
	"time"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
)

type fakeStore struct {
	hashes map[int64]string
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{hashes: make(map[int64]string)}
}

func (s *fakeStore) PasswordHash(_ context.Context, userID int64) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.hashes[userID], nil
}

func (s *fakeStore) SetPasswordHash(_ context.Context, userID int64, hash string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.hashes[userID] = hash
	return nil
}

func TestFirstUseClaimsPasswordAndReveals(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	if got := gate.RequestReveal(ctx, 1); got != StateAwaitingPassword {
		t.Fatalf("state after request = %s, want %s", got, StateAwaitingPassword)
	}

	state, err := gate.SubmitPassword(ctx, 1, "hunter2")
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if state != StateRevealed {
		t.Fatalf("state = %s, want %s", state, StateRevealed)
	}
	if store.hashes[1] == "" {
		t.Fatal("password hash was not persisted")
	}
	if store.hashes[1] == "hunter2" {
		t.Fatal("password stored in cleartext")
	}
}

func TestMatchingPasswordReveals(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	gate.RequestReveal(ctx, 1)
	if _, err := gate.SubmitPassword(ctx, 1, "hunter2"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	gate.RequestReveal(ctx, 1)
	state, err := gate.SubmitPassword(ctx, 1, "hunter2")
	if err != nil {
		t.Fatalf("matching submit: %v", err)
	}
	if state != StateRevealed {
		t.Fatalf("state = %s, want %s", state, StateRevealed)
	}
}

func TestMismatchResetsSession(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	gate.RequestReveal(ctx, 1)
	gate.SubmitPassword(ctx, 1, "hunter2")

	gate.RequestReveal(ctx, 1)
	state, err := gate.SubmitPassword(ctx, 1, "wrong")
	if apperr.KindOf(err) != apperr.KindPasswordMismatch {
		t.Fatalf("error kind = %s, want %s", apperr.KindOf(err), apperr.KindPasswordMismatch)
	}
	if state != StateIdle {
		t.Fatalf("state = %s, want %s", state, StateIdle)
	}
	if got := gate.SessionState(1); got != StateIdle {
		t.Fatalf("session state = %s, want %s", got, StateIdle)
	}
}

func TestSubmitWithoutSessionRejected(t *testing.T) {
	gate := NewGate(newFakeStore())
	if _, err := gate.SubmitPassword(context.Background(), 1, "hunter2"); err == nil {
		t.Fatal("expected error without an open session")
	}
}

func TestRateLimitAfterRepeatedFailures(t *testing.T) {
	store := newFakeStore()
	gate := NewGate(store)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	gate.RequestReveal(ctx, 1)
	gate.SubmitPassword(ctx, 1, "hunter2")

	for i := 0; i < maxAttempts; i++ {
		gate.RequestReveal(ctx, 1)
		if _, err := gate.SubmitPassword(ctx, 1, "wrong"); apperr.KindOf(err) != apperr.KindPasswordMismatch {
			t.Fatalf("attempt %d: kind = %s, want %s", i, apperr.KindOf(err), apperr.KindPasswordMismatch)
		}
	}

	gate.RequestReveal(ctx, 1)
	_, err := gate.SubmitPassword(ctx, 1, "hunter2")
	if apperr.KindOf(err) != apperr.KindRateLimited {
		t.Fatalf("kind = %s, want %s", apperr.KindOf(err), apperr.KindRateLimited)
	}

	// The window slides: once the failures age out the correct password
	// works again.
	now = now.Add(attemptWindow + time.Second)
	gate.RequestReveal(ctx, 1)
	state, err := gate.SubmitPassword(ctx, 1, "hunter2")
	if err != nil {
		t.Fatalf("submit after window: %v", err)
	}
	if state != StateRevealed {
		t.Fatalf("state = %s, want %s", state, StateRevealed)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("db down")
	gate := NewGate(store)
	ctx := context.Background()

	gate.RequestReveal(ctx, 1)
	state, err := gate.SubmitPassword(ctx, 1, "hunter2")
	if err == nil {
		t.Fatal("expected error from store")
	}
	if state != StateIdle {
		t.Fatalf("state = %s, want %s", state, StateIdle)
	}
}

func TestEmptyPasswordRejected(t *testing.T) {
	gate := NewGate(newFakeStore())
	ctx := context.Background()
	gate.RequestReveal(ctx, 1)
	if _, err := gate.SubmitPassword(ctx, 1, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}
