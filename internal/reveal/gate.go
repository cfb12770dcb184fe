package reveal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperr "github.com/nadbot/dexbot-backend/internal/errors"
)

// State of one user's reveal session.
type State string

const (
	StateIdle             State = "IDLE"
	StateAwaitingPassword State = "AWAITING_PASSWORD"
	StateRevealed         State = "REVEALED"
)

// PasswordStore persists per-user password hashes. An empty hash means no
// password is on record yet.
type PasswordStore interface {
	PasswordHash(ctx context.Context, userID int64) (string, error)
	SetPasswordHash(ctx context.Context, userID int64, hash string) error
}

const (
	maxAttempts   = 5
	attemptWindow = 5 * time.Minute
)

// Gate controls when decrypted secrets may be shown to a user. A reveal
// request opens a session; the password either sets the record (first use)
// or must match it. First-use claiming mirrors the historical behavior of
// this flow; the attempt limiter bounds how fast a claimed password can be
// probed.
type Gate struct {
	store PasswordStore

	mu       sync.Mutex
	sessions map[int64]State
	failures map[int64][]time.Time
	now      func() time.Time
}

func NewGate(store PasswordStore) *Gate {
	return &Gate{
		store:    store,
		sessions: make(map[int64]State),
		failures: make(map[int64][]time.Time),
		now:      time.Now,
	}
}

// RequestReveal opens (or reopens) a reveal session for the user.
func (g *Gate) RequestReveal(ctx context.Context, userID int64) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[userID] = StateAwaitingPassword
	return StateAwaitingPassword
}

// SessionState reports the user's current session state.
func (g *Gate) SessionState(userID int64) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[userID]; ok {
		return s
	}
	return StateIdle
}

// SubmitPassword drives the session to a terminal outcome. With no
// password on record the supplied value is claimed as the password and the
// session reveals. Otherwise the value must match; a mismatch sends the
// session back to idle. Repeated failures trip the rate limiter.
func (g *Gate) SubmitPassword(ctx context.Context, userID int64, password string) (State, error) {
	if password == "" {
		return g.reset(userID), errors.New("password must not be empty")
	}

	g.mu.Lock()
	current, ok := g.sessions[userID]
	g.mu.Unlock()
	if !ok || current != StateAwaitingPassword {
		return StateIdle, fmt.Errorf("no reveal in progress for user %d", userID)
	}

	if g.limited(userID) {
		return g.reset(userID), apperr.New(apperr.KindRateLimited,
			fmt.Sprintf("too many failed attempts, retry after %s", attemptWindow))
	}

	stored, err := g.store.PasswordHash(ctx, userID)
	if err != nil {
		return g.reset(userID), fmt.Errorf("load password record: %w", err)
	}

	if stored == "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return g.reset(userID), fmt.Errorf("hash password: %w", err)
		}
		if err := g.store.SetPasswordHash(ctx, userID, string(hash)); err != nil {
			return g.reset(userID), fmt.Errorf("store password record: %w", err)
		}
		return g.terminal(userID, StateRevealed), nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)); err != nil {
		g.recordFailure(userID)
		return g.terminal(userID, StateIdle), apperr.New(apperr.KindPasswordMismatch, "password does not match")
	}

	g.clearFailures(userID)
	return g.terminal(userID, StateRevealed), nil
}

// terminal discards the session; the returned state is the outcome.
func (g *Gate) terminal(userID int64, outcome State) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, userID)
	return outcome
}

func (g *Gate) reset(userID int64) State {
	return g.terminal(userID, StateIdle)
}

func (g *Gate) limited(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := g.now().Add(-attemptWindow)
	recent := g.failures[userID][:0]
	for _, ts := range g.failures[userID] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	g.failures[userID] = recent
	return len(recent) >= maxAttempts
}

func (g *Gate) recordFailure(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[userID] = append(g.failures[userID], g.now())
}

func (g *Gate) clearFailures(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failures, userID)
}
