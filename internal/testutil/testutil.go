// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"expense_tracker/internal/common/security"
	"expense_tracker/internal/platform/database"
	"expense_tracker/internal/platform/events"

	"github.com/golang-jwt/jwt/v5"
)

const JWTSecret = "test-secret"

// OpenInMemoryDB opens a fresh, migrated SQLite store that is closed when the
// test ends.
func OpenInMemoryDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite::memory:", 5*time.Second)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TokenService returns a token service keyed with JWTSecret.
func TokenService(t *testing.T) *security.TokenService {
	t.Helper()
	s, err := security.NewTokenService([]byte(JWTSecret))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return s
}

// GenerateJWTHS256 returns a token signed with secret carrying the given
// claims verbatim, so tests can forge expired or malformed tokens.
func GenerateJWTHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// ExpiredToken is a correctly signed token whose exp lies in the past.
func ExpiredToken(t *testing.T, id, role string) string {
	t.Helper()
	return GenerateJWTHS256(t, JWTSecret, jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
}

// Recorder is an events.Publisher that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Types lists the recorded event types in publish order.
func (r *Recorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.Type, 0, len(r.events))
	for _, ev := range r.events {
		types = append(types, ev.Type)
	}
	return types
}

func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}
