// Package session keeps server-side browser session state: the bound
// account and any staged signup or PIN recovery.
package session

import (
	"context"
	"errors"
	"time"

	"universe/pkg/otp"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// PendingSignup is an unconfirmed registration awaiting its email code.
type PendingSignup struct {
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	DOB       string        `json:"dob"`
	PINHash   []byte        `json:"pin_hash"`
	Challenge otp.Challenge `json:"challenge"`
}

// PendingRecovery is a PIN reset awaiting its email code.
type PendingRecovery struct {
	Email     string        `json:"email"`
	Challenge otp.Challenge `json:"challenge"`
}

// Session is the server-side state behind one session cookie.
type Session struct {
	ID        string           `json:"id"`
	AccountID string           `json:"account_id,omitempty"`
	Pending   *PendingSignup   `json:"pending,omitempty"`
	Recovery  *PendingRecovery `json:"recovery,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// New returns an empty, unsaved session with a random id.
func New() *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
}

// Authenticated reports whether an account is bound to s.
func (s *Session) Authenticated() bool {
	return s.AccountID != ""
}

// Empty reports whether s carries nothing worth persisting.
func (s *Session) Empty() bool {
	return s.AccountID == "" && s.Pending == nil && s.Recovery == nil
}

// Store persists sessions with a time-to-live.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Destroy(ctx context.Context, id string) error
}
